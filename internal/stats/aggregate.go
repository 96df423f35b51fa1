package stats

import (
	"sort"
	"time"

	"VPNLogSift/internal/models"
)

// TopReasonsLimit — сколько причин отказа попадает в сводку
const TopReasonsLimit = 5

// ReasonCount — причина отказа и число сессий с ней
type ReasonCount struct {
	Reason string
	Count  int
}

// Summary — сводка по набору сессий
type Summary struct {
	Attempts      int
	Successes     int
	Failures      int
	SuccessRate   float64 // в процентах
	MedianConnect *time.Duration
	ConnectSample int
	TopReasons    []ReasonCount
}

// Aggregate считает сводку. На пустом входе возвращает нули и пустую медиану.
// Failures — всё, что не success, включая unknown.
func Aggregate(sessions []models.Session) Summary {
	sum := Summary{Attempts: len(sessions)}

	var connectMs []int64
	counts := make(map[string]int)
	var order []string
	for _, s := range sessions {
		if s.Outcome == models.OutcomeSuccess {
			sum.Successes++
		}
		if s.PhaseMs.Tunnel != nil {
			connectMs = append(connectMs, *s.PhaseMs.Tunnel)
		}
		if s.FailReason != "" {
			if _, seen := counts[s.FailReason]; !seen {
				order = append(order, s.FailReason)
			}
			counts[s.FailReason]++
		}
	}
	sum.Failures = sum.Attempts - sum.Successes
	if sum.Attempts > 0 {
		sum.SuccessRate = float64(sum.Successes) / float64(sum.Attempts) * 100
	}

	sum.ConnectSample = len(connectMs)
	if len(connectMs) > 0 {
		sort.Slice(connectMs, func(i, j int) bool { return connectMs[i] < connectMs[j] })
		median := time.Duration(connectMs[len(connectMs)/2]) * time.Millisecond
		sum.MedianConnect = &median
	}

	// при равном счёте порядок первого появления
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > TopReasonsLimit {
		order = order[:TopReasonsLimit]
	}
	for _, r := range order {
		sum.TopReasons = append(sum.TopReasons, ReasonCount{Reason: r, Count: counts[r]})
	}
	return sum
}

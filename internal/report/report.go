package report

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"VPNLogSift/internal/models"
	"VPNLogSift/internal/stats"
	"VPNLogSift/internal/transform"
)

// DefaultLast — сколько последних сессий печатается подробно
const DefaultLast = 3

// Options — параметры печати сводки
type Options struct {
	Last   int  // сколько последних сессий показать; 0 — DefaultLast, <0 — ни одной
	Redact bool // маскировать user, portal, gateway, client_ip
}

func (o Options) tail(sessions []models.Session) []models.Session {
	n := o.Last
	if n == 0 {
		n = DefaultLast
	}
	if n < 0 {
		return nil
	}
	if len(sessions) > n {
		return sessions[len(sessions)-n:]
	}
	return sessions
}

// WriteText печатает сводку и последние сессии в текстовом виде
func WriteText(w io.Writer, sum stats.Summary, sessions []models.Session, opts Options) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Attempts: %d | Success: %d (%.1f%%) | Failures: %d\n",
		sum.Attempts, sum.Successes, sum.SuccessRate, sum.Failures)
	if sum.MedianConnect != nil {
		fmt.Fprintf(&b, "Median time-to-connect: %.2fs (n=%d)\n", sum.MedianConnect.Seconds(), sum.ConnectSample)
	}
	if len(sum.TopReasons) > 0 {
		parts := make([]string, 0, len(sum.TopReasons))
		for _, r := range sum.TopReasons {
			parts = append(parts, fmt.Sprintf("%s(%d)", r.Reason, r.Count))
		}
		fmt.Fprintf(&b, "Top failure reasons: %s\n", strings.Join(parts, ", "))
	}

	for _, s := range opts.tail(sessions) {
		row := transform.TransformSession(s, opts.Redact)
		fmt.Fprintf(&b, "\n--- Session #%d %s ---\n", s.SessionID, strings.ToUpper(s.Outcome))
		if row.EndTS != "" {
			fmt.Fprintf(&b, "Start: %s  End: %s  Duration: %.2fs\n", row.StartTS, row.EndTS, s.Duration().Seconds())
		} else {
			fmt.Fprintf(&b, "Start: %s\n", row.StartTS)
		}
		fmt.Fprintf(&b, "User: %s  Portal: %s  Gateway: %s  Assigned IP: %s\n",
			deref(row.User), deref(row.Portal), deref(row.Gateway), deref(row.ClientIP))
		fmt.Fprintf(&b, "Reconnects: %d  Phase ms: portal=%s auth=%s gateway=%s tunnel=%s\n",
			s.Reconnects, ms(row.PortalMs), ms(row.AuthMs), ms(row.GatewayMs), ms(row.TunnelMs))
		if s.Outcome == models.OutcomeFail {
			fmt.Fprintf(&b, "Fail reason: %s  Detail: %s\n", deref(row.FailReason), deref(row.FailDetail))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// yamlReport — представление сводки для YAML
type yamlReport struct {
	Attempts             int           `yaml:"attempts"`
	Successes            int           `yaml:"successes"`
	Failures             int           `yaml:"failures"`
	SuccessRate          float64       `yaml:"success_rate"`
	MedianConnectSeconds *float64      `yaml:"median_connect_seconds,omitempty"`
	ConnectSample        int           `yaml:"connect_sample"`
	TopReasons           []yamlReason  `yaml:"top_reasons,omitempty"`
	Sessions             []yamlSession `yaml:"sessions,omitempty"`
}

type yamlReason struct {
	Reason string `yaml:"reason"`
	Count  int    `yaml:"count"`
}

type yamlSession struct {
	SessionID  int              `yaml:"session_id"`
	Outcome    string           `yaml:"outcome"`
	Start      string           `yaml:"start"`
	End        string           `yaml:"end,omitempty"`
	User       string           `yaml:"user,omitempty"`
	Portal     string           `yaml:"portal,omitempty"`
	Gateway    string           `yaml:"gateway,omitempty"`
	ClientIP   string           `yaml:"client_ip,omitempty"`
	Reconnects int              `yaml:"reconnects"`
	PhaseMs    map[string]int64 `yaml:"phase_ms,omitempty"`
	FailReason string           `yaml:"fail_reason,omitempty"`
	FailDetail string           `yaml:"fail_detail,omitempty"`
}

// WriteYAML выводит те же данные, что и WriteText, в YAML
func WriteYAML(w io.Writer, sum stats.Summary, sessions []models.Session, opts Options) error {
	rep := yamlReport{
		Attempts:      sum.Attempts,
		Successes:     sum.Successes,
		Failures:      sum.Failures,
		SuccessRate:   sum.SuccessRate,
		ConnectSample: sum.ConnectSample,
	}
	if sum.MedianConnect != nil {
		sec := sum.MedianConnect.Seconds()
		rep.MedianConnectSeconds = &sec
	}
	for _, r := range sum.TopReasons {
		rep.TopReasons = append(rep.TopReasons, yamlReason{Reason: r.Reason, Count: r.Count})
	}
	for _, s := range opts.tail(sessions) {
		row := transform.TransformSession(s, opts.Redact)
		ys := yamlSession{
			SessionID:  s.SessionID,
			Outcome:    s.Outcome,
			Start:      row.StartTS,
			End:        row.EndTS,
			User:       deref(row.User),
			Portal:     deref(row.Portal),
			Gateway:    deref(row.Gateway),
			ClientIP:   deref(row.ClientIP),
			Reconnects: s.Reconnects,
			FailReason: deref(row.FailReason),
			FailDetail: deref(row.FailDetail),
		}
		ys.PhaseMs = phaseMap(s.PhaseMs)
		rep.Sessions = append(rep.Sessions, ys)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func phaseMap(p models.PhaseTimes) map[string]int64 {
	m := make(map[string]int64)
	for name, v := range map[string]*int64{
		"portal": p.Portal, "auth": p.Auth, "gateway": p.Gateway, "tunnel": p.Tunnel,
	} {
		if v != nil {
			m[name] = *v
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ms(p *int64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprint(*p)
}

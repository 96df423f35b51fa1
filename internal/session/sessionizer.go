package session

import (
	"strings"
	"time"

	"VPNLogSift/internal/models"
)

// DefaultIdleGap — пауза между событиями, после которой начинается новая сессия
const DefaultIdleGap = 90 * time.Second

// phaseStart — моменты начала фаз текущей сессии, в выгрузку не попадают
type phaseStart struct {
	portal *time.Time
	auth   *time.Time
	tls    bool
}

func (p phaseStart) any() bool {
	return p.portal != nil || p.auth != nil || p.tls
}

// Sessionizer собирает сессии из отсортированного по времени потока событий.
// Не потокобезопасен: события подаются строго по одному и по порядку.
type Sessionizer struct {
	idleGap  time.Duration
	current  *models.Session
	started  phaseStart
	lastTS   time.Time
	hasLast  bool
	counter  int
	sessions []models.Session
}

// New создаёт сессионизатор; idleGap <= 0 заменяется значением по умолчанию
func New(idleGap time.Duration) *Sessionizer {
	if idleGap <= 0 {
		idleGap = DefaultIdleGap
	}
	return &Sessionizer{idleGap: idleGap}
}

// Sessionize — проход по всему потоку событий целиком
func Sessionize(events []models.Event, idleGap time.Duration) []models.Session {
	s := New(idleGap)
	for _, ev := range events {
		s.Push(ev)
	}
	return s.Finish()
}

// repeatsStart сообщает, что событие — маркер начала фазы, которая в текущей попытке уже начиналась
func (s *Sessionizer) repeatsStart(eventType string) bool {
	switch eventType {
	case models.EventPortalConnectStart:
		return s.started.portal != nil
	case models.EventAuthStart:
		return s.started.auth != nil
	case models.EventTLSHandshakeStart:
		return s.started.tls
	}
	return false
}

func isStartMarker(eventType string) bool {
	switch eventType {
	case models.EventPortalConnectStart, models.EventAuthStart, models.EventTLSHandshakeStart:
		return true
	}
	return false
}

func isFailure(eventType string) bool {
	switch eventType {
	case models.EventAuthFail, models.EventPortalConnectFail,
		models.EventTLSHandshakeFail, models.EventGatewaySelectFail:
		return true
	}
	return false
}

// boundary решает, нужно ли закрыть текущую сессию перед событием.
// Маркер начала открывает новую попытку, если текущая уже завершилась,
// в ней ещё не было ни одного маркера начала или эта фаза в ней уже стартовала.
func (s *Sessionizer) boundary(ev models.Event) bool {
	if s.current == nil {
		return true
	}
	if s.hasLast && ev.Timestamp.Sub(s.lastTS) > s.idleGap {
		return true
	}
	if !isStartMarker(ev.EventType) {
		return false
	}
	return s.current.Outcome != models.OutcomeUnknown || !s.started.any() || s.repeatsStart(ev.EventType)
}

// Push добавляет очередное событие
func (s *Sessionizer) Push(ev models.Event) {
	if s.boundary(ev) {
		s.close()
		s.counter++
		s.current = &models.Session{
			SessionID: s.counter,
			StartTS:   ev.Timestamp,
			Outcome:   models.OutcomeUnknown,
		}
		s.started = phaseStart{}
	}
	cur := s.current
	cur.Events = append(cur.Events, ev)
	s.lastTS, s.hasLast = ev.Timestamp, true

	setOnce(&cur.Portal, ev.Portal)
	setOnce(&cur.Gateway, ev.Gateway)
	setOnce(&cur.User, ev.User)
	setOnce(&cur.ClientIP, ev.ClientIP)

	switch {
	case ev.EventType == models.EventPortalConnectStart:
		ts := ev.Timestamp
		s.started.portal = &ts
	case ev.EventType == models.EventPortalConnectSuccess:
		if s.started.portal != nil {
			cur.PhaseMs.Portal = elapsedMs(*s.started.portal, ev.Timestamp)
		}
	case ev.EventType == models.EventAuthStart:
		ts := ev.Timestamp
		s.started.auth = &ts
	case ev.EventType == models.EventTLSHandshakeStart:
		s.started.tls = true
	case ev.EventType == models.EventAuthSuccess:
		if s.started.auth != nil {
			cur.PhaseMs.Auth = elapsedMs(*s.started.auth, ev.Timestamp)
		}
	case ev.EventType == models.EventGatewaySelectSuccess:
		if cur.PhaseMs.Gateway == nil {
			cur.PhaseMs.Gateway = elapsedMs(cur.StartTS, ev.Timestamp)
		}
	case ev.EventType == models.EventTunnelUp:
		cur.PhaseMs.Tunnel = elapsedMs(cur.StartTS, ev.Timestamp)
		s.terminate(models.OutcomeSuccess, ev.Timestamp)
	case isFailure(ev.EventType):
		setOnce(&cur.FailReason, failReason(ev))
		setOnce(&cur.FailDetail, truncate(ev.Message, models.FailDetailMax))
		s.terminate(models.OutcomeFail, ev.Timestamp)
	case ev.EventType == models.EventReconnect:
		cur.Reconnects++
	}
}

// terminate фиксирует итог. Побеждает первое терминальное событие:
// success и fail не перезаписывают друг друга, EndTS остаётся от первого.
func (s *Sessionizer) terminate(outcome string, ts time.Time) {
	if s.current.Outcome != models.OutcomeUnknown {
		return
	}
	s.current.Outcome = outcome
	s.current.EndTS = ts
}

// close завершает текущую сессию и добавляет её в результат
func (s *Sessionizer) close() {
	cur := s.current
	if cur == nil {
		return
	}
	if cur.EndTS.IsZero() {
		cur.EndTS = cur.StartTS
		if n := len(cur.Events); n > 0 {
			cur.EndTS = cur.Events[n-1].Timestamp
		}
	}
	if cur.FailReason != "" && cur.Outcome == models.OutcomeUnknown {
		cur.Outcome = models.OutcomeFail
	}
	s.sessions = append(s.sessions, *cur)
	s.current = nil
}

// Finish закрывает открытую сессию и возвращает все сессии в порядке создания
func (s *Sessionizer) Finish() []models.Session {
	s.close()
	out := s.sessions
	s.sessions = nil
	return out
}

func failReason(ev models.Event) string {
	if ev.Reason != "" {
		return ev.Reason
	}
	if strings.Contains(strings.ToLower(ev.Message), "timeout") {
		return models.ReasonNetwork
	}
	return models.ReasonUnknown
}

func setOnce(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func elapsedMs(from, to time.Time) *int64 {
	ms := to.Sub(from).Milliseconds()
	return &ms
}

// truncate обрезает по символам, а не по байтам
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

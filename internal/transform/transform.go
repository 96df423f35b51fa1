package transform

import (
	"strings"
	"unicode/utf8"

	"VPNLogSift/internal/models"
)

// TimeLayout — формат меток времени во всех выгрузках
const TimeLayout = "2006-01-02 15:04:05.999999"

const maskChar = "*"

// EventRow — плоское представление события для JSON/NDJSON и ClickHouse.
// Пустые необязательные поля становятся nil (null в JSON, NULL в ClickHouse).
type EventRow struct {
	Timestamp string  `json:"timestamp"`
	Severity  string  `json:"severity"`
	Component string  `json:"component"`
	EventType string  `json:"event_type"`
	Message   string  `json:"message"`
	Portal    *string `json:"portal"`
	Gateway   *string `json:"gateway"`
	User      *string `json:"user"`
	ClientIP  *string `json:"client_ip"`
	Reason    *string `json:"reason"`
	Source    string  `json:"source"`
}

// SessionRow — плоское представление сессии для CSV и ClickHouse
type SessionRow struct {
	SessionID  int
	StartTS    string
	EndTS      string
	Outcome    string
	FailReason *string
	FailDetail *string
	Portal     *string
	Gateway    *string
	User       *string
	ClientIP   *string
	Reconnects int
	PortalMs   *int64
	AuthMs     *int64
	GatewayMs  *int64
	TunnelMs   *int64
}

// Redact маскирует значение, сохраняя длину в символах:
// до трёх символов включительно маскируется всё, иначе остаются первый и последний.
func Redact(v string) string {
	n := utf8.RuneCountInString(v)
	if n == 0 {
		return v
	}
	if n <= 3 {
		return strings.Repeat(maskChar, n)
	}
	r := []rune(v)
	return string(r[0]) + strings.Repeat(maskChar, n-2) + string(r[n-1])
}

// TransformEvent конвертирует событие в строку выгрузки; redact маскирует user, portal, gateway, client_ip
func TransformEvent(ev models.Event, redact bool) EventRow {
	mask := identity
	if redact {
		mask = Redact
	}
	return EventRow{
		Timestamp: ev.Timestamp.Format(TimeLayout),
		Severity:  ev.Severity,
		Component: ev.Component,
		EventType: ev.EventType,
		Message:   ev.Message,
		Portal:    optional(mask(ev.Portal)),
		Gateway:   optional(mask(ev.Gateway)),
		User:      optional(mask(ev.User)),
		ClientIP:  optional(mask(ev.ClientIP)),
		Reason:    optional(ev.Reason),
		Source:    ev.Source,
	}
}

// TransformSession конвертирует сессию в строку выгрузки
func TransformSession(s models.Session, redact bool) SessionRow {
	mask := identity
	if redact {
		mask = Redact
	}
	row := SessionRow{
		SessionID:  s.SessionID,
		StartTS:    s.StartTS.Format(TimeLayout),
		Outcome:    s.Outcome,
		FailReason: optional(s.FailReason),
		FailDetail: optional(s.FailDetail),
		Portal:     optional(mask(s.Portal)),
		Gateway:    optional(mask(s.Gateway)),
		User:       optional(mask(s.User)),
		ClientIP:   optional(mask(s.ClientIP)),
		Reconnects: s.Reconnects,
		PortalMs:   s.PhaseMs.Portal,
		AuthMs:     s.PhaseMs.Auth,
		GatewayMs:  s.PhaseMs.Gateway,
		TunnelMs:   s.PhaseMs.Tunnel,
	}
	if !s.EndTS.IsZero() {
		row.EndTS = s.EndTS.Format(TimeLayout)
	}
	return row
}

func identity(s string) string { return s }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

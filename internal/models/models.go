package models

import "time"

// Компоненты клиента, к которым относится строка лога
const (
	ComponentPortal  = "portal"
	ComponentAuth    = "auth"
	ComponentTLS     = "tls"
	ComponentGateway = "gateway"
	ComponentService = "service"
	ComponentNetwork = "network"
	ComponentUnknown = "unknown"
)

// Типы событий. EventError назначается строкам, которые не подошли ни под одно правило.
const (
	EventPortalConnectStart   = "portal_connect_start"
	EventPortalConnectSuccess = "portal_connect_success"
	EventPortalConnectFail    = "portal_connect_fail"
	EventAuthStart            = "auth_start"
	EventAuthSuccess          = "auth_success"
	EventAuthFail             = "auth_fail"
	EventTLSHandshakeStart    = "tls_handshake_start"
	EventTLSHandshakeSuccess  = "tls_handshake_success"
	EventTLSHandshakeFail     = "tls_handshake_fail"
	EventGatewaySelectSuccess = "gateway_select_success"
	EventGatewaySelectFail    = "gateway_select_fail"
	EventTunnelUp             = "tunnel_up"
	EventTunnelDown           = "tunnel_down"
	EventReconnect            = "reconnect"
	EventNetChange            = "net_change"
	EventError                = "error"
)

// Уровни важности строки
const (
	SeverityInfo  = "INFO"
	SeverityWarn  = "WARN"
	SeverityError = "ERROR"
)

// Итоги попытки подключения
const (
	OutcomeSuccess = "success"
	OutcomeFail    = "fail"
	OutcomeUnknown = "unknown"
)

// Причины отказа, которые проставляют правила классификатора
const (
	ReasonNetwork = "network"
	ReasonAuth    = "auth"
	ReasonCert    = "cert"
	ReasonConfig  = "config"
	ReasonUnknown = "unknown"
)

// FailDetailMax — сколько символов сообщения сохраняется в FailDetail
const FailDetailMax = 300

// Event — одна классифицированная строка лога.
// Timestamp и EventType заполнены всегда, остальные поля могут быть пустыми.
type Event struct {
	Timestamp time.Time
	Severity  string
	Component string
	EventType string
	Message   string // исходная строка целиком
	Portal    string
	Gateway   string
	User      string
	ClientIP  string
	Reason    string
	Source    string // имя файла внутри архива
}

// PhaseTimes — длительности фаз подключения в миллисекундах.
// nil означает, что фаза не была измерена.
type PhaseTimes struct {
	Portal  *int64
	Auth    *int64
	Gateway *int64
	Tunnel  *int64
}

// Session — восстановленная попытка подключения
type Session struct {
	SessionID  int
	StartTS    time.Time
	EndTS      time.Time
	Outcome    string
	FailReason string
	FailDetail string
	Portal     string
	Gateway    string
	User       string
	ClientIP   string
	Reconnects int
	PhaseMs    PhaseTimes
	Events     []Event
}

// Duration возвращает длительность сессии; ноль, если EndTS ещё не выставлен
func (s *Session) Duration() time.Duration {
	if s.EndTS.IsZero() || s.StartTS.IsZero() {
		return 0
	}
	return s.EndTS.Sub(s.StartTS)
}

// SessionRecord — сессия вместе с идентификатором прогона и именем архива, уходит в батчер
type SessionRecord struct {
	RunID   string
	Bundle  string
	Session Session
}

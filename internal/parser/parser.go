package parser

import (
	"strings"

	"VPNLogSift/internal/models"
)

// ParseLine превращает строку лога в Event.
// Строки без метки времени отбрасываются: второй результат false, это не ошибка.
func ParseLine(line, source string) (models.Event, bool) {
	line = strings.TrimRight(line, "\r\n")
	ts, ok := ExtractTimestamp(line)
	if !ok {
		return models.Event{}, false
	}
	c := Classify(line)
	return models.Event{
		Timestamp: ts,
		Severity:  Severity(line),
		Component: c.Component,
		EventType: c.EventType,
		Message:   line,
		Portal:    c.Portal,
		Gateway:   c.Gateway,
		User:      c.User,
		ClientIP:  c.ClientIP,
		Reason:    c.Reason,
		Source:    source,
	}, true
}

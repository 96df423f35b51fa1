package parser

import (
	"regexp"
	"strings"

	"VPNLogSift/internal/models"
)

// rule — одна строка таблицы классификации
type rule struct {
	re        *regexp.Regexp
	eventType string
	component string
	reason    string
}

// rules проверяются строго по порядку: побеждает первое совпадение, а не самое точное.
// Порядок строк таблицы менять нельзя.
var rules = []rule{
	{regexp.MustCompile(`(?i)connecting to portal \S+`), models.EventPortalConnectStart, models.ComponentPortal, ""},
	{regexp.MustCompile(`(?i)portal\b.*\b(?:success|connected)`), models.EventPortalConnectSuccess, models.ComponentPortal, ""},
	{regexp.MustCompile(`(?i)portal\b.*\b(?:fail|unreachable|timeout)`), models.EventPortalConnectFail, models.ComponentPortal, models.ReasonNetwork},

	{regexp.MustCompile(`(?i)auth(?:entication)? (?:start|begin)`), models.EventAuthStart, models.ComponentAuth, ""},
	{regexp.MustCompile(`(?i)auth(?:entication)? (?:success|succeeded)`), models.EventAuthSuccess, models.ComponentAuth, ""},
	{regexp.MustCompile(`(?i)auth(?:entication)? failed|invalid credential|mfa (?:deny|timeout)|saml .*error`), models.EventAuthFail, models.ComponentAuth, models.ReasonAuth},

	{regexp.MustCompile(`(?i)tls handshake (?:start|begin)`), models.EventTLSHandshakeStart, models.ComponentTLS, ""},
	{regexp.MustCompile(`(?i)tls handshake (?:success|complete)`), models.EventTLSHandshakeSuccess, models.ComponentTLS, ""},
	{regexp.MustCompile(`(?i)tls handshake failed|certificate (?:expired|untrusted|mismatch|validation failed)`), models.EventTLSHandshakeFail, models.ComponentTLS, models.ReasonCert},

	{regexp.MustCompile(`(?i)(?:selecting|selected) gateway \S+`), models.EventGatewaySelectSuccess, models.ComponentGateway, ""},
	{regexp.MustCompile(`(?i)no available gateway|gateway .* (?:fail|timeout)`), models.EventGatewaySelectFail, models.ComponentGateway, models.ReasonConfig},

	{regexp.MustCompile(`(?i)tunnel is up`), models.EventTunnelUp, models.ComponentService, ""},
	{regexp.MustCompile(`(?i)tunnel is down`), models.EventTunnelDown, models.ComponentService, ""},
	{regexp.MustCompile(`(?i)reconnect(?:ing)?`), models.EventReconnect, models.ComponentService, ""},

	{regexp.MustCompile(`(?i)dns (?:set|server)|route (?:add|delete)|interface (?:up|down)`), models.EventNetChange, models.ComponentNetwork, ""},
}

// Вспомогательные экстракторы работают независимо от сработавшего правила
var (
	portalRegex  = regexp.MustCompile(`(?i)\bportal\b.*?\b(?P<portal>[A-Za-z0-9.\-]+)`)
	gatewayRegex = regexp.MustCompile(`(?i)\b(?:gateway|gw)\b.*?\b(?P<gateway>[A-Za-z0-9\-._]+)`)
	userRegex    = regexp.MustCompile(`(?i)\buser(?:name)?[=:]\s*(?P<user>[A-Za-z0-9.\-_\\@]+)`)
	ipv4Regex    = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)\.){3}(?:25[0-5]|2[0-4]\d|1?\d?\d)\b`)
)

// Classification — результат разбора одной строки классификатором
type Classification struct {
	EventType string
	Component string
	Reason    string
	Portal    string
	Gateway   string
	User      string
	ClientIP  string
}

// Classify прогоняет строку по таблице правил и экстракторам полей.
// Если ни одно правило не подошло — тип "error", компонент "unknown".
func Classify(line string) Classification {
	c := Classification{EventType: models.EventError, Component: models.ComponentUnknown}
	for _, r := range rules {
		if r.re.MatchString(line) {
			c.EventType, c.Component, c.Reason = r.eventType, r.component, r.reason
			break
		}
	}
	c.Portal = submatch(portalRegex, line, 1)
	c.Gateway = submatch(gatewayRegex, line, 1)
	c.User = submatch(userRegex, line, 1)
	c.ClientIP = submatch(ipv4Regex, line, 0)
	return c
}

// Severity определяет уровень по подстрокам без учёта регистра.
// Порядок проверок важен: INFO, затем ERR, затем WARN.
func Severity(line string) string {
	upper := strings.ToUpper(line)
	switch {
	case strings.Contains(upper, "INFO"):
		return models.SeverityInfo
	case strings.Contains(upper, "ERR"):
		return models.SeverityError
	case strings.Contains(upper, "WARN"):
		return models.SeverityWarn
	}
	return ""
}

func submatch(re *regexp.Regexp, s string, group int) string {
	m := re.FindStringSubmatch(s)
	if len(m) <= group {
		return ""
	}
	return m[group]
}

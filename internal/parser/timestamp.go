package parser

import (
	"regexp"
	"time"
)

// tsRegex находит дату-время вида 2025-08-01 10:00:00[.ffffff], допускает "/" и "T"
var tsRegex = regexp.MustCompile(`\d{4}[-/]\d{2}[-/]\d{2}[ T]\d{2}:\d{2}:\d{2}(?:\.\d{1,6})?`)

// tsLayouts перебираются по порядку, побеждает первый успешный.
// Дробная часть секунд после 05 принимается time.Parse без явного указания в формате.
var tsLayouts = []string{
	"2006/01/02 15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02T15:04:05",
	"2006-01-02T15:04:05",
}

// ExtractTimestamp ищет в строке метку времени и разбирает её.
// Часовой пояс не определяется: время считается "наивным" и хранится в UTC.
// Возвращает false, если метки нет или она не разбирается.
func ExtractTimestamp(line string) (time.Time, bool) {
	raw := tsRegex.FindString(line)
	if raw == "" {
		return time.Time{}, false
	}
	return parseTimestamp(raw)
}

// ParseTime разбирает границы окна --since/--until.
// Кроме полного формата принимает дату без секунд и просто дату.
func ParseTime(s string) (time.Time, bool) {
	if ts, ok := parseTimestamp(s); ok {
		return ts, true
	}
	for _, layout := range []string{
		"2006-01-02 15:04", "2006/01/02 15:04", "2006-01-02T15:04",
		"2006-01-02", "2006/01/02",
	} {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range tsLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"VPNLogSift/internal/models"
	"VPNLogSift/internal/transform"
)

// SessionColumns — заголовок CSV с сессиями
var SessionColumns = []string{
	"session_id", "start_ts", "end_ts", "outcome", "fail_reason", "fail_detail",
	"portal", "gateway", "user", "client_ip", "reconnects",
	"portal_ms", "auth_ms", "gateway_ms", "tunnel_ms",
}

// WriteEventsFile пишет события в файл: .ndjson — построчно, иначе JSON-массив
func WriteEventsFile(path string, events []models.Event, redact bool) error {
	write := WriteEventsJSON
	if strings.HasSuffix(strings.ToLower(path), ".ndjson") {
		write = WriteEventsNDJSON
	}
	return writeFile(path, func(w io.Writer) error { return write(w, events, redact) })
}

// WriteSessionsFile пишет сессии в CSV-файл
func WriteSessionsFile(path string, sessions []models.Session, redact bool) error {
	return writeFile(path, func(w io.Writer) error { return WriteSessionsCSV(w, sessions, redact) })
}

// WriteEventsNDJSON — один JSON-объект на строку
func WriteEventsNDJSON(w io.Writer, events []models.Event, redact bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, ev := range events {
		if err := enc.Encode(transform.TransformEvent(ev, redact)); err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
	}
	return nil
}

// WriteEventsJSON — массив с отступом в два пробела
func WriteEventsJSON(w io.Writer, events []models.Event, redact bool) error {
	rows := make([]transform.EventRow, 0, len(events))
	for _, ev := range events {
		rows = append(rows, transform.TransformEvent(ev, redact))
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	return nil
}

// WriteSessionsCSV пишет заголовок и по строке на сессию; отсутствующие значения — пустые ячейки
func WriteSessionsCSV(w io.Writer, sessions []models.Session, redact bool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SessionColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range sessions {
		row := transform.TransformSession(s, redact)
		record := []string{
			strconv.Itoa(row.SessionID),
			row.StartTS,
			row.EndTS,
			row.Outcome,
			str(row.FailReason),
			str(row.FailDetail),
			str(row.Portal),
			str(row.Gateway),
			str(row.User),
			str(row.ClientIP),
			strconv.Itoa(row.Reconnects),
			num(row.PortalMs),
			num(row.AuthMs),
			num(row.GatewayMs),
			num(row.TunnelMs),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", row.SessionID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeFile открывает файл, пишет через bufio и гарантирует Flush/Close
func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func num(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

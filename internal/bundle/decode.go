package bundle

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// hasBOM — файл начинается с BOM (UTF-8 или UTF-16)
func hasBOM(data []byte) bool {
	return bytes.HasPrefix(data, bomUTF8) || hasUTF16BOM(data)
}

func hasUTF16BOM(data []byte) bool {
	return bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE)
}

// DecodeText переводит содержимое файла в UTF-8.
// Порядок: BOM (UTF-8/UTF-16) -> корректный UTF-8 как есть -> Windows-1252.
func DecodeText(data []byte) string {
	if hasBOM(data) {
		// BOMOverride сам выбирает кодировку по BOM и срезает его
		dec := unicode.BOMOverride(encoding.Nop.NewDecoder())
		out, _, err := transform.Bytes(dec, data)
		if err == nil {
			return strings.TrimPrefix(strings.ToValidUTF8(string(out), ""), "\uFEFF")
		}
	}
	if utf8.Valid(data) {
		return string(data)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "")
	}
	return string(out)
}

// decodeLine — то же для одной строки файла без BOM
func decodeLine(s string) string {
	s = strings.TrimRight(s, "\r")
	if utf8.ValidString(s) {
		return s
	}
	out, err := charmap.Windows1252.NewDecoder().String(s)
	if err != nil {
		return strings.ToValidUTF8(s, "")
	}
	return out
}

// SplitLines режет текст на строки по \n, отбрасывая \r и хвостовую пустую строку
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}

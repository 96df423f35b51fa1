package bundle

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"

	"VPNLogSift/internal/stream"
)

// ErrNoLogs — в архиве или каталоге нет ни одного подходящего файла
var ErrNoLogs = errors.New("no GlobalProtect log files found")

// Bundle — набор источников строк из одного архива или каталога
type Bundle struct {
	Path    string
	Sources []stream.Source
	closer  io.Closer
}

// Close освобождает архив
func (b *Bundle) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// OpenZip открывает архив с логами и готовит источники для выбранных файлов.
// Файлы читаются лениво, при вызове Source.Load.
func OpenZip(zipPath string, wanted []string) (*Bundle, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", zipPath, err)
	}

	members := make(map[string]*zip.File, len(zr.File))
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		members[f.Name] = f
		names = append(names, f.Name)
	}

	picked := selectNames(names, wanted)
	if len(picked) == 0 {
		zr.Close()
		return nil, fmt.Errorf("%s: %w", zipPath, ErrNoLogs)
	}

	b := &Bundle{Path: zipPath, closer: zr}
	for _, name := range picked {
		f := members[name]
		b.Sources = append(b.Sources, stream.Source{
			ID:   name,
			Load: func() ([]string, error) { return readMember(f) },
		})
	}
	return b, nil
}

func readMember(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open member %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read member %s: %w", f.Name, err)
	}
	return SplitLines(DecodeText(data)), nil
}

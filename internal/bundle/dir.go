package bundle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpcloud/tail"

	"VPNLogSift/internal/stream"
)

// OpenDir собирает источники из распакованного каталога с логами
func OpenDir(dir string, wanted []string) (*Bundle, error) {
	var names []string
	err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	picked := selectNames(names, wanted)
	if len(picked) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoLogs)
	}

	b := &Bundle{Path: dir}
	for _, name := range picked {
		full := filepath.Join(dir, filepath.FromSlash(name))
		b.Sources = append(b.Sources, stream.Source{
			ID:   name,
			Load: func() ([]string, error) { return readTail(full) },
		})
	}
	return b, nil
}

// readTail вычитывает файл целиком через tail без слежения за дописыванием.
// Файлы в UTF-16 построчно не декодируются, их читаем целиком.
func readTail(path string) ([]string, error) {
	utf16, err := startsWithUTF16BOM(path)
	if err != nil {
		return nil, err
	}
	if utf16 {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return SplitLines(DecodeText(data)), nil
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:    false,
		MustExist: true,
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekStart},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("tail %s: %w", path, err)
	}
	defer t.Cleanup()

	var lines []string
	for line := range t.Lines {
		if line.Err != nil {
			t.Stop()
			return nil, fmt.Errorf("tail %s: %w", path, line.Err)
		}
		text := line.Text
		if len(lines) == 0 {
			text = strings.TrimPrefix(text, "\uFEFF")
		}
		lines = append(lines, decodeLine(text))
	}
	if err := t.Wait(); err != nil {
		return nil, fmt.Errorf("tail %s: %w", path, err)
	}
	return lines, nil
}

func startsWithUTF16BOM(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	head := make([]byte, 2)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	return hasUTF16BOM(head[:n]), nil
}

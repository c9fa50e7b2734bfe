package batch

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// processedLog records frames whose records have been written, one path per
// line. A path is appended only after the frame's records reach the sink.
type processedLog struct {
	done map[string]struct{}
	f    *os.File
}

// openProcessed loads the paths already listed at path and opens the file
// for appending. An empty path gives a log that remembers nothing on disk.
func openProcessed(path string) (*processedLog, error) {
	l := &processedLog{done: make(map[string]struct{})}
	if path == "" {
		return l, nil
	}

	if data, err := os.Open(path); err == nil {
		sc := bufio.NewScanner(data)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				l.done[line] = struct{}{}
			}
		}
		err := sc.Err()
		data.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read processed log: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to open processed log: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open processed log: %w", err)
	}
	l.f = f
	return l, nil
}

func (l *processedLog) has(path string) bool {
	_, ok := l.done[path]
	return ok
}

func (l *processedLog) mark(path string) error {
	l.done[path] = struct{}{}
	if l.f == nil {
		return nil
	}
	if _, err := fmt.Fprintln(l.f, path); err != nil {
		return fmt.Errorf("failed to update processed log: %w", err)
	}
	return nil
}

func (l *processedLog) Close() error {
	if l.f == nil {
		return nil
	}
	return l.f.Close()
}

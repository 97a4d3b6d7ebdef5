// Package tracelog saves framed traffic to daily-rotating CSV files,
// generalized from the teacher's log_init/log_write pair (src/log.go)
// from per-packet APRS fields to per-frame PPPoS fields, and from
// manual date formatting to lestrrat-go/strftime.
package tracelog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lestrrat-go/strftime"
)

// Direction distinguishes received frames from transmitted ones in the
// trace.
type Direction string

const (
	RX Direction = "RX"
	TX Direction = "TX"
)

const namePattern = "pppos-%Y%m%d.csv"

// Log writes one row per frame to a daily file under Dir. Dir == ""
// disables tracing entirely, matching the teacher's "empty string
// disables feature" convention.
type Log struct {
	dir  string
	now  func() time.Time
	pat  *strftime.Strftime

	mu       sync.Mutex
	fp       *os.File
	w        *csv.Writer
	openName string
}

// Open prepares a Log rooted at dir, creating dir if it does not
// exist. An empty dir returns a Log whose Write is a no-op.
func Open(dir string) (*Log, error) {
	if dir == "" {
		return &Log{}, nil
	}

	pat, err := strftime.New(namePattern)
	if err != nil {
		return nil, fmt.Errorf("tracelog: compile name pattern: %w", err)
	}

	if stat, err := os.Stat(dir); err == nil {
		if !stat.IsDir() {
			return nil, fmt.Errorf("tracelog: %s exists and is not a directory", dir)
		}
	} else if os.IsNotExist(err) {
		if err := os.Mkdir(dir, 0o755); err != nil {
			return nil, fmt.Errorf("tracelog: create %s: %w", dir, err)
		}
	} else {
		return nil, fmt.Errorf("tracelog: stat %s: %w", dir, err)
	}

	return &Log{dir: dir, now: time.Now, pat: pat}, nil
}

// Write appends one row: timestamp, direction, protocol, frame length,
// and whether the frame was accepted. It rotates to a new file at UTC
// midnight.
func (l *Log) Write(dir Direction, protocol uint16, length int, ok bool) error {
	if l.dir == "" {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	name := l.pat.FormatString(now.UTC())
	if name != l.openName {
		if err := l.rotate(name); err != nil {
			return err
		}
	}

	record := []string{
		now.Format(time.RFC3339Nano),
		string(dir),
		fmt.Sprintf("0x%04x", protocol),
		fmt.Sprintf("%d", length),
		fmt.Sprintf("%t", ok),
	}
	if err := l.w.Write(record); err != nil {
		return fmt.Errorf("tracelog: write row: %w", err)
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *Log) rotate(name string) error {
	if l.fp != nil {
		l.w.Flush()
		l.fp.Close()
	}

	full := filepath.Join(l.dir, name)
	_, statErr := os.Stat(full)
	needsHeader := os.IsNotExist(statErr)

	fp, err := os.OpenFile(full, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("tracelog: open %s: %w", full, err)
	}

	l.fp = fp
	l.w = csv.NewWriter(fp)
	l.openName = name

	if needsHeader {
		if err := l.w.Write([]string{"timestamp", "direction", "protocol", "length", "accepted"}); err != nil {
			return fmt.Errorf("tracelog: write header: %w", err)
		}
		l.w.Flush()
	}
	return nil
}

// Close flushes and closes the currently open file, if any.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fp == nil {
		return nil
	}
	l.w.Flush()
	err := l.fp.Close()
	l.fp = nil
	return err
}

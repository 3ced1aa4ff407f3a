// Package log writes the append-only tick record: one JSON line per digest,
// zstd-compressed, rotated hourly. These files are the source of truth for
// replay; the sqlite index is a secondary view.
package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"colonycraft/internal/protocol"
)

// A segment is one hour of digests in a single compressed file.
type segment struct {
	key string
	f   *os.File
	enc *zstd.Encoder
	buf *bufio.Writer
}

func openSegment(dir, key string) (*segment, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "ticks-"+key+".jsonl.zst")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &segment{key: key, f: f, enc: enc, buf: bufio.NewWriterSize(enc, 128*1024)}, nil
}

func (s *segment) close() error {
	_ = s.buf.Flush()
	err := s.enc.Close()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// TickLogger appends digests under <dataDir>/ticks.
type TickLogger struct {
	dir string

	mu  sync.Mutex
	seg *segment
	now func() time.Time
}

func NewTickLogger(dataDir string) *TickLogger {
	return &TickLogger{dir: filepath.Join(dataDir, "ticks"), now: time.Now}
}

func (l *TickLogger) WriteTick(d protocol.TickDigest) error {
	line, err := json.Marshal(d)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	key := l.now().UTC().Format("2006-01-02-15")
	if l.seg == nil || l.seg.key != key {
		if l.seg != nil {
			if err := l.seg.close(); err != nil {
				return err
			}
			l.seg = nil
		}
		seg, err := openSegment(l.dir, key)
		if err != nil {
			return err
		}
		l.seg = seg
	}
	if _, err := l.seg.buf.Write(line); err != nil {
		return err
	}
	return l.seg.buf.Flush()
}

func (l *TickLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seg == nil {
		return nil
	}
	err := l.seg.close()
	l.seg = nil
	return err
}

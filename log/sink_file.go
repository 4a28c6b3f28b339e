package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileSink appends one human-readable line per entry to a file opened in
// append mode, matching spec §4.4's file sink. mu serializes writers within
// this process so no message interleaves with another; O_APPEND makes each
// underlying write land at the current end of file even if another process
// shares it, and formatting the whole line before the single Write call
// keeps that append atomic for any one message.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileSink opens (creating if necessary) path for appending and returns a
// Sink writing to it. The caller is responsible for calling Close when done.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}

	return &FileSink{file: f}, nil
}

func (s *FileSink) Write(e Entry) {
	line := fmt.Sprintf("%s [%s] %s +%dus (conn=%s task=%s) %s:%d %s\n",
		e.Time.Format(time.RFC3339Nano), e.Level, e.Logger, e.ElapsedMicros,
		e.Connection, e.Task, filepath.Base(e.SourceFile), e.SourceLine, e.Message)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.file.WriteString(line)
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

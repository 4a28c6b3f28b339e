package log

import (
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// JSONSink writes one JSON object per line, the structured-log role the
// teacher's own jsoniter usage plays for HTTP response bodies (DOMAIN STACK).
type JSONSink struct {
	mu     sync.Mutex
	w      io.Writer
	stream *jsoniter.Stream
}

func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{
		w:      w,
		stream: jsoniter.ConfigCompatibleWithStandardLibrary.BorrowStream(w),
	}
}

type jsonEntry struct {
	Time          string `json:"time"`
	Logger        string `json:"logger"`
	Level         string `json:"level"`
	Message       string `json:"message"`
	Connection    string `json:"connection,omitempty"`
	Task          string `json:"task,omitempty"`
	ElapsedMicros int64  `json:"elapsed_us"`
	SourceFile    string `json:"source_file"`
	SourceLine    int    `json:"source_line"`
}

func (s *JSONSink) Write(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stream.Reset(s.w)
	s.stream.WriteVal(jsonEntry{
		Time:          e.Time.Format("2006-01-02T15:04:05.000Z07:00"),
		Logger:        e.Logger,
		Level:         e.Level.String(),
		Message:       e.Message,
		Connection:    e.Connection,
		Task:          e.Task,
		ElapsedMicros: e.ElapsedMicros,
		SourceFile:    e.SourceFile,
		SourceLine:    e.SourceLine,
	})
	s.stream.WriteRaw("\n")
	s.stream.Flush()
}

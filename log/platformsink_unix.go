//go:build unix

package log

import (
	"fmt"
	"log/syslog"
	"path/filepath"
)

// PlatformSink hands entries to the best available OS-native log facility
// (ADDITIONS item 7): syslog on unix, a stderr fallback elsewhere.
type PlatformSink struct {
	w *syslog.Writer
}

// NewPlatformSink opens a syslog writer tagged with the process name. If
// syslog isn't reachable (e.g. no syslogd running), it falls back to the
// portable stderr sink so logging never becomes fatal to the caller.
func NewPlatformSink(tag string) Sink {
	w, err := syslog.New(syslog.LOG_INFO, tag)
	if err != nil {
		return newFallbackSink()
	}

	return &PlatformSink{w: w}
}

func (s *PlatformSink) Write(e Entry) {
	line := fmt.Sprintf("%s +%dus %s %s:%d %s", e.Time.Format("15:04:05.000"),
		e.ElapsedMicros, e.Logger, filepath.Base(e.SourceFile), e.SourceLine, e.Message)

	switch {
	case e.Level == FATAL || e.Level == ERROR:
		s.w.Err(line)
	case e.Level == WARNING:
		s.w.Warning(line)
	default:
		s.w.Info(line)
	}
}

//go:build !unix

package log

// NewPlatformSink falls back to a stderr sink on platforms with no
// syslog-equivalent this module knows how to reach (ADDITIONS item 7).
func NewPlatformSink(tag string) Sink {
	return newFallbackSink()
}

// Package log implements the hierarchical logger tree of spec §4.4: a
// process-wide registry of colon-separated names ("mordor:http:client"),
// each with its own level, its own sinks (optionally inherited from an
// ancestor), and messages that carry a per-connection id and per-exchange
// task handle instead of an OS thread id or fiber pointer.
package log

import (
	"context"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dchest/uniuri"
)

// processStart anchors Entry.ElapsedMicros (spec §4.4's sink capability set):
// microseconds since this process's log package was first touched, standing
// in for the original's monotonic-clock-since-boot elapsed field.
var processStart = time.Now()

// Logger is one node of the tree. The zero value is not usable; obtain one
// via Root or a parent's Child.
type Logger struct {
	mu           sync.RWMutex
	name         string
	fullName     string
	parent       *Logger
	children     map[string]*Logger
	level        Level
	sinks        []Sink
	inheritSinks bool
}

var (
	rootOnce sync.Once
	root     *Logger
)

// Root returns the process-wide root logger, created on first use at INFO
// with a single stdout sink and inheritSinks enabled, matching the teacher's
// convention of a sane, immediately-usable default logger.
func Root() *Logger {
	rootOnce.Do(func() {
		root = &Logger{
			children:     make(map[string]*Logger),
			level:        INFO,
			sinks:        []Sink{NewStdoutSink(os.Stdout)},
			inheritSinks: true,
		}
	})

	return root
}

// Get navigates (creating as needed) the colon-separated path under Root,
// e.g. Get("mordor:http:client") returns the same *Logger every time.
func Get(path string) *Logger {
	l := Root()
	if path == "" {
		return l
	}

	for _, segment := range strings.Split(path, ":") {
		l = l.Child(segment)
	}

	return l
}

// Child returns (creating if needed) the direct child logger named name. A
// new child inherits its parent's level, has no sinks of its own, and has
// inheritSinks set, so its messages reach its ancestors' sinks (see
// resolvedSinks).
func (l *Logger) Child(name string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.children == nil {
		l.children = make(map[string]*Logger)
	}

	if child, ok := l.children[name]; ok {
		return child
	}

	full := name
	if l.fullName != "" {
		full = l.fullName + ":" + name
	}

	child := &Logger{
		name:         name,
		fullName:     full,
		parent:       l,
		children:     make(map[string]*Logger),
		level:        l.level,
		inheritSinks: true,
	}
	l.children[name] = child

	return child
}

// sortedChildren returns this logger's children ordered by name, the Go
// stand-in for the original's std::set<Logger*, ByName> (ADDITIONS item 6).
func (l *Logger) sortedChildren() []*Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.children))
	for name := range l.children {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Logger, len(names))
	for i, name := range names {
		out[i] = l.children[name]
	}

	return out
}

// SetLevel changes this logger's threshold. If propagate is true, every
// descendant is set to the same level too (ADDITIONS item 5).
func (l *Logger) SetLevel(level Level, propagate bool) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()

	if propagate {
		for _, child := range l.sortedChildren() {
			child.SetLevel(level, true)
		}
	}
}

// SetSinks replaces this logger's own sink list. If inherit is true, entries
// are also delivered to ancestor sinks, climbing until (and including) the
// first ancestor whose own inheritSinks is false, each ancestor's sinks gated
// by that ancestor's own level (see resolvedSinks); if false, this logger's
// sinks are the only ones that see its messages.
func (l *Logger) SetSinks(sinks []Sink, inherit bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sinks = sinks
	l.inheritSinks = inherit
}

// resolvedSinks walks from this logger up to the root, collecting sinks
// until a logger with inheritSinks=false is reached (inclusive). Each
// ancestor's own sinks are only included if that ancestor's own threshold
// would itself let level through: inheritSinks says whose sinks join the
// delivery set, not that an ancestor's level requirement is waived (spec §8
// scenario 6: a child logging at TRACE must not wake a root sink whose own
// level is INFO, even though the child inherits from it).
func (l *Logger) resolvedSinks(level Level) []Sink {
	l.mu.RLock()
	threshold := l.level
	inherit := l.inheritSinks
	parent := l.parent
	var own []Sink
	if enabled(threshold, level) {
		own = append([]Sink(nil), l.sinks...)
	}
	l.mu.RUnlock()

	if !inherit || parent == nil {
		return own
	}

	return append(own, parent.resolvedSinks(level)...)
}

func (l *Logger) threshold() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// Log emits a message at level if the logger's threshold allows it and ctx
// isn't derived from Disable (spec §4.4, ADDITIONS item 4).
func (l *Logger) Log(ctx context.Context, level Level, connection, task, message string) {
	if disabled(ctx) || !enabled(l.threshold(), level) {
		return
	}

	now := time.Now()
	file, line := caller(3)

	entry := Entry{
		Time:          now,
		Logger:        l.fullName,
		Level:         level,
		Message:       message,
		Connection:    connection,
		Task:          task,
		ElapsedMicros: now.Sub(processStart).Microseconds(),
		SourceFile:    file,
		SourceLine:    line,
	}

	for _, sink := range l.resolvedSinks(level) {
		sink.Write(entry)
	}
}

// caller reports the file and line skip frames up the stack from caller
// itself (skip=0 is caller, 1 is its caller), used to populate Entry's
// sourceFile/sourceLine (spec §4.4). Called from Log with
// skip=3, landing on whichever application code invoked the exported level
// method (Debug, Trace, ...) that in turn called Log.
func caller(skip int) (file string, line int) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "", 0
	}

	return file, line
}

func (l *Logger) Fatal(ctx context.Context, connection, task, message string) {
	l.Log(ctx, FATAL, connection, task, message)
}

func (l *Logger) Error(ctx context.Context, connection, task, message string) {
	l.Log(ctx, ERROR, connection, task, message)
}

func (l *Logger) Warning(ctx context.Context, connection, task, message string) {
	l.Log(ctx, WARNING, connection, task, message)
}

func (l *Logger) Info(ctx context.Context, connection, task, message string) {
	l.Log(ctx, INFO, connection, task, message)
}

func (l *Logger) Verbose(ctx context.Context, connection, task, message string) {
	l.Log(ctx, VERBOSE, connection, task, message)
}

func (l *Logger) Debug(ctx context.Context, connection, task, message string) {
	l.Log(ctx, DEBUG, connection, task, message)
}

func (l *Logger) Trace(ctx context.Context, connection, task, message string) {
	l.Log(ctx, TRACE, connection, task, message)
}

// NewHandle returns a short random token standing in for the original's
// thread id / fiber pointer pair (ADDITIONS item 3). ClientConnection takes
// one as its connection id; no per-exchange task handle is generated, and
// ClientRequest logs with an empty task.
func NewHandle() string {
	return uniuri.NewLen(8)
}

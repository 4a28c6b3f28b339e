package log

import "context"

type disablerKey struct{}

// Disable returns a context under which every Logger call is silenced. It is
// task-scoped rather than global (ADDITIONS item 4): carried through the one
// goroutine-per-exchange model in client/internal/sched, so disabling logging
// for one exchange never silences a sibling exchange sharing the connection.
func Disable(ctx context.Context) context.Context {
	return context.WithValue(ctx, disablerKey{}, true)
}

func disabled(ctx context.Context) bool {
	v, _ := ctx.Value(disablerKey{}).(bool)
	return v
}

package logging

import (
	"context"
	"sync"
)

// OnceReporter emits each distinct warning a single time for the lifetime of
// the reporter. Create one per process and hand it to the components that
// need it.
type OnceReporter struct {
	logger Logger
	seen   sync.Map
}

func NewOnceReporter(l Logger) *OnceReporter {
	return &OnceReporter{logger: l}
}

// WarnOnce logs msg at warn level the first time key is seen.
func (r *OnceReporter) WarnOnce(key, msg string, args ...any) {
	if _, loaded := r.seen.LoadOrStore(key, struct{}{}); loaded {
		return
	}
	r.logger.Warn(context.Background(), msg, append([]any{"warning", key}, args...)...)
}

// Package log is a thin structured-logging facade over zap, following the
// injectable-singleton pattern the pack uses for shared ambient services:
// a package-level default that callers may override with SetLogger.
package log

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu      sync.RWMutex
	current *zap.SugaredLogger
)

func init() {
	base, err := zap.NewProduction()
	if err != nil {
		base = zap.NewNop()
	}
	current = base.Sugar()
}

// SetLogger overrides the package-level logger. Intended for callers who
// want the core's scan/policy log lines routed into their own zap instance.
func SetLogger(l *zap.SugaredLogger) {
	mu.Lock()
	defer mu.Unlock()
	current = l
}

// Default returns the active logger.
func Default() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

package codec

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

func init() {
	logger.Store(zap.NewNop())
}

// Logger returns the codec's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	return logger.Load()
}

// SetLogger installs l as the codec logger. A nil logger restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

// debugEnabled is checked before building log fields on decode paths
func debugEnabled() bool {
	return Logger().Core().Enabled(zap.DebugLevel)
}

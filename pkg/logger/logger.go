package logger

import (
	"go.uber.org/zap"
)

var Log *zap.SugaredLogger

// New builds the process-wide logger. Called once from main; packages that
// run before main finishes wiring fall back to a no-op logger.
func New() *zap.SugaredLogger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	Log = l.Sugar()
	return Log
}

func init() {
	Log = zap.NewNop().Sugar()
}

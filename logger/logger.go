package logger

import (
	"go.uber.org/zap"
)

// Log is a no-op logger until Init is called, so packages can log from tests.
var Log = zap.NewNop().Sugar()

// Init installs the process logger. Debug builds get the development encoder
// and debug level.
func Init(debug bool) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Log.Sync()
}

package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the console logger used by the CLI. Verbose lowers the level
// to debug, quiet raises it to error so only genuine failures reach the
// terminal; both set leaves it at info.
func New(verbose, quiet bool) *zap.Logger {
	return NewWithWriter(os.Stderr, verbose, quiet)
}

// NewWithWriter is New with an explicit sink, used by tests to capture output.
func NewWithWriter(w io.Writer, verbose, quiet bool) *zap.Logger {
	level := zapcore.InfoLevel
	switch {
	case verbose:
		level = zapcore.DebugLevel
	case quiet:
		level = zapcore.ErrorLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core)
}

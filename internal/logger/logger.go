package logger

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names used across apigen log lines.
const (
	FieldMethod    = "method"
	FieldErrorCode = "error_code"
	FieldError     = "error"
	FieldCount     = "count"
	FieldFile      = "file"
	FieldSource    = "source"
	FieldLang      = "lang"
)

// Verbosity levels for the -v flag count.
const (
	VerbosityUser  = 0 // warnings and errors only
	VerbosityInfo  = 1 // -v: progress and per-phase counts
	VerbosityDebug = 2 // -vv: per-method and per-object detail
)

// VerbosityToLevel maps a -v count to a zap level.
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= VerbosityUser:
		return zapcore.WarnLevel
	case verbosity == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// New builds a console logger writing to w at the level derived from verbosity.
// Timestamps are omitted so output is stable across runs.
func New(w io.Writer, verbosity int) *zap.SugaredLogger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.CallerKey = ""
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.AddSync(w),
		VerbosityToLevel(verbosity),
	)
	return zap.New(core).Sugar()
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger { return zap.NewNop().Sugar() }

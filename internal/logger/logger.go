// Package logger holds the process-wide structured logger.
//
// The logger is a no-op until Initialize is called, so library packages
// can log unconditionally. Output goes to stderr: in worker processes
// stdout carries the progress protocol.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the global logger instance.
var Logger *zap.SugaredLogger

func init() {
	Logger = zap.NewNop().Sugar()
}

// Options configures Initialize.
type Options struct {
	// Verbose enables debug output
	Verbose bool

	// JSON switches to production JSON encoding
	JSON bool

	// Output defaults to os.Stderr
	Output io.Writer
}

// Initialize replaces the global logger.
func Initialize(opts Options) {
	Logger = New(opts)
}

// New builds a logger without installing it.
func New(opts Options) *zap.SugaredLogger {
	level := zap.InfoLevel
	if opts.Verbose {
		level = zap.DebugLevel
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var encoder zapcore.Encoder
	if opts.JSON {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.CallerKey = ""
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(out), level)
	return zap.New(core).Sugar()
}

// Named returns a child of the global logger for one component.
func Named(component string) *zap.SugaredLogger {
	return Logger.Named(component)
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Logger.Sync()
}

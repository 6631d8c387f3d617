// Package logger builds the zap logger shared by the binaries
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing info (and debug when enabled) entries to
// stdout and warn, error and fatal entries to stderr
func New(debug bool) *zap.Logger {

	// debug and info level enabler
	lowLevel := zap.LevelEnablerFunc(func(level zapcore.Level) bool {
		if debug {
			return level == zapcore.DebugLevel || level == zapcore.InfoLevel
		}
		return level == zapcore.InfoLevel
	})

	// warn, error and fatal level enabler
	highLevel := zap.LevelEnablerFunc(func(level zapcore.Level) bool {
		return level >= zapcore.WarnLevel
	})

	encCfg := zap.NewProductionEncoderConfig()

	if debug {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}

	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.Lock(os.Stdout), lowLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.Lock(os.Stderr), highLevel),
	)

	return zap.New(core, zap.AddCaller())
}

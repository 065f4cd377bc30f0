// Package logger wires the process-wide zap logger with optional file
// rotation. Components take a *zap.SugaredLogger and default to S().
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var sugaredLogger *zap.SugaredLogger

// Options controls where logs go and how files rotate.
type Options struct {
	Level      string // debug | info | warn | error
	Output     string // console | file | both
	File       string // log file path, used when Output includes file
	MaxSizeMB  int    // rotate after this many megabytes
	MaxBackups int    // rotated files to keep
	MaxAgeDays int    // days to keep rotated files
	Compress   bool   // gzip rotated files
}

// Init builds the global logger. Safe to call once at process start;
// components created before Init fall back to a development logger.
func Init(opts Options) {
	logLevel := zap.NewAtomicLevel()
	if err := logLevel.UnmarshalText([]byte(opts.Level)); err != nil {
		logLevel.SetLevel(zap.InfoLevel)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig)

	var cores []zapcore.Core

	output := strings.ToLower(opts.Output)
	if output == "file" || output == "both" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(rotating), logLevel))
	}
	if output == "console" || output == "both" || len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), logLevel))
	}

	core := zapcore.NewTee(cores...)
	sugaredLogger = zap.New(core, zap.AddCaller()).Sugar()
}

// S returns the global sugared logger, or a development fallback when Init
// has not run yet.
func S() *zap.SugaredLogger {
	if sugaredLogger == nil {
		fallback, _ := zap.NewDevelopment()
		return fallback.Sugar()
	}
	return sugaredLogger
}

// Sync flushes buffered log entries, for use on shutdown.
func Sync() {
	if sugaredLogger != nil {
		_ = sugaredLogger.Sync()
	}
}

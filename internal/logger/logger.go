// Package logger holds the process-wide zap logger and the field names shared
// by every package.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultLogFile = "server.log"

// Log stays a no-op until Initialize runs, so tests can log freely
var Log = zap.NewNop()

// Initialize replaces Log with a logger that prints readable lines to stdout
// and JSON to a rotated file. Empty arguments mean info level and server.log.
func Initialize(level, file string) error {
	if file == "" {
		file = defaultLogFile
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	lvl := parseLogLevel(level)
	Log = zap.New(
		zapcore.NewTee(consoleCore(lvl), fileCore(file, lvl)),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	Log.Info("Logger initialized", zap.Stringer("level", lvl), zap.String("file", file))
	return nil
}

func consoleCore(lvl zapcore.Level) zapcore.Core {
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl)
}

func fileCore(path string, lvl zapcore.Level) zapcore.Core {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}
	return zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotator), lvl)
}

// Close flushes buffered entries
func Close() error {
	return Log.Sync()
}

// parseLogLevel accepts debug, info, warn (or warning) and error. Anything
// else is info.
func parseLogLevel(s string) zapcore.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil || lvl > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return lvl
}

func withErr(fields []zap.Field, err error) []zap.Field {
	if err == nil {
		return fields
	}
	return append(fields, zap.Error(err))
}

// WarnWithFields logs at warn level, attaching err when non-nil
func WarnWithFields(msg string, err error, fields ...zap.Field) {
	Log.Warn(msg, withErr(fields, err)...)
}

// ErrorWithFields logs at error level, attaching err when non-nil
func ErrorWithFields(msg string, err error, fields ...zap.Field) {
	Log.Error(msg, withErr(fields, err)...)
}

// FatalWithFields logs and exits the process
func FatalWithFields(msg string, err error, fields ...zap.Field) {
	Log.Fatal(msg, withErr(fields, err)...)
}

func WithRequestID(id string) zap.Field { return zap.String("request_id", id) }

func WithUserID(id string) zap.Field { return zap.String("user_id", id) }

// WithExternalID tags a catalog (TMDB) movie id
func WithExternalID(id int) zap.Field { return zap.Int("tmdb_id", id) }

// WithUpstreamStatus tags the HTTP status returned by TMDB or the recommender
func WithUpstreamStatus(status int) zap.Field { return zap.Int("upstream_status", status) }

func WithIP(ip string) zap.Field { return zap.String("client_ip", ip) }

func WithStatus(status int) zap.Field { return zap.Int("status", status) }

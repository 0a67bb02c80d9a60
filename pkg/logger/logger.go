package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "02.01.2006 - 15:04:05.000000000Z07:00"

type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Format is console or json.
	Format string
	// File, when set, receives a JSON copy of every entry.
	File string
	// Stderr moves console output off stdout, for stdio transports.
	Stderr bool
}

// New builds a logger that tees stdout and the optional JSON file.
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var stdoutEncoder zapcore.Encoder
	if strings.EqualFold(opts.Format, "json") {
		stdoutEncoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		consoleConfig := encoderConfig
		consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		stdoutEncoder = zapcore.NewConsoleEncoder(consoleConfig)
	}

	sink := os.Stdout
	if opts.Stderr {
		sink = os.Stderr
	}
	cores := []zapcore.Core{
		zapcore.NewCore(stdoutEncoder, zapcore.AddSync(sink), level),
	}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(f), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func ParseLevel(raw string) (zapcore.Level, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(raw))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

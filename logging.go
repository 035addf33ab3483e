package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogConfig controls the process-wide zerolog logger.
type LogConfig struct {
	Level      string `json:"level"`
	Debug      bool   `json:"debug"`
	Output     string `json:"output"` // "stderr" (default) or "stdout"
	TimeFormat string `json:"time_format"`
}

func defaultLogConfig() LogConfig {
	return LogConfig{Level: "info", Output: "stderr"}
}

// applyEnv lets LOG_LEVEL, DEBUG and LOG_OUTPUT override the file.
func (c *LogConfig) applyEnv() {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Level = v
	}
	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		c.Output = v
	}
	if v := strings.ToLower(os.Getenv("DEBUG")); v != "" {
		c.Debug = v == "true" || v == "1" || v == "yes" || v == "on"
	}
}

func initLogging(cfg LogConfig) error {
	var output io.Writer = os.Stderr
	if cfg.Output == "stdout" {
		output = os.Stdout
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	} else if cfg.Level != "" {
		var err error
		level, err = zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	log.Logger = zerolog.New(output).Level(level).With().Timestamp().Logger()
	return nil
}

func withComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

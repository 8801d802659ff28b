// Package logging provides zap logger helpers for the scraper bridge.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger for a scraper process. Development mode gives
// colored console output; production mode emits JSON. The slug, when set,
// is attached to every entry so logs from several scrapers can be told apart.
func New(development bool, slug string) (*zap.Logger, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.DisableStacktrace = true
	}
	cfg.EncoderConfig.TimeKey = "ts"

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	if slug != "" {
		logger = logger.With(zap.String("scraper", slug))
	}
	return logger, nil
}

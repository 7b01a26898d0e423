package log

import (
	"os"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Module = fx.Module("log",
	fx.Provide(NewLogger),
)

// NewLogger builds a production JSON logger unless ENVIRONMENT says
// development. LOG_LEVEL overrides the level.
func NewLogger() (*zap.Logger, error) {
	var cfg zap.Config
	if strings.EqualFold(os.Getenv("ENVIRONMENT"), "development") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	if lvl := strings.TrimSpace(os.Getenv("LOG_LEVEL")); lvl != "" {
		level, err := zapcore.ParseLevel(lvl)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}
	return cfg.Build()
}

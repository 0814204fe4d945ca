package config

import (
	"os"

	"go.uber.org/zap"
)

// Logger is the process-wide structured logger. Defaults to a no-op logger so
// packages can log safely before InitLogger runs (and in tests).
var Logger = zap.NewNop()

// InitLogger configures the zap logger. Production JSON output unless GO_ENV
// says otherwise.
func InitLogger() {
	var (
		logger *zap.Logger
		err    error
	)
	if os.Getenv("GO_ENV") == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	Logger = logger
}

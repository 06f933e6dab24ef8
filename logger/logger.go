package logger

import (
	"strings"

	"github.com/iotaledger/hive.go/configuration"
	"github.com/iotaledger/hive.go/logger"
	"golang.org/x/xerrors"
)

var New = logger.NewLogger

func init() {
	if err := logger.InitGlobalLogger(configuration.New()); err != nil {
		panic(err)
	}
	logger.SetLevel(logger.LevelInfo)
}

// SetLevel changes the level of all loggers, e.g. "debug" or "warn".
func SetLevel(name string) error {
	switch strings.ToLower(name) {
	case "debug":
		logger.SetLevel(logger.LevelDebug)
	case "info":
		logger.SetLevel(logger.LevelInfo)
	case "warn", "warning":
		logger.SetLevel(logger.LevelWarn)
	case "error":
		logger.SetLevel(logger.LevelError)
	default:
		return xerrors.Errorf("unknown log level %q", name)
	}

	return nil
}

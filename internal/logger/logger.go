package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger. Usable before Init with logrus defaults.
var Logger = logrus.New()

// Init configures level and formatter. Unknown levels fall back to info.
func Init(level string) {
	Logger.SetOutput(os.Stdout)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)
}

package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide structured logger. Log ids and scalar fields, never
// whole user or order objects.
var Log = logrus.New()

func init() {
	Log.SetOutput(os.Stdout)
	Log.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		Log.SetLevel(level)
	}
}

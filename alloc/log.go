package alloc

import (
	"os"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Runtime debug flag for allocation logging, controlled by MALLOC_LOG_ALLOC.
var logAlloc = os.Getenv("MALLOC_LOG_ALLOC") != ""

var defaultLogger = &logrus.Logger{
	Out:   os.Stderr,
	Hooks: make(logrus.LevelHooks),
	Level: defaultLevel(),
	Formatter: &prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	},
	ExitFunc: os.Exit,
}

func defaultLevel() logrus.Level {
	if logAlloc {
		return logrus.DebugLevel
	}
	return logrus.WarnLevel
}

// debug reports whether allocation-path logs are enabled.
func (a *SegAllocator) debug() bool {
	return a.log.IsLevelEnabled(logrus.DebugLevel)
}

func (a *SegAllocator) entry() *logrus.Entry {
	return a.log.WithField("prefix", "alloc")
}

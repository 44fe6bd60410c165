package logger

import (
	"io"
	"os"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

var logger log.Logger
var output io.Writer = os.Stdout
var logLevel = os.Getenv("LOG_LEVEL")
var lock = &sync.Mutex{}

func GetLogger() log.Logger {
	lock.Lock()
	defer lock.Unlock()

	// create one shared logger
	if logger == nil {
		logger = log.NewLogfmtLogger(log.NewSyncWriter(output))
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = level.NewFilter(logger, levelOption(logLevel))
	}

	return logger
}

// SetOutput redirects log lines, mostly so tests can capture them
func SetOutput(w io.Writer) {
	lock.Lock()
	defer lock.Unlock()

	output = w
	logger = nil
}

// SetLevel overrides LOG_LEVEL once config has been loaded
func SetLevel(name string) {
	lock.Lock()
	defer lock.Unlock()

	logLevel = name
	logger = nil
}

func levelOption(name string) level.Option {
	switch name {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

func Debug(msg string, keyvals ...interface{}) {
	level.Debug(GetLogger()).Log(prependMsg(msg, keyvals...)...)
}

func Info(msg string, keyvals ...interface{}) {
	level.Info(GetLogger()).Log(prependMsg(msg, keyvals...)...)
}

func Warn(msg string, keyvals ...interface{}) {
	level.Warn(GetLogger()).Log(prependMsg(msg, keyvals...)...)
}

func Error(msg string, keyvals ...interface{}) {
	level.Error(GetLogger()).Log(prependMsg(msg, keyvals...)...)
}

func prependMsg(msg string, keyvals ...interface{}) []interface{} {
	return append([]interface{}{"msg", msg}, keyvals...)
}

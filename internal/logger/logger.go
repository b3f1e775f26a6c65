package logger

import (
	"os"

	"github.com/op/go-logging"
)

const module = "roulette"

var logger *logging.Logger

func init() {
	InitLogger(logging.INFO)
}

// InitLogger настраивает вывод логов в stderr с указанным уровнем
func InitLogger(level logging.Level) {
	newLogger := logging.MustGetLogger(module)
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	format := logging.MustStringFormatter(`%{time:2006/01/02 15:04:05} %{level} - %{message}`)
	backendFormatter := logging.NewBackendFormatter(backend, format)
	backendLeveled := logging.AddModuleLevel(backendFormatter)
	backendLeveled.SetLevel(level, module)
	newLogger.SetBackend(backendLeveled)

	logger = newLogger
}

// ParseLevel разбирает уровень из строки (DEBUG, INFO, WARNING, ERROR). Пустая строка означает INFO.
func ParseLevel(s string) (logging.Level, error) {
	if s == "" {
		return logging.INFO, nil
	}
	return logging.LogLevel(s)
}

func Debug(args ...interface{}) {
	logger.Debug(args...)
}

func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

func Info(args ...interface{}) {
	logger.Info(args...)
}

func Infof(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

func Warning(args ...interface{}) {
	logger.Warning(args...)
}

func Warningf(format string, args ...interface{}) {
	logger.Warningf(format, args...)
}

func Error(args ...interface{}) {
	logger.Error(args...)
}

func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

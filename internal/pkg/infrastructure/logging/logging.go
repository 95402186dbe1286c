package logging

import (
	"os"

	log "github.com/sirupsen/logrus"
)

//Logger interface that allows abstracting away the concrete logger implementation we are using
type Logger interface {
	//Fatal causes the application to terminate with the given error message
	Fatal(args ...interface{})
	//Fatalf causes the application to terminate with the given error message
	Fatalf(format string, args ...interface{})
	//Error logs a message at ERROR level on the default logger
	Error(args ...interface{})
	//Errorf logs a message at ERROR level on the default logger
	Errorf(format string, args ...interface{})
	//Warnf logs a message at WARN level on the default logger
	Warnf(format string, args ...interface{})
	//Infof logs a message at INFO level on the default logger
	Infof(format string, args ...interface{})
	//Debugf logs a message at DEBUG level on the default logger
	Debugf(format string, args ...interface{})
}

//NewLogger instantiates a new logger and returns it. The level can be lowered with LOG_LEVEL.
func NewLogger() Logger {
	log.SetFormatter(&log.JSONFormatter{})

	if level, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}

	return &logger{}
}

type logger struct {
}

func (l *logger) Error(args ...interface{}) {
	log.Error(args...)
}

func (l *logger) Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}

func (l *logger) Fatal(args ...interface{}) {
	log.Fatal(args...)
}

func (l *logger) Fatalf(format string, args ...interface{}) {
	log.Fatalf(format, args...)
}

func (l *logger) Warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

func (l *logger) Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

func (l *logger) Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

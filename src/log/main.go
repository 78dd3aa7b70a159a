package log

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/op/go-logging"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// The logging library being used everywhere.
var Log = Logging{
	Logger: "logrus",
}

// -----------------
// This a gologging
// -> github.com/op/go-logging

var gologging = logging.MustGetLogger("agent")

// ConfigureGoLogging writes colored logs to stderr and plain logs to a
// rotating file below the config directory.
func ConfigureGoLogging(level string, configDirectory string) {
	var format = logging.MustStringFormatter(
		`%{color}%{time:15:04:05.000} %{shortfunc} ▶ %{level:.4s} %{id:03x}%{color:reset} %{message}`,
	)
	var fileFormat = logging.MustStringFormatter(
		`%{time:2006-01-02 15:04:05.000} %{shortfunc} ▶ %{level:.4s} %{id:03x} %{message}`,
	)
	stdBackend := logging.NewLogBackend(os.Stderr, "", 0)
	stdBackendLeveled := logging.NewBackendFormatter(stdBackend, format)
	fileBackend := logging.NewLogBackend(&lumberjack.Logger{
		Filename:   filepath.Join(configDirectory, "data", "log", "agent.txt"),
		MaxSize:    2, // megabytes
		MaxBackups: 3,
		Compress:   true,
	}, "", 0)
	fileBackendLeveled := logging.NewBackendFormatter(fileBackend, fileFormat)
	leveled := logging.MultiLogger(stdBackendLeveled, fileBackendLeveled)
	leveled.SetLevel(goLoggingLevel(level), "")
	logging.SetBackend(leveled)
}

func goLoggingLevel(level string) logging.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logging.DEBUG
	case "warning":
		return logging.WARNING
	case "error", "fatal":
		return logging.ERROR
	default:
		return logging.INFO
	}
}

// -----------------
// This a logrus
// -> github.com/sirupsen/logrus

func ConfigureLogrus(level string, timezone *time.Location) {
	if timezone == nil {
		timezone = time.Local
	}
	// Log as JSON, in the timezone of the agent.
	logrus.SetFormatter(LocalTimeZoneFormatter{
		Timezone:  timezone,
		Formatter: &logrus.JSONFormatter{},
	})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(LogrusLevel(level))
}

// LogrusLevel maps the configured level name, info is the fallback.
func LogrusLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "error":
		return logrus.ErrorLevel
	case "debug":
		return logrus.DebugLevel
	case "fatal":
		return logrus.FatalLevel
	case "warning":
		return logrus.WarnLevel
	default:
		return logrus.InfoLevel
	}
}

type LocalTimeZoneFormatter struct {
	Timezone  *time.Location
	Formatter logrus.Formatter
}

func (u LocalTimeZoneFormatter) Format(e *logrus.Entry) ([]byte, error) {
	e.Time = e.Time.In(u.Timezone)
	return u.Formatter.Format(e)
}

type Logging struct {
	Logger string
}

// Init selects and configures the backend. An empty output keeps the
// current backend.
func (self *Logging) Init(output string, level string, configDirectory string, timezone *time.Location) {
	if output != "" {
		self.Logger = output
	}
	switch self.Logger {
	case "go-logging":
		ConfigureGoLogging(level, configDirectory)
	case "logrus":
		ConfigureLogrus(level, timezone)
	default:
	}
}

func (self *Logging) Info(sentence string) {
	switch self.Logger {
	case "go-logging":
		gologging.Info(sentence)
	case "logrus":
		logrus.Info(sentence)
	default:
	}
}

func (self *Logging) Warning(sentence string) {
	switch self.Logger {
	case "go-logging":
		gologging.Warning(sentence)
	case "logrus":
		logrus.Warn(sentence)
	default:
	}
}

func (self *Logging) Debug(sentence string) {
	switch self.Logger {
	case "go-logging":
		gologging.Debug(sentence)
	case "logrus":
		logrus.Debug(sentence)
	default:
	}
}

func (self *Logging) Error(sentence string) {
	switch self.Logger {
	case "go-logging":
		gologging.Error(sentence)
	case "logrus":
		logrus.Error(sentence)
	default:
	}
}

func (self *Logging) Fatal(sentence string) {
	switch self.Logger {
	case "go-logging":
		gologging.Fatal(sentence)
	case "logrus":
		logrus.Fatal(sentence)
	default:
	}
}

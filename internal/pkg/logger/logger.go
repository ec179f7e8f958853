package logger

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var logrusLevels = map[Level]logrus.Level{
	DEBUG: logrus.DebugLevel,
	INFO:  logrus.InfoLevel,
	WARN:  logrus.WarnLevel,
	ERROR: logrus.ErrorLevel,
}

// ParseLevel maps a config string ("debug", "info", ...) to a Level.
// Unknown strings fall back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Logger provides structured logging with optional PII redaction.
// Client and lead documents carry phone numbers and e-mail addresses,
// so redaction is on by default.
type Logger struct {
	entry     *logrus.Logger
	redactPII bool
}

var defaultLogger = newLogger(os.Stderr)

func newLogger(w io.Writer) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{logrus.FieldKeyTime: "time", logrus.FieldKeyMsg: "msg"},
	})
	l.SetLevel(logrus.InfoLevel)
	return &Logger{entry: l, redactPII: true}
}

// SetLevel sets the minimum log level for the default logger.
func SetLevel(l Level) { defaultLogger.entry.SetLevel(logrusLevels[l]) }

// SetRedactPII enables or disables PII redaction for the default logger.
func SetRedactPII(r bool) { defaultLogger.redactPII = r }

// SetOutput redirects the default logger. Tests use it to capture entries.
func SetOutput(w io.Writer) { defaultLogger.entry.SetOutput(w) }

// SetTextFormat switches the default logger to human-readable output.
func SetTextFormat() {
	defaultLogger.entry.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Debug emits a DEBUG-level structured log entry.
func Debug(msg string, fields ...interface{}) { defaultLogger.log(DEBUG, msg, fields...) }

// Info emits an INFO-level structured log entry.
func Info(msg string, fields ...interface{}) { defaultLogger.log(INFO, msg, fields...) }

// Warn emits a WARN-level structured log entry.
func Warn(msg string, fields ...interface{}) { defaultLogger.log(WARN, msg, fields...) }

// Error emits an ERROR-level structured log entry.
func Error(msg string, fields ...interface{}) { defaultLogger.log(ERROR, msg, fields...) }

func (l *Logger) log(level Level, msg string, fields ...interface{}) {
	lv := logrusLevels[level]
	if !l.entry.IsLevelEnabled(lv) {
		return
	}

	// Parse key-value pairs from fields
	data := make(logrus.Fields, len(fields)/2)
	for i := 0; i < len(fields)-1; i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		val := fmt.Sprintf("%v", fields[i+1])
		if l.redactPII {
			val = redactPIIValue(key, val)
		}
		data[key] = val
	}

	l.entry.WithFields(data).Log(lv, msg)
}

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	// Free-text phone numbers: international with a leading '+', or a
	// bare Indian mobile. Dates and epoch timestamps match neither.
	phoneRegex = regexp.MustCompile(`\+\d{1,3}(?:[ -]?\d{2,5}){2,4}\b|\b(?:91|0)?[6-9]\d{4}[ -]?\d{5}\b`)
)

func redactPIIValue(key, val string) string {
	key = strings.ToLower(key)
	if strings.Contains(key, "email") {
		return RedactEmail(val)
	}
	if strings.Contains(key, "phone") || strings.Contains(key, "mobile") {
		return RedactPhone(val)
	}
	val = emailRegex.ReplaceAllStringFunc(val, RedactEmail)
	return phoneRegex.ReplaceAllStringFunc(val, RedactPhone)
}

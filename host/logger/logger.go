// Package logger wraps zerolog for the host tools.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gometer/core"
)

var log = zerolog.New(os.Stderr).With().Timestamp().Logger()

type LogLevel int8

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

// Reading adds a reading's value, unit and timestamp to the event.
func (e *LogEvent) Reading(r core.Reading) *LogEvent {
	e.Event = e.Event.
		Str("value", r.Format()).
		Str("unit", r.Unit.String()).
		Int8("exponent", int8(r.Exponent)).
		Uint32("time_ms", r.TimeMs)
	return e
}

// Init initializes the logger. A nil out writes to stderr.
func Init(out io.Writer, debug, verbose bool) {
	if out == nil {
		out = os.Stderr
	}
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    out != os.Stderr && out != os.Stdout,
	}

	log = zerolog.New(output).With().Timestamp().Logger()

	SetLogLevel(WarnLevel) // Default log level

	if debug {
		SetLogLevel(DebugLevel)
	} else if verbose {
		SetLogLevel(InfoLevel)
	}
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	zerolog.SetGlobalLevel(zerolog.Level(level))
}

// Debug logs a debug message
func Debug() *LogEvent {
	return &LogEvent{log.Debug()}
}

// Info logs an info message
func Info() *LogEvent {
	return &LogEvent{log.Info()}
}

// Warn logs a warning message
func Warn() *LogEvent {
	return &LogEvent{log.Warn()}
}

// Error logs an error message
func Error() *LogEvent {
	return &LogEvent{log.Error()}
}

// Log logs a message with no level. It is written at every level but
// Disabled; the tools print readings with it.
func Log() *LogEvent {
	return &LogEvent{log.Log()}
}

// Fatal logs a fatal message and exits the program
func Fatal() *LogEvent {
	return &LogEvent{log.Fatal()}
}

// CoreWriter routes the firmware core's debug output into the log at debug
// level, tagged with the bracketed subsystem prefix when there is one.
func CoreWriter() core.DebugWriter {
	return func(msg string) {
		component := "core"
		if strings.HasPrefix(msg, "[") {
			if end := strings.IndexByte(msg, ']'); end > 0 {
				component = strings.ToLower(msg[1:end])
				msg = strings.TrimSpace(msg[end+1:])
			}
		}
		log.Debug().Str("component", component).Msg(msg)
	}
}

package logsvc

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"github.com/rs/zerolog"

	"github.com/napthedev/edura/core"
)

// RollbarLogger reports to Rollbar and writes structured lines through zerolog.
type RollbarLogger struct {
	zl zerolog.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(component string, conf *core.Config, out ...io.Writer) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)

	var w io.Writer = os.Stdout
	if len(out) > 0 {
		w = out[0]
	}
	if conf.Env != core.EnvProd {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(conf.Log.Level))
	if err != nil || conf.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	if conf.Debug && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}

	zl := zerolog.New(w).Level(level).With().Timestamp().Str("component", component).Logger()
	return &RollbarLogger{zl: zl}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Zerolog exposes the underlying logger, eg. for request logs.
func (l RollbarLogger) Zerolog() *zerolog.Logger {
	return &l.zl
}

// expected fmt: msg | error, map[string]interface{}, core.Person
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var personSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		// set acting Person
		if p, ok := arg.(core.Person); ok {
			if !personSet && p.ID != "" { // only set one Person
				rollbar.SetPerson(p.ID, p.Name, p.Email)
				personSet = true
			}
		} else {
			newArgs = append(newArgs, arg)
		}
	}
	if !personSet {
		rollbar.ClearPerson()
	}
	return newArgs
}

func (l RollbarLogger) print(evt *zerolog.Event, msg string, args []interface{}) {
	for _, arg := range args {
		switch a := arg.(type) {
		case error:
			evt = evt.Err(a)
		case map[string]interface{}:
			evt = evt.Fields(a)
		case core.Person:
			if a.ID != "" {
				evt = evt.Str("person", a.ID)
			}
		default:
			evt = evt.Str("extra", fmt.Sprintf("%+v", a))
		}
	}
	evt.Msg(msg)
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.print(l.zl.Debug(), msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.print(l.zl.Info(), msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.print(l.zl.Warn(), msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.print(l.zl.Error(), msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	l.print(l.zl.WithLevel(zerolog.FatalLevel), msg, args)
	rollbar.Close()
	os.Exit(1)
}

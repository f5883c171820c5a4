// Package logflags configures per-layer logrus loggers for gpudbg, the
// same "one named, leveled logger per subsystem" shape the original
// debugger used for its own layers, generalized to this server's four:
// session, listener, debugcontext, handlers.
package logflags

import (
	"errors"
	"io"
	"log"
	"os"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var session = false
var listener = false
var debugcontext = false
var handlers = false

// isTerminal is true when stderr is an interactive terminal, the same
// check the original debugger used to decide whether its own log
// output could afford ANSI colour without corrupting a redirected file
// or pipe.
var isTerminal = isatty.IsTerminal(os.Stderr.Fd())

// logOut wraps stderr with go-colorable so ANSI colour codes render on a
// Windows console that hasn't opted into virtual terminal processing,
// the same wrapping the original debugger's terminal package applies to
// stdout before handing it to a colour-aware writer.
var logOut = colorable.NewColorableStderr()

func makeLogger(flag bool, fields logrus.Fields) *logrus.Entry {
	base := logrus.New()
	base.Out = logOut
	base.Formatter = &logrus.TextFormatter{
		DisableColors:    !isTerminal,
		FullTimestamp:    true,
		DisableTimestamp: false,
	}
	logger := base.WithFields(fields)
	logger.Logger.Level = logrus.DebugLevel
	if !flag {
		logger.Logger.Level = logrus.WarnLevel
	}
	return logger
}

// Session returns true if per-connection dispatch should log at debug
// level.
func Session() bool { return session }

// SessionLogger returns a logger for internal/dap's Session type.
func SessionLogger() *logrus.Entry {
	return makeLogger(session, logrus.Fields{"layer": "session"})
}

// Listener returns true if the accept loop should log at debug level.
func Listener() bool { return listener }

// ListenerLogger returns a logger for internal/dap's ServerListener.
func ListenerLogger() *logrus.Entry {
	return makeLogger(listener, logrus.Fields{"layer": "listener"})
}

// DebugContext returns true if the host model's registries and
// breakpoint bookkeeping should log at debug level.
func DebugContext() bool { return debugcontext }

// DebugContextLogger returns a logger for pkg/debug's DebugContext.
func DebugContextLogger() *logrus.Entry {
	return makeLogger(debugcontext, logrus.Fields{"layer": "debugcontext"})
}

// Handlers returns true if DAP command dispatch should log at debug
// level.
func Handlers() bool { return handlers }

// HandlersLogger returns a logger for internal/handlers.
func HandlersLogger() *logrus.Entry {
	return makeLogger(handlers, logrus.Fields{"layer": "handlers"})
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup parses logstr (a comma-separated subset of "session", "listener",
// "debugcontext", "handlers") and enables debug-level logging for each
// named layer. With logFlag false, every layer stays at warn level and a
// non-empty logstr is rejected as a usage error.
func Setup(logFlag bool, logstr string) error {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if !logFlag {
		log.SetOutput(io.Discard)
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logstr == "" {
		logstr = "session,listener,debugcontext,handlers"
	}
	for _, layer := range strings.Split(logstr, ",") {
		switch layer {
		case "session":
			session = true
		case "listener":
			listener = true
		case "debugcontext":
			debugcontext = true
		case "handlers":
			handlers = true
		}
	}
	return nil
}

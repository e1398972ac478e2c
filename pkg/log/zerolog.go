package log

import (
	"context"
	"os"
	"sync"

	"github.com/rs/zerolog"

	gperr "github.com/YuminosukeSato/gpgo/pkg/errors"
)

// zerologLogger adapts a zerolog.Logger to the Logger interface.
type zerologLogger struct {
	zl zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...any) { l.log(l.zl.Debug(), msg, fields...) }
func (l *zerologLogger) Info(msg string, fields ...any)  { l.log(l.zl.Info(), msg, fields...) }
func (l *zerologLogger) Warn(msg string, fields ...any)  { l.log(l.zl.Warn(), msg, fields...) }

func (l *zerologLogger) Error(msg string, fields ...any) {
	ev := l.zl.Error()
	// The first field may be a bare error, mirroring slog conventions.
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			ev = ev.Err(err)
			fields = fields[1:]
		}
	}
	l.log(ev, msg, fields...)
}

func (l *zerologLogger) log(ev *zerolog.Event, msg string, fields ...any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, fields[i+1])
	}
	ev.Msg(msg)
}

func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &zerologLogger{zl: ctx.Logger()}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	cur := l.zl.GetLevel()
	if cur == zerolog.Disabled {
		return false
	}
	return toZerologLevel(level) >= cur
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// zerologProvider is the default LoggerProvider, writing JSON lines to stderr.
type zerologProvider struct {
	mu   sync.RWMutex
	root zerolog.Logger
}

func newZerologProvider() *zerologProvider {
	return &zerologProvider{
		root: zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel),
	}
}

func (p *zerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{zl: p.root}
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{zl: p.root.With().Str(ComponentKey, name).Logger()}
}

func (p *zerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.root = p.root.Level(toZerologLevel(level))
}

var (
	providerMu sync.RWMutex
	provider   LoggerProvider = newZerologProvider()
)

// SetProvider replaces the global LoggerProvider. Useful for tests and for
// applications that already carry their own logging setup.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = p
}

// GetLogger returns the default logger from the global provider.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLogger()
}

// GetLoggerWithName returns a named logger from the global provider.
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLoggerWithName(name)
}

// SetLevel sets the minimum log level on the global provider.
func SetLevel(level Level) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	provider.SetLevel(level)
}

func init() {
	// Route library warnings (ConvergenceWarning etc.) through zerolog.
	// Registered here rather than in pkg/errors to avoid a circular import.
	warnLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	gperr.SetZerologWarnFunc(func(warning error) {
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			warnLogger.Warn().Object("warning", obj).Msg(warning.Error())
			return
		}
		warnLogger.Warn().Msg(warning.Error())
	})
}

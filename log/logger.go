// Package log is a minimal structured-logging wrapper, in the shape of the
// teacher's own log.Logger (Logln/Logf/a component-prefixed line helper)
// but backed by logrus so resolver/orderer notifications carry fields
// instead of plain strings.
package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger wraps a *logrus.Logger, keeping the teacher's narrow Logln/Logf
// surface as the default call style while exposing logrus's fields for
// callers that want structure.
type Logger struct {
	*logrus.Logger
}

// New returns a new Logger writing to w at info level, text-formatted.
func New(w io.Writer) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &Logger{Logger: l}
}

// Logln logs a line at info level.
func (l *Logger) Logln(args ...interface{}) { l.Logger.Infoln(args...) }

// Logf logs a formatted string at info level.
func (l *Logger) Logf(f string, args ...interface{}) { l.Logger.Infof(f, args...) }

// LogResolverfln logs a formatted line tagged with the "resolver"
// component, the domain analogue of the teacher's LogDepfln.
func (l *Logger) LogResolverfln(format string, args ...interface{}) {
	l.Logger.WithField("component", "resolver").Infof(format, args...)
}

// EventKind is the subset of paludis.NotificationEventKind the sink needs;
// duplicated as a plain uint8 here so this package stays free of a domain
// import (cmd/paludis-resolve wraps Sink to satisfy the resolver package's
// NotificationSink interface).
type EventKind uint8

// Sink adapts a Logger into a line-per-event notifier.
type Sink struct {
	*Logger
}

// NewSink wraps l as a notification sink.
func NewSink(l *Logger) Sink { return Sink{l} }

// NotifyEvent logs one coarse-checkpoint event as a structured line.
func (s Sink) NotifyEvent(kind EventKind, label, reason string) {
	entry := s.Logger.WithField("kind", kind)
	if reason != "" {
		entry = entry.WithField("reason", reason)
	}
	entry.Infoln(label)
}

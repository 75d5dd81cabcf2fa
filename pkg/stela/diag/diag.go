// Package diag implements the compiler's diagnostics sink (§6): structured
// records with a priority, category, owning module, source location, and
// message, fanned out to one or more Sink implementations.
package diag

import (
	log "github.com/sirupsen/logrus"

	"github.com/stela-lang/stela/pkg/stela/source"
)

// Priority orders diagnostic severity, lowest first.
type Priority uint8

const (
	Verbose Priority = iota
	Status
	Info
	Warning
	Error
	Fatal
)

// String returns the lower-case spelling of p, matching logrus' own level
// names where they coincide.
func (p Priority) String() string {
	return [...]string{"verbose", "status", "info", "warning", "error", "fatal"}[p]
}

// Category identifies which pipeline phase raised a diagnostic.
type Category uint8

const (
	Lexical Category = iota
	Syntax
	Semantic
	Generate
)

// String returns the category's name.
func (c Category) String() string {
	return [...]string{"lexical", "syntax", "semantic", "generate"}[c]
}

// Record is one diagnostic: a (priority, category, module, location,
// message) tuple (§6).
type Record struct {
	Priority Priority
	Category Category
	Module   string
	Span     source.Span
	Message  string
}

// IsFatal reports whether this record should halt the pipeline (§6, "Fatal
// diagnostics halt the pipeline").
func (r Record) IsFatal() bool { return r.Priority == Fatal || r.Priority == Error }

// Sink receives diagnostic records as they are produced.
type Sink interface {
	Emit(Record)
}

// AnyFatal reports whether any record would halt the pipeline.
func AnyFatal(records []Record) bool {
	for _, r := range records {
		if r.IsFatal() {
			return true
		}
	}
	//
	return false
}

// LogrusSink forwards every record to a *logrus.Logger at the matching
// level, the way pkg/cmd's commands configure and use logrus directly
// (`log.SetLevel(log.DebugLevel)`, `log.Warn(...)`, etc).
type LogrusSink struct {
	Logger *log.Logger
}

// NewLogrusSink constructs a sink writing to logger.
func NewLogrusSink(logger *log.Logger) *LogrusSink {
	return &LogrusSink{logger}
}

// Emit implements Sink.
func (s *LogrusSink) Emit(r Record) {
	fields := log.Fields{"category": r.Category.String(), "module": r.Module}
	//
	if r.Span.Length() > 0 || r.Span.Start() != 0 {
		fields["offset"] = r.Span.Start()
	}
	//
	entry := s.Logger.WithFields(fields)
	//
	switch r.Priority {
	case Verbose:
		entry.Trace(r.Message)
	case Status, Info:
		entry.Info(r.Message)
	case Warning:
		entry.Warn(r.Message)
	case Error, Fatal:
		entry.Error(r.Message)
	}
}

// CollectingSink accumulates records in memory, for tests and for the
// driver's internal fatal-short-circuit check.
type CollectingSink struct {
	Records []Record
}

// NewCollectingSink constructs an empty collecting sink.
func NewCollectingSink() *CollectingSink {
	return &CollectingSink{}
}

// Emit implements Sink.
func (s *CollectingSink) Emit(r Record) {
	s.Records = append(s.Records, r)
}

// HasFatal reports whether any collected record would halt the pipeline.
func (s *CollectingSink) HasFatal() bool {
	return AnyFatal(s.Records)
}

// ByCategory filters the collected records down to one category, preserving
// order.
func (s *CollectingSink) ByCategory(c Category) []Record {
	var out []Record
	//
	for _, r := range s.Records {
		if r.Category == c {
			out = append(out, r)
		}
	}
	//
	return out
}

// TeeSink fans every record out to multiple sinks, in order.
type TeeSink struct {
	Sinks []Sink
}

// NewTeeSink constructs a sink forwarding to every one of sinks.
func NewTeeSink(sinks ...Sink) *TeeSink {
	return &TeeSink{sinks}
}

// Emit implements Sink.
func (t *TeeSink) Emit(r Record) {
	for _, s := range t.Sinks {
		s.Emit(r)
	}
}

// Package source provides the physical representation of compiler inputs:
// source files, spans within them, line lookup, and syntax errors anchored
// to a span.
package source

import (
	"fmt"
	"os"
)

// Span identifies a contiguous range of runes within a source file.
type Span struct {
	start int
	end   int
}

// NewSpan constructs a span over [start,end).
func NewSpan(start, end int) Span {
	if start > end {
		panic("invalid span: start > end")
	}
	//
	return Span{start, end}
}

// Start returns the first rune index covered by this span.
func (s Span) Start() int { return s.start }

// End returns one past the last rune index covered by this span.
func (s Span) End() int { return s.end }

// Length returns the number of runes covered by this span.
func (s Span) Length() int { return s.end - s.start }

// Union returns the smallest span enclosing both s and other.
func (s Span) Union(other Span) Span {
	return Span{min(s.start, other.start), max(s.end, other.end)}
}

// File represents a single named source file and its rune contents.
type File struct {
	filename string
	contents []rune
}

// NewFile constructs a source file from raw bytes, decoding as UTF-8.
func NewFile(filename string, contents []byte) *File {
	return &File{filename, []rune(string(contents))}
}

// ReadFiles reads a set of files from disk into source.File values.
func ReadFiles(filenames ...string) ([]*File, error) {
	files := make([]*File, len(filenames))
	//
	for i, name := range filenames {
		bytes, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		//
		files[i] = NewFile(name, bytes)
	}
	//
	return files, nil
}

// Filename returns the name this file was constructed with.
func (f *File) Filename() string { return f.filename }

// Contents returns the full rune contents of this file.
func (f *File) Contents() []rune { return f.contents }

// Text returns the substring of this file covered by span.
func (f *File) Text(span Span) string {
	return string(f.contents[span.start:span.end])
}

// Line describes one physical line of a source file.
type Line struct {
	text   []rune
	span   Span
	number int
}

// String returns the text of this line (excluding the terminating newline).
func (l Line) String() string { return string(l.text[l.span.start:l.span.end]) }

// Number returns the 1-based line number.
func (l Line) Number() int { return l.number }

// FindEnclosingLine locates the first physical line containing the start of
// span. If span begins beyond the end of the file, the last line is
// returned.
func (f *File) FindEnclosingLine(span Span) Line {
	var (
		num   = 1
		start = 0
	)
	//
	for i := 0; i < len(f.contents); i++ {
		if i == span.start {
			return Line{f.contents, Span{start, endOfLine(i, f.contents)}, num}
		} else if f.contents[i] == '\n' {
			num++
			start = i + 1
		}
	}
	//
	return Line{f.contents, Span{start, len(f.contents)}, num}
}

func endOfLine(index int, text []rune) int {
	for i := index; i < len(text); i++ {
		if text[i] == '\n' {
			return i
		}
	}
	//
	return len(text)
}

// SyntaxError is a diagnostic anchored to a span of a specific source file.
type SyntaxError struct {
	File    *File
	Span    Span
	Message string
}

// NewSyntaxError constructs a syntax error over span of file with message msg.
func (f *File) NewSyntaxError(span Span, msg string) SyntaxError {
	return SyntaxError{f, span, msg}
}

// Error implements the error interface.
func (e SyntaxError) Error() string {
	line := e.File.FindEnclosingLine(e.Span)
	return fmt.Sprintf("%s:%d: %s", e.File.Filename(), line.Number(), e.Message)
}

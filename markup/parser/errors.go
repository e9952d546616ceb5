package parser

import "fmt"

// ParseError is returned by a production that does not match. The cursor
// is back at Index when it is returned.
type ParseError struct {
	File   string
	Index  int
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic reports input the parser skipped or could only partially
// interpret.
type Diagnostic struct {
	File     string
	Line     int
	Column   int
	Index    int
	Text     string
	Message  string
	Severity Severity
}

func (d Diagnostic) String() string {
	loc := fmt.Sprintf("%d:%d", d.Line, d.Column)
	if d.File != "" {
		loc = d.File + ":" + loc
	}
	if d.Text == "" {
		return fmt.Sprintf("%s: %s: %s", loc, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s: %q", loc, d.Severity, d.Message, d.Text)
}

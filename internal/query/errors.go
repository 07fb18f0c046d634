package query

import (
	"fmt"
	"strings"
)

// ErrorKind distinguishes lexical from syntax diagnostics.
type ErrorKind int

const (
	ErrLexical ErrorKind = iota
	ErrSyntax
)

func (k ErrorKind) String() string {
	if k == ErrLexical {
		return "lexical"
	}
	return "syntax"
}

// Error is a recoverable diagnostic tied to a byte offset in the query.
type Error struct {
	Kind    ErrorKind
	Message string
	Pos     int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at pos %d", e.Message, e.Pos)
}

// Errors is a list of diagnostics that also satisfies error.
type Errors []*Error

func (es Errors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Err returns es as an error, or nil when empty.
func (es Errors) Err() error {
	if len(es) == 0 {
		return nil
	}
	return es
}

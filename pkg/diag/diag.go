// Package diag defines the located errors every pass reports. The first
// error aborts the compilation; there is no recovery.
package diag

import (
	"fmt"

	"github.com/decaf-lang/minidecaf/pkg/ast"
	"tlog.app/go/errors"
)

// Kinds of located errors. A LocatedError unwraps to its kind, so callers
// can test with errors.Is.
var (
	ErrSyntax       = errors.New("syntax error")
	ErrRedefinition = errors.New("redefinition")
	ErrUndeclared   = errors.New("undeclared")
	ErrConflict     = errors.New("conflicting declaration")
	ErrNotConstant  = errors.New("not a constant")
	ErrArraySize    = errors.New("bad array size")
	ErrType         = errors.New("type error")
	ErrNotLvalue    = errors.New("lvalue expected")
	ErrNotInLoop    = errors.New("not in a loop")
)

// LocatedError is an error attached to a source position.
type LocatedError struct {
	Pos  ast.Pos
	Kind error
	Msg  string
}

func (e *LocatedError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

func (e *LocatedError) Unwrap() error { return e.Kind }

// TypeError is a LocatedError raised by a type rule.
type TypeError struct {
	LocatedError
}

// Unwrap exposes the embedded LocatedError so errors.As finds both.
func (e *TypeError) Unwrap() error { return &e.LocatedError }

// Errorf creates a LocatedError of the given kind.
func Errorf(pos ast.Pos, kind error, format string, args ...interface{}) *LocatedError {
	return &LocatedError{Pos: pos, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// TypeErrorf creates a TypeError. kind is ErrType unless the rule has a
// more specific one, such as ErrNotLvalue.
func TypeErrorf(pos ast.Pos, kind error, format string, args ...interface{}) *TypeError {
	return &TypeError{LocatedError: LocatedError{Pos: pos, Kind: kind, Msg: fmt.Sprintf(format, args...)}}
}

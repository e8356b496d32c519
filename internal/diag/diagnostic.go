package diag

import (
	"gxpc/internal/source"
)

type Note struct {
	Pos source.Pos
	Msg string
}

// Diagnostic is an immutable alert. Two diagnostics are the same alert when
// their Key values are equal; Code and Notes do not take part in identity.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Pos      source.Pos
	Notes    []Note
}

// Key is the structural identity of a diagnostic.
type Key struct {
	Pos      source.Pos
	Message  string
	Severity Severity
}

func (d Diagnostic) Key() Key {
	return Key{Pos: d.Pos, Message: d.Message, Severity: d.Severity}
}

// Equal compares by structural identity.
func (d Diagnostic) Equal(other Diagnostic) bool {
	return d.Key() == other.Key()
}

func New(sev Severity, code Code, pos source.Pos, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Pos:      pos,
		Message:  msg,
	}
}

func NewError(code Code, pos source.Pos, msg string) Diagnostic {
	return New(SevError, code, pos, msg)
}

func NewWarning(code Code, pos source.Pos, msg string) Diagnostic {
	return New(SevWarning, code, pos, msg)
}

func (d Diagnostic) WithNote(pos source.Pos, msg string) Diagnostic {
	notes := make([]Note, len(d.Notes), len(d.Notes)+1)
	copy(notes, d.Notes)
	d.Notes = append(notes, Note{Pos: pos, Msg: msg})
	return d
}

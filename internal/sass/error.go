package sass

import (
	"errors"
	"fmt"
)

// Error is a compilation failure tied to a source position.
type Error struct {
	Pos Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

func errorf(pos Pos, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// IsSyntaxError reports whether err (or an error it wraps) is a Sass
// compilation error as opposed to an I/O failure.
func IsSyntaxError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}

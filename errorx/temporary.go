package errorx

import "github.com/pkg/errors"

// Temporary report whether any error in err's chain is temporary, such as
// a would-block send or a short write.
func Temporary(err error) bool {
	var e interface{ Temporary() bool }
	for err != nil {
		if errors.As(err, &e) && e.Temporary() {
			return true
		}
		if e == nil {
			return false
		}
		err = errors.Unwrap(e.(error))
		e = nil
	}
	return false
}

type temporaryErr struct {
	error
}

func WrapTemp(err error) error {
	if err == nil {
		return nil
	}
	return &temporaryErr{error: err}
}
func (t *temporaryErr) Error() string   { return t.error.Error() }
func (t *temporaryErr) Unwrap() error   { return t.error }
func (t *temporaryErr) Temporary() bool { return true }

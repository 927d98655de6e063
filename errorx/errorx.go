package errorx

import (
	"io"

	"github.com/pkg/errors"
)

// ShortWrite report a send that transferred n of want bytes, it is
// temporary: the caller may send the remaining bytes.
func ShortWrite(n, want int) error {
	return WrapTemp(errors.WithStack(
		errors.WithMessagef(
			io.ErrShortWrite, "sent %d of %d bytes", n, want,
		),
	))
}

package errorx

import (
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// TraceAttr get github.com/pkg/errors stack trace as slog.Attr, frames are
// keyed by depth, the last one is the caller of TraceAttr.
//
// Example:
//
//	slog.Error(err.Error(), errorx.TraceAttr(err))
func TraceAttr(err error) slog.Attr {
	type trace interface{ StackTrace() errors.StackTrace }

	// innermost trace is closest to the failing syscall
	var t trace
	for e := err; e != nil; e = errors.Unwrap(e) {
		if e1, ok := e.(trace); ok {
			t = e1
		}
	}

	var attrs []slog.Attr
	if t != nil {
		st := t.StackTrace()

		// skip runtime.main and runtime.goexit
		n := len(st) - 2
		if n < 0 {
			n = 0
		}
		attrs = make([]slog.Attr, 0, n+1)
		for i := 0; i < n; i++ {
			attrs = append(attrs, slog.Attr{
				Key:   strconv.Itoa(i),
				Value: position(st[i]),
			})
		}
	}

	var pcs = make([]uintptr, 1)
	if runtime.Callers(2, pcs) == 1 {
		attrs = append(attrs, slog.Attr{
			Key:   strconv.Itoa(len(attrs)),
			Value: position(errors.Frame(pcs[0])),
		})
	}

	return slog.Attr{Key: "trace", Value: slog.GroupValue(attrs...)}
}

func position(f errors.Frame) slog.Value {
	pc := uintptr(f) - 1
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return slog.StringValue("")
	}
	file, line := fn.FileLine(pc)
	return slog.StringValue(relpath(file) + ":" + strconv.Itoa(line))
}

// base is the module root, derived from this file's location
var base = func() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	return filepath.ToSlash(filepath.Dir(filepath.Dir(file)))
}()

func relpath(abs string) string {
	if base == "" {
		return abs
	}
	if rel, ok := strings.CutPrefix(abs, base+"/"); ok {
		return rel
	}
	return abs
}

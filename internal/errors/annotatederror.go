// Package errors extends the standard errors package with errors that remember where they were created and carry
// structured log annotations.
//
// Use [Wrap] at the boundaries where context is added and log the result with [SlogError].
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

type annotatedError struct {
	msg    string
	cause  error
	attrs  []slog.Attr
	source string
}

func (e *annotatedError) Error() string {
	switch {
	case e.cause == nil:
		return e.msg
	case e.msg == "":
		return e.cause.Error()
	default:
		return e.msg + ": " + e.cause.Error()
	}
}

func (e *annotatedError) Unwrap() error {
	return e.cause
}

// NewSentinel creates a package level error meant to be compared with [Is]. No call site is recorded.
func NewSentinel(msg string) error {
	return stderrors.New(msg) //nolint:err113 // sentinel constructor.
}

// New creates an error recording the call site.
func New(msg string) error {
	return &annotatedError{msg: msg, cause: nil, attrs: nil, source: callerSource(2)} //nolint:mnd // skip New.
}

// Wrap adds msg and the slog attributes to err and records the call site.
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	return &annotatedError{msg: msg, cause: err, attrs: attrs, source: callerSource(2)} //nolint:mnd // skip Wrap.
}

// DecoratePanic converts a recovered panic value into an error pointing at the line that panicked.
// Returns nil when nothing was recovered.
func DecoratePanic(recovered any) error {
	if recovered == nil {
		return nil
	}
	source := panicSource()
	if err, ok := recovered.(error); ok {
		return &annotatedError{msg: "panic", cause: err, attrs: nil, source: source}
	}
	return &annotatedError{msg: fmt.Sprintf("panic: %v", recovered), cause: nil, attrs: nil, source: source}
}

// SlogError returns an "error" group with the message, the annotations collected from the whole chain and the
// source of the innermost annotated error.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{Key: "", Value: slog.Value{}}
	}
	var (
		annotations []slog.Attr
		source      string
	)
	collect(err, &annotations, &source)

	args := []any{slog.String("message", err.Error())}
	if len(annotations) > 0 {
		args = append(args, slog.Attr{Key: "annotations", Value: slog.GroupValue(annotations...)})
	}
	if source != "" {
		args = append(args, slog.String("source", source))
	}
	return slog.Group("error", args...)
}

func collect(err error, annotations *[]slog.Attr, source *string) {
	if err == nil {
		return
	}
	switch e := err.(type) { //nolint:errorlint // walking the chain manually.
	case *annotatedError:
		*annotations = append(*annotations, e.attrs...)
		if e.source != "" {
			*source = e.source
		}
		collect(e.cause, annotations, source)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			collect(inner, annotations, source)
		}
	case interface{ Unwrap() error }:
		collect(e.Unwrap(), annotations, source)
	}
}

func callerSource(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return formatSource(file, line)
}

// panicSource finds the first non-runtime frame below runtime.gopanic.
func panicSource() string {
	pcs := make([]uintptr, 64) //nolint:mnd // deep enough for middleware stacks.
	n := runtime.Callers(3, pcs) //nolint:mnd // skip Callers, panicSource and DecoratePanic.
	frames := runtime.CallersFrames(pcs[:n])
	panicking := false
	for {
		frame, more := frames.Next()
		if panicking && !strings.HasPrefix(frame.Function, "runtime.") {
			return formatSource(frame.File, frame.Line)
		}
		if frame.Function == "runtime.gopanic" {
			panicking = true
		}
		if !more {
			break
		}
	}
	return callerSource(3) //nolint:mnd // caller of DecoratePanic.
}

func formatSource(file string, line int) string {
	return filepath.Join(filepath.Base(filepath.Dir(file)), filepath.Base(file)) + ":" + strconv.Itoa(line)
}

// Is reports whether any error in err's tree matches target. See [stderrors.Is].
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target. See [stderrors.As].
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err. See [stderrors.Unwrap].
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

// Join returns an error that wraps the given errors. See [stderrors.Join].
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

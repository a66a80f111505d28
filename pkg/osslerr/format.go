package osslerr

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

const emptyStackText = "OpenSSL error"

// Error renders the record the way the library's own error printer does:
//
//	error:<code>:<lib>:<func>:<reason>:<file>:<line>:<data>
func (e *Error) Error() string {
	var sb strings.Builder
	e.render(&sb)
	return sb.String()
}

func (e *Error) render(sb *strings.Builder) {
	fmt.Fprintf(sb, "error:%08X:", uint64(e.code))

	if lib, ok := e.Library(); ok {
		sb.WriteString(lib)
	} else {
		fmt.Fprintf(sb, "lib(%d)", e.LibraryID())
	}
	sb.WriteByte(':')

	if fn, ok := e.Function(); ok {
		sb.WriteString(fn)
	} else {
		fmt.Fprintf(sb, "func(%d)", e.FunctionID())
	}
	sb.WriteByte(':')

	if reason, ok := e.Reason(); ok {
		sb.WriteString(reason)
	} else {
		fmt.Fprintf(sb, "reason(%d)", e.ReasonID())
	}

	sb.WriteByte(':')
	sb.WriteString(e.File())
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(e.line))
	sb.WriteByte(':')
	sb.WriteString(e.data.String())
}

// Format implements fmt.Formatter. %+v prints every present field by name.
func (e *Error) Format(f fmt.State, verb rune) {
	switch verb {
	case 'v':
		if f.Flag('+') {
			_, _ = io.WriteString(f, e.debug())
			return
		}
		_, _ = io.WriteString(f, e.Error())
	case 's':
		_, _ = io.WriteString(f, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(f, "%q", e.Error())
	default:
		_, _ = fmt.Fprintf(f, "%%!%c(*osslerr.Error=%s)", verb, e.Error())
	}
}

func (e *Error) debug() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Error{code: %d", uint64(e.code))
	if lib, ok := e.Library(); ok {
		fmt.Fprintf(&sb, ", library: %q", lib)
	}
	if fn, ok := e.Function(); ok {
		fmt.Fprintf(&sb, ", function: %q", fn)
	}
	if reason, ok := e.Reason(); ok {
		fmt.Fprintf(&sb, ", reason: %q", reason)
	}
	fmt.Fprintf(&sb, ", file: %q, line: %d", e.File(), e.line)
	if data, ok := e.Data(); ok {
		fmt.Fprintf(&sb, ", data: %q", data)
	}
	sb.WriteByte('}')
	return sb.String()
}

// Error renders each record, separated by ", ". An empty stack renders as
// a generic message.
func (s *ErrorStack) Error() string {
	if len(s.errs) == 0 {
		return emptyStackText
	}
	var sb strings.Builder
	for i, e := range s.errs {
		if i > 0 {
			sb.WriteString(", ")
		}
		e.render(&sb)
	}
	return sb.String()
}

// Format implements fmt.Formatter. %+v prints every record by field.
func (s *ErrorStack) Format(f fmt.State, verb rune) {
	switch verb {
	case 'v':
		if f.Flag('+') {
			parts := make([]string, len(s.errs))
			for i, e := range s.errs {
				parts[i] = e.debug()
			}
			_, _ = fmt.Fprintf(f, "ErrorStack[%s]", strings.Join(parts, ", "))
			return
		}
		_, _ = io.WriteString(f, s.Error())
	case 's':
		_, _ = io.WriteString(f, s.Error())
	case 'q':
		_, _ = fmt.Fprintf(f, "%q", s.Error())
	default:
		_, _ = fmt.Fprintf(f, "%%!%c(*osslerr.ErrorStack=%s)", verb, s.Error())
	}
}

// Package kfmt provides the kernel's formatted output: a minimal printf
// over an io.Writer sink, with a ring buffer capturing everything printed
// before a console becomes available.
package kfmt

import "io"

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	// earlyPrintBuffer stores Printf output produced before an output
	// sink is registered.
	earlyPrintBuffer ringBuffer

	// outputSink is the io.Writer where Printf sends its output. While
	// nil, output is redirected to earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the target for calls to Printf to w and drains any
// output accumulated in the early print buffer into it.
func SetOutputSink(w io.Writer) {
	if w == io.Writer(&earlyPrintBuffer) {
		// Handing the early buffer back unregisters the sink; copying
		// the buffer into itself would never terminate.
		w = nil
	}

	outputSink = w
	if w != nil {
		io.Copy(w, &earlyPrintBuffer)
	}
}

// GetOutputSink returns the currently registered output sink. While no sink
// is registered it returns the early print buffer, so callers always get a
// writable destination whose contents drain into the real console once one
// appears.
func GetOutputSink() io.Writer {
	if outputSink == nil {
		return &earlyPrintBuffer
	}
	return outputSink
}

// Printf formats its arguments and writes them to the active output sink,
// or to the early boot ring buffer if no sink is registered yet.
//
// The supported verbs are a subset of the fmt package's:
//
//	%s  string, []byte
//	%d  integers, base 10
//	%x  integers, base 16 with lower-case digits
//	%o  integers, base 8
//	%c  a single byte
//	%t  "true" or "false"
//
// An optional decimal width before the verb left-pads the formatted value:
// with spaces for %s and %d, with zeroes for %x and %o.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves exactly like Printf but writes the formatted output to the
// supplied io.Writer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		nextArg int
		i       int
	)

	for i < len(format) {
		ch := format[i]
		if ch != '%' {
			writeByte(w, ch)
			i++
			continue
		}

		// Parse the optional pad width between '%' and the verb.
		i++
		padLen := 0
		for ; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
			padLen = padLen*10 + int(format[i]-'0')
		}

		if i == len(format) {
			doWrite(w, errNoVerb)
			return
		}

		verb := format[i]
		i++

		if verb == '%' {
			writeByte(w, '%')
			continue
		}

		if nextArg >= len(args) {
			doWrite(w, errMissingArg)
			continue
		}
		arg := args[nextArg]
		nextArg++

		switch verb {
		case 'd':
			fmtInt(w, arg, 10, padLen)
		case 'x':
			fmtInt(w, arg, 16, padLen)
		case 'o':
			fmtInt(w, arg, 8, padLen)
		case 's':
			fmtString(w, arg, padLen)
		case 'c':
			fmtChar(w, arg)
		case 't':
			fmtBool(w, arg)
		default:
			doWrite(w, errNoVerb)
		}
	}
}

// fmtBool formats a boolean value.
func fmtBool(w io.Writer, arg interface{}) {
	switch v := arg.(type) {
	case bool:
		if v {
			doWrite(w, trueValue)
		} else {
			doWrite(w, falseValue)
		}
	default:
		doWrite(w, errWrongArgType)
	}
}

// fmtChar formats a single character.
func fmtChar(w io.Writer, arg interface{}) {
	switch v := arg.(type) {
	case byte:
		writeByte(w, v)
	case rune:
		writeByte(w, byte(v))
	case int:
		writeByte(w, byte(v))
	default:
		doWrite(w, errWrongArgType)
	}
}

// fmtString formats a string or byte-slice value, left-padded with spaces up
// to padLen.
func fmtString(w io.Writer, arg interface{}, padLen int) {
	switch v := arg.(type) {
	case string:
		for i := len(v); i < padLen; i++ {
			writeByte(w, ' ')
		}
		for i := 0; i < len(v); i++ {
			writeByte(w, v[i])
		}
	case []byte:
		for i := len(v); i < padLen; i++ {
			writeByte(w, ' ')
		}
		doWrite(w, v)
	default:
		doWrite(w, errWrongArgType)
	}
}

// fmtInt formats an integer value in the requested base. Base-16 and base-8
// values are zero-padded, base-10 values space-padded.
func fmtInt(w io.Writer, arg interface{}, base, padLen int) {
	var (
		negative bool
		val      uint64
	)

	switch v := arg.(type) {
	case int:
		negative = v < 0
		if negative {
			v = -v
		}
		val = uint64(v)
	case int8:
		negative = v < 0
		if negative {
			v = -v
		}
		val = uint64(v)
	case int16:
		negative = v < 0
		if negative {
			v = -v
		}
		val = uint64(v)
	case int32:
		negative = v < 0
		if negative {
			v = -v
		}
		val = uint64(v)
	case int64:
		negative = v < 0
		if negative {
			v = -v
		}
		val = uint64(v)
	case uint:
		val = uint64(v)
	case uint8:
		val = uint64(v)
	case uint16:
		val = uint64(v)
	case uint32:
		val = uint64(v)
	case uint64:
		val = v
	case uintptr:
		val = uint64(v)
	default:
		doWrite(w, errWrongArgType)
		return
	}

	const digits = "0123456789abcdef"

	var buf [20]byte
	n := 0
	for {
		buf[n] = digits[val%uint64(base)]
		n++
		val /= uint64(base)
		if val == 0 {
			break
		}
	}
	if negative {
		buf[n] = '-'
		n++
	}

	pad := byte(' ')
	if base != 10 {
		pad = '0'
	}
	for i := n; i < padLen; i++ {
		writeByte(w, pad)
	}

	for i := n - 1; i >= 0; i-- {
		writeByte(w, buf[i])
	}
}

var singleByte [1]byte

func writeByte(w io.Writer, b byte) {
	singleByte[0] = b
	doWrite(w, singleByte[:])
}

// doWrite routes writes to the supplied writer, falling back to the early
// print buffer when no writer is available.
func doWrite(w io.Writer, p []byte) {
	if w == nil {
		w = &earlyPrintBuffer
	}
	w.Write(p)
}

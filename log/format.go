package log

import (
	"fmt"
	"log/slog"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/holiman/uint256"
)

const timeFormat = "Jan 02 15:04:05"

var levelMaxVerbosity = slog.Level(-8) // one below slog.LevelDebug: nothing is filtered by default

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
)

// LevelString renders l the way the terminal and logfmt handlers show
// it: a fixed 4-letter tag, matching the level names an operator
// scanning logs by eye expects.
func LevelString(l slog.Level) string {
	switch {
	case l < slog.LevelDebug:
		return "TRAC"
	case l < slog.LevelInfo:
		return "DBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARN"
	case l < slog.LevelError+4:
		return "EROR"
	default:
		return "CRIT"
	}
}

func levelColor(l slog.Level) string {
	switch {
	case l < slog.LevelDebug:
		return colorMagenta
	case l < slog.LevelInfo:
		return colorBlue
	case l < slog.LevelWarn:
		return colorGreen
	case l < slog.LevelError:
		return colorYellow
	default:
		return colorRed
	}
}

func (h *TerminalHandler) format(buf []byte, r slog.Record, useColor bool) []byte {
	if useColor {
		buf = append(buf, levelColor(r.Level)...)
		buf = append(buf, '[')
		buf = append(buf, LevelString(r.Level)...)
		buf = append(buf, ']')
		buf = append(buf, colorReset...)
	} else {
		buf = append(buf, '[')
		buf = append(buf, LevelString(r.Level)...)
		buf = append(buf, ']')
	}
	buf = append(buf, " ["...)
	buf = append(buf, r.Time.Format(timeFormat)...)
	buf = append(buf, "] "...)
	buf = append(buf, r.Message...)

	attrs := append([]slog.Attr(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	for _, a := range attrs {
		a = builtinReplace(nil, a, true)
		val := formatLogfmtValue(a.Value)
		if pad, ok := h.fieldPadding[a.Key]; ok && len(val) < pad {
			val += strings.Repeat(" ", pad-len(val))
		} else {
			h.fieldPadding[a.Key] = len(val)
		}
		buf = append(buf, ' ')
		buf = append(buf, a.Key...)
		buf = append(buf, '=')
		buf = append(buf, val...)
	}
	buf = append(buf, '\n')
	return buf
}

func formatLogfmtValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if strings.ContainsAny(s, " \t\"=") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindDuration:
		return v.Duration().String()
	default:
		return fmt.Sprint(v.Any())
	}
}

func builtinReplaceLogfmt(_ []string, attr slog.Attr) slog.Attr {
	return builtinReplace(nil, attr, true)
}

func builtinReplaceJSON(_ []string, attr slog.Attr) slog.Attr {
	return builtinReplace(nil, attr, false)
}

// builtinReplace normalizes a few well-known value types (big.Int,
// uint256.Int, fmt.Stringer, timestamps) into strings so neither the
// terminal handler nor the JSON handler ever prints a Go struct dump
// for a value a caller clearly meant to be read as text.
func builtinReplace(_ []string, attr slog.Attr, logfmt bool) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		if attr.Value.Kind() == slog.KindTime && logfmt {
			return slog.String("t", attr.Value.Time().Format(timeFormat))
		}
	case slog.LevelKey:
		if l, ok := attr.Value.Any().(slog.Level); ok {
			return slog.String("lvl", LevelString(l))
		}
	}

	switch v := attr.Value.Any().(type) {
	case time.Time:
		if logfmt {
			attr = slog.String(attr.Key, v.Format(timeFormat))
		}
	case *big.Int:
		if v == nil {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.String())
		}
	case *uint256.Int:
		if v == nil {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.Dec())
		}
	case fmt.Stringer:
		if v == nil || (reflect.ValueOf(v).Kind() == reflect.Pointer && reflect.ValueOf(v).IsNil()) {
			attr.Value = slog.StringValue("<nil>")
		} else {
			attr.Value = slog.StringValue(v.String())
		}
	}
	return attr
}

package logstream

import (
	"bytes"
	"regexp"
)

// Filter post-processes bytes before they are decoded as text. It may
// modify b in place and returns the result.
type Filter interface {
	Filter(b []byte) []byte
}

// FilterFunc adapts a function to the Filter interface.
type FilterFunc func(b []byte) []byte

// Filter calls f.
func (f FilterFunc) Filter(b []byte) []byte {
	return f(b)
}

// Chain applies filters in order. Nil filters are skipped.
func Chain(filters ...Filter) Filter {
	return FilterFunc(func(b []byte) []byte {
		for _, f := range filters {
			if f != nil {
				b = f.Filter(b)
			}
		}
		return b
	})
}

// Redact replaces every match of re with replacement.
func Redact(re *regexp.Regexp, replacement string) Filter {
	repl := []byte(replacement)
	return FilterFunc(func(b []byte) []byte {
		return re.ReplaceAll(b, repl)
	})
}

// TrimCR drops carriage returns, turning CRLF line endings into LF.
var TrimCR Filter = FilterFunc(func(b []byte) []byte {
	return removeByte(b, '\r')
})

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

// StripANSI removes terminal escape sequences such as colors.
var StripANSI Filter = FilterFunc(func(b []byte) []byte {
	return ansiEscape.ReplaceAll(b, nil)
})

// removeByte deletes every c from b in place.
func removeByte(b []byte, c byte) []byte {
	if bytes.IndexByte(b, c) < 0 {
		return b
	}
	out := b[:0]
	for _, x := range b {
		if x != c {
			out = append(out, x)
		}
	}
	return out
}

func stripNUL(b []byte) []byte {
	return removeByte(b, 0)
}

// Package numfmt converts between numeric values and grouped decimal strings
// that use "." for thousands and "," for decimals, e.g. 1234.5 <-> "1.234,50".
package numfmt

import (
	"strconv"
	"strings"
)

const (
	DefaultDecimalLimit = 4

	thousandsSep = '.'
	decimalSep   = ','
	minFraction  = 2
)

type Formatter struct {
	decimalLimit int
}

type Option func(f *Formatter)

func WithDecimalLimit(limit int) Option {
	return func(f *Formatter) {
		if limit >= 0 {
			f.decimalLimit = limit
		}
	}
}

func NewFormatter(opts ...Option) Formatter {
	f := Formatter{decimalLimit: DefaultDecimalLimit}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

func (f Formatter) DecimalLimit() int {
	return f.decimalLimit
}

// Sanitize keeps digits and the first comma, dropping every other character,
// and truncates the fraction to the decimal limit.
func (f Formatter) Sanitize(input string) string {
	var b strings.Builder
	b.Grow(len(input))

	seenComma := false
	fraction := 0
	for _, r := range input {
		switch {
		case r >= '0' && r <= '9':
			if seenComma {
				if fraction >= f.decimalLimit {
					continue
				}
				fraction++
			}
			b.WriteRune(r)
		case r == decimalSep && !seenComma:
			seenComma = true
			b.WriteRune(r)
		}
	}

	return b.String()
}

// Parse reads a display string back into a number. Anything that is not a
// valid number yields 0.
func (f Formatter) Parse(display string) float64 {
	s := strings.ReplaceAll(display, string(thousandsSep), "")
	s = strings.Replace(s, string(decimalSep), ".", 1)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Format produces the canonical representation shown when the input is not
// focused. Empty input stays empty.
func (f Formatter) Format(display string) string {
	s := f.Sanitize(display)
	if s == "" {
		return ""
	}

	intPart, fracPart, _ := strings.Cut(s, string(decimalSep))
	if intPart == "" {
		intPart = "0"
	}
	for len(fracPart) < minFraction {
		fracPart += "0"
	}

	return GroupThousands(intPart) + string(decimalSep) + fracPart
}

// FormatValue renders a model value. Zero renders as an empty field.
func (f Formatter) FormatValue(v float64) string {
	if v == 0 {
		return ""
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	return f.Format(strings.Replace(s, ".", string(decimalSep), 1))
}

// GroupThousands inserts a dot between every group of three digits counted
// from the right.
func GroupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}

	var b strings.Builder
	b.Grow(n + n/3)

	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(thousandsSep)
		}
		b.WriteString(digits[i : i+3])
	}

	return b.String()
}

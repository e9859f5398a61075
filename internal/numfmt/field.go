package numfmt

// Field holds the display state of one formatted numeric input. While focused
// it shows what the user typed (minus disallowed characters); Blur applies the
// canonical grouping and padding.
type Field struct {
	formatter Formatter
	display   string
	value     float64
	focused   bool
	// stale is set when the value changed from outside during focus.
	stale    bool
	onChange func(float64)
}

func NewField(formatter Formatter, value float64, onChange func(float64)) *Field {
	return &Field{
		formatter: formatter,
		display:   formatter.FormatValue(value),
		value:     value,
		onChange:  onChange,
	}
}

// SetValue replaces the model value from outside, e.g. after a reset. The
// display follows immediately when unfocused and on the next Blur otherwise,
// unless the user types again first.
func (f *Field) SetValue(v float64) {
	f.value = v
	if !f.focused {
		f.display = f.formatter.FormatValue(v)
		return
	}
	f.stale = true
}

func (f *Field) Focus() {
	f.focused = true
}

// Input handles one edit and returns the new model value.
func (f *Field) Input(raw string) float64 {
	f.display = f.formatter.Sanitize(raw)
	f.value = f.formatter.Parse(f.display)
	f.stale = false

	if f.onChange != nil {
		f.onChange(f.value)
	}

	return f.value
}

func (f *Field) Blur() {
	f.focused = false
	if f.stale {
		f.stale = false
		f.display = f.formatter.FormatValue(f.value)
		return
	}
	f.display = f.formatter.Format(f.display)
}

func (f *Field) Display() string {
	return f.display
}

func (f *Field) Value() float64 {
	return f.value
}

func (f *Field) Focused() bool {
	return f.focused
}

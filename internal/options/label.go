package options

// LabelMode selects which label output accompanies synthesis.
type LabelMode int

// Label modes selected by the -l flag.
const (
	LabelDisabled LabelMode = iota
	LabelNormal
	LabelTimed
	LabelMono
)

// ParseLabelMode maps the first character of a -l value to a mode.
// Unrecognized or empty values fall back to LabelDisabled instead of failing.
func ParseLabelMode(value string) LabelMode {
	if value == "" {
		return LabelDisabled
	}

	switch value[0] {
	case 'n':
		return LabelNormal
	case 't':
		return LabelTimed
	case 'm':
		return LabelMono
	default:
		return LabelDisabled
	}
}

// Flag returns the -l character for the mode.
func (m LabelMode) Flag() string {
	switch m {
	case LabelNormal:
		return "n"
	case LabelTimed:
		return "t"
	case LabelMono:
		return "m"
	default:
		return "d"
	}
}

func (m LabelMode) String() string {
	switch m {
	case LabelNormal:
		return "normal"
	case LabelTimed:
		return "timed"
	case LabelMono:
		return "mono"
	default:
		return "disabled"
	}
}

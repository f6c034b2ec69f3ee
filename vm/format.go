package vm

import (
	"strconv"
	"strings"
)

// FormatValue formats a value the way echo prints it
func FormatValue(v Value) string {
	switch val := v.(type) {
	case UndefValue, nil:
		return "undef"
	case BoolValue:
		if val {
			return "true"
		}
		return "false"
	case NumberValue:
		return formatNumber(float64(val))
	case StrValue:
		return strconv.Quote(string(val))
	case VectorValue:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = FormatValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case RangeValue:
		return "[" + formatNumber(val.Begin) + " : " + formatNumber(val.Step) + " : " + formatNumber(val.End) + "]"
	case FunctionValue:
		if val.Name != "" {
			return "<function:" + val.Name + ">"
		}
		return "<function>"
	default:
		return "<unknown>"
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

package entities

import (
	"fmt"
	"strconv"
)

var shortUnits = []struct {
	size   int64
	suffix string
}{
	{1_000_000_000, "B"},
	{1_000_000, "M"},
}

// FormatShortNotation renders a fireworks amount compactly: 999, 1.5k, 25k, 1.25M, 3.00B.
// Thousands are truncated, never rounded up, so a displayed balance is never more than
// the account holds.
func FormatShortNotation(value int64) string {
	if value < 0 {
		return "-" + FormatShortNotation(-value)
	}

	for _, unit := range shortUnits {
		if value >= unit.size {
			return fmt.Sprintf("%.2f%s", float64(value)/float64(unit.size), unit.suffix)
		}
	}
	if value >= 10_000 {
		return strconv.FormatInt(value/1_000, 10) + "k"
	}
	if value >= 1_000 {
		return fmt.Sprintf("%d.%dk", value/1_000, value%1_000/100)
	}
	return strconv.FormatInt(value, 10)
}

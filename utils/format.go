package utils

import (
	"math"
	"strconv"
	"time"
)

// RoundHours rounds to two decimals, the precision hours are stored with.
func RoundHours(hours float64) float64 {
	return math.Round(hours*100) / 100
}

// FormatHours renders hours without trailing zeros: 240 -> "240", 7.5 -> "7.5".
func FormatHours(hours float64) string {
	return strconv.FormatFloat(RoundHours(hours), 'f', -1, 64)
}

// FormatDate renders a date the way certificates print it, or "-" when unknown.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("02 January 2006")
}

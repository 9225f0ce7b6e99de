package report

import (
	"fmt"
	"math"
	"strconv"

	"github.com/claude/runplan/internal/progression"
)

// StableRate is the magnitude below which a rate is reported as a plateau.
const StableRate = 0.01

const (
	msgUnbounded  = "Target mileage is approached asymptotically (never fully reached)"
	msgOutOfRange = "Mileage %s is outside valid range"
)

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Number formats v without trailing zeros.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Interpret describes a rate of change in words.
func Interpret(week, rate float64) string {
	prefix := fmt.Sprintf("At week %s, mileage ", Number(week))
	switch {
	case math.Abs(rate) < StableRate:
		return prefix + "is stable (plateau reached)"
	case rate > 0:
		return prefix + fmt.Sprintf("increases by %.3f miles per week", math.Abs(rate))
	default:
		return prefix + fmt.Sprintf("decreases by %.3f miles per week", math.Abs(rate))
	}
}

// WeekMessage explains a week lookup that found no finite week. It is empty
// for WeekFound.
func WeekMessage(res progression.WeekResult, mileage float64) string {
	switch res.Status {
	case progression.WeekUnbounded:
		return msgUnbounded
	case progression.WeekNoSolution:
		return fmt.Sprintf(msgOutOfRange, Number(mileage))
	}
	return ""
}

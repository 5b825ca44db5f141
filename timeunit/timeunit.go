// Package timeunit converts between musical time notation, transport ticks,
// and seconds.
//
// Recognized notation:
//
//	"1.5"      seconds
//	"1.5s"     seconds
//	"96i"      ticks
//	"4n"       note value (a quarter note here); "4n." is dotted, "8t" triplet
//	"2m"       measures
//	"1:2:0"    bars:beats:sixteenths
//	"+4n"      any of the above, relative to the time it is resolved at
//	""         now
package timeunit

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sarchlab/randloop/sim/timing"
)

// Time is a position or duration written in the notation of this package.
type Time string

// Now refers to the current transport time.
const Now Time = ""

// ErrInvalidNotation is returned when a Time cannot be parsed.
var ErrInvalidNotation = errors.New("timeunit: invalid time notation")

// Unit identifies the magnitude of a parsed Expr.
type Unit int

// The units an Expr can be expressed in.
const (
	UnitSeconds Unit = iota
	UnitTicks
	UnitQuarters
)

// Expr is a parsed Time. For UnitQuarters, the length is Bars measures plus
// Value quarter notes, so bar lengths follow the Converter's time signature.
type Expr struct {
	Relative bool
	Unit     Unit
	Value    float64
	Bars     float64
}

// Seconds formats a duration in seconds as a Time.
func Seconds(sec float64) Time {
	return Time(strconv.FormatFloat(sec, 'f', -1, 64))
}

// Ticks formats a tick count as a Time.
func Ticks(ticks timing.VTimeInTick) Time {
	return Time(strconv.FormatUint(uint64(ticks), 10) + "i")
}

// Relative turns t into an offset from the time it is resolved at.
func Relative(t Time) Time {
	if strings.HasPrefix(string(t), "+") {
		return t
	}

	return "+" + t
}

// Parse reads a Time into an Expr.
func Parse(t Time) (Expr, error) {
	s := strings.TrimSpace(string(t))
	expr := Expr{}

	if strings.HasPrefix(s, "+") {
		expr.Relative = true
		s = strings.TrimSpace(s[1:])
	}

	if s == "" {
		expr.Relative = true
		expr.Unit = UnitTicks
		return expr, nil
	}

	var err error
	switch {
	case strings.Contains(s, ":"):
		expr.Unit = UnitQuarters
		expr.Bars, expr.Value, err = parseBarsBeats(s)
	case strings.HasSuffix(s, "i"):
		expr.Unit = UnitTicks
		expr.Value, err = parseNumber(strings.TrimSuffix(s, "i"))
	case strings.HasSuffix(s, "m"):
		expr.Unit = UnitQuarters
		expr.Bars, err = parseNumber(strings.TrimSuffix(s, "m"))
	case strings.HasSuffix(s, "s"):
		expr.Unit = UnitSeconds
		expr.Value, err = parseNumber(strings.TrimSuffix(s, "s"))
	case strings.ContainsAny(s, "nt"):
		expr.Unit = UnitQuarters
		expr.Value, err = parseNoteValue(s)
	default:
		expr.Unit = UnitSeconds
		expr.Value, err = parseNumber(s)
	}

	if err != nil {
		return Expr{}, fmt.Errorf("%w: %q: %v", ErrInvalidNotation, string(t), err)
	}

	return expr, nil
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}

	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("value %v out of range", v)
	}

	return v, nil
}

// parseNoteValue returns the length of a note value in quarter notes.
func parseNoteValue(s string) (float64, error) {
	dotted := strings.HasSuffix(s, ".")
	s = strings.TrimSuffix(s, ".")

	if len(s) < 2 {
		return 0, errors.New("missing subdivision")
	}

	kind := s[len(s)-1]
	div, err := parseNumber(s[:len(s)-1])
	if err != nil {
		return 0, err
	}

	if div == 0 {
		return 0, errors.New("subdivision cannot be 0")
	}

	quarters := 4 / div
	switch kind {
	case 'n':
	case 't':
		quarters *= 2.0 / 3.0
	default:
		return 0, fmt.Errorf("unknown note kind %q", kind)
	}

	if dotted {
		quarters *= 1.5
	}

	return quarters, nil
}

// parseBarsBeats reads "bars:beats:sixteenths" into bars and quarters.
func parseBarsBeats(s string) (bars, quarters float64, err error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, 0, errors.New("too many fields")
	}

	values := [3]float64{}
	for i, p := range parts {
		values[i], err = parseNumber(p)
		if err != nil {
			return 0, 0, err
		}
	}

	return values[0], values[1] + values[2]/4, nil
}

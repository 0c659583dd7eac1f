package model

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numberRegex = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// Amount is the value of a transaction, kept as the text Python's json module writes for it.
// Integers keep every digit while floats use Python's repr, so 10.0 stays "10.0" and 1e17
// becomes "1e+17". Block hashes depend on this text.
type Amount string

// NewAmount formats f the way Python's repr does for a float.
func NewAmount(f float64) Amount {
	e := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	// Python switches to exponent notation outside of 1e-4 <= |f| < 1e16.
	if exp < -4 || exp >= 16 {
		return Amount(e)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return Amount(s)
}

// ParseAmount reads a JSON number literal. A literal with a fraction or an exponent is a float,
// anything else an integer of any size. Non finite values wrap ErrClientInput.
func ParseAmount(s string) (Amount, error) {
	if !numberRegex.MatchString(s) {
		return "", fmt.Errorf("%w: %q is not a number", ErrClientInput, s)
	}
	if !strings.ContainsAny(s, ".eE") {
		if s == "-0" {
			return "0", nil
		}
		return Amount(s), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: %s is not a finite number", ErrClientInput, s)
	}
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return "", fmt.Errorf("%w: %v", ErrClientInput, err)
	}
	return NewAmount(f), nil
}

// Float64 returns the closest float64. Integers beyond 2^53 lose precision.
func (a Amount) Float64() float64 {
	f, _ := strconv.ParseFloat(string(a), 64)
	return f
}

func (a Amount) String() string {
	if a == "" {
		return "0"
	}
	return string(a)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// UnmarshalYAML accepts the same literals as JSON, e.g. mining_reward: 1 or 1.0.
func (a *Amount) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

package domain

import (
	"fmt"
	"strings"
)

const kgToLb = 2.2046226218

// Unit is a display unit for weight values. Records are always kept in
// kilograms; conversion only happens at the edge.
type Unit string

// Supported display units.
const (
	Kilograms Unit = "kg"
	Pounds    Unit = "lb"
)

// ParseUnit accepts "kg" or "lb" (and the common spellings "kgs", "lbs").
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "kg", "kgs":
		return Kilograms, nil
	case "lb", "lbs":
		return Pounds, nil
	}
	return "", fmt.Errorf("unit must be %q or %q, got %q", Kilograms, Pounds, s)
}

// FromKilograms converts a kilogram value into u.
func (u Unit) FromKilograms(v float64) float64 {
	if u == Pounds {
		return v * kgToLb
	}
	return v
}

// Package ehex implements the extended hexadecimal digits used by Traveller
// profile strings (UWP and UPP).
package ehex

import (
	"errors"
	"fmt"
)

// Alphabet lists every digit in value order.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// MaxValue is the largest value representable by a single digit.
const MaxValue = len(Alphabet) - 1

// ErrOutOfRange is returned when a value has no single-digit representation.
var ErrOutOfRange = errors.New("ehex: value out of range")

// ErrInvalidDigit is returned when a byte is not part of Alphabet.
var ErrInvalidDigit = errors.New("ehex: invalid digit")

// Digit returns the digit encoding v.
//
// Precondition: 0 <= v <= MaxValue.
// Postcondition: Returns an uppercase digit, or ErrOutOfRange.
func Digit(v int) (byte, error) {
	if v < 0 || v > MaxValue {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, v)
	}
	return Alphabet[v], nil
}

// Value decodes a single digit. Letters are accepted in either case.
//
// Postcondition: Returns a value in [0, MaxValue], or ErrInvalidDigit.
func Value(c byte) (int, error) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), nil
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10, nil
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDigit, c)
}

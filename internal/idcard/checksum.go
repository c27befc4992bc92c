package idcard

import (
	"errors"
	"strings"
)

// AadhaarLength is the number of digits in an Aadhaar number
const AadhaarLength = 12

// ErrInvalidDigits indicates input that is not a plain digit string
var ErrInvalidDigits = errors.New("input must contain only digits")

// Verhoeff dihedral group D5 multiplication table
var verhoeffD = [10][10]int{
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
	{1, 2, 3, 4, 0, 6, 7, 8, 9, 5},
	{2, 3, 4, 0, 1, 7, 8, 9, 5, 6},
	{3, 4, 0, 1, 2, 8, 9, 5, 6, 7},
	{4, 0, 1, 2, 3, 9, 5, 6, 7, 8},
	{5, 9, 8, 7, 6, 0, 4, 3, 2, 1},
	{6, 5, 9, 8, 7, 1, 0, 4, 3, 2},
	{7, 6, 5, 9, 8, 2, 1, 0, 4, 3},
	{8, 7, 6, 5, 9, 3, 2, 1, 0, 4},
	{9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
}

// Position-dependent digit permutations, selected by position mod 8
var verhoeffP = [8][10]int{
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
	{1, 5, 7, 6, 2, 8, 3, 0, 9, 4},
	{5, 8, 0, 3, 7, 9, 6, 1, 4, 2},
	{8, 9, 1, 6, 0, 4, 3, 5, 2, 7},
	{9, 4, 5, 3, 1, 2, 6, 8, 7, 0},
	{4, 2, 8, 6, 5, 7, 3, 9, 0, 1},
	{2, 7, 9, 3, 8, 0, 6, 4, 1, 5},
	{7, 0, 4, 6, 9, 1, 3, 2, 5, 8},
}

var verhoeffInv = [10]int{0, 4, 3, 2, 1, 5, 6, 7, 8, 9}

// CleanDigits strips every non-digit character
func CleanDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateAadhaar reports whether s, once stripped of non-digits, is a
// well-formed Aadhaar number: 12 digits, not starting with 0 or 1, and
// carrying a valid Verhoeff check digit.
func ValidateAadhaar(s string) bool {
	cleaned := CleanDigits(s)

	if len(cleaned) != AadhaarLength {
		return false
	}

	// 0 and 1 are reserved leading digits
	if cleaned[0] == '0' || cleaned[0] == '1' {
		return false
	}

	return Verhoeff(cleaned)
}

// Verhoeff reports whether digits carries a valid trailing check digit.
// Anything other than a non-empty digit string fails.
func Verhoeff(digits string) bool {
	if digits == "" {
		return false
	}

	c := 0
	for i := 0; i < len(digits); i++ {
		d := digits[len(digits)-1-i]
		if d < '0' || d > '9' {
			return false
		}
		c = verhoeffD[c][verhoeffP[i%8][d-'0']]
	}

	return c == 0
}

// CheckDigit computes the Verhoeff check digit to append to digits
func CheckDigit(digits string) (int, error) {
	if digits == "" {
		return 0, ErrInvalidDigits
	}

	c := 0
	for i := 0; i < len(digits); i++ {
		d := digits[len(digits)-1-i]
		if d < '0' || d > '9' {
			return 0, ErrInvalidDigits
		}
		c = verhoeffD[c][verhoeffP[(i+1)%8][d-'0']]
	}

	return verhoeffInv[c], nil
}

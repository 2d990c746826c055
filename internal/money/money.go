// Package money implements the fixed-point arithmetic used across the bot.
// Every monetary amount, percentage and odds value is an int64 in
// hundredths (two implicit decimal places). Floats never touch storage.
package money

import (
	"fmt"
	"strconv"
	"strings"
)

// DivRound divides num by den rounding to the nearest integer, ties away
// from zero. den must be positive.
func DivRound(num, den int64) int64 {
	if den <= 0 {
		panic("money: non-positive divisor")
	}
	if num >= 0 {
		return (num + den/2) / den
	}
	return -((-num + den/2) / den)
}

// ParseFixed parses a decimal literal ("2.20", "2,2", "3") into hundredths.
// Both "," and "." are accepted as the decimal separator; at most two
// fractional digits are kept.
func ParseFixed(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	neg := false
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		neg = true
		s = s[1:]
	}
	if strings.ContainsAny(s, "+-") {
		return 0, fmt.Errorf("bad number %q", s)
	}
	s = strings.ReplaceAll(s, ",", ".")
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	var cents int64
	switch len(fracPart) {
	case 0:
	case 1:
		d, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad number %q", s)
		}
		cents = d * 10
	default:
		d, err := strconv.ParseInt(fracPart[:2], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad number %q", s)
		}
		cents = d
	}
	v := whole*100 + cents
	if neg {
		v = -v
	}
	return v, nil
}

// FormatFixed renders hundredths with the Italian decimal comma: 220 →
// "2,20".
func FormatFixed(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d,%02d", sign, v/100, v%100)
}

// FormatEuro renders hundredths as a euro amount: 10060 → "100,60€".
func FormatEuro(v int64) string { return FormatFixed(v) + "€" }

// FormatPct renders hundredths of a percent: 500 → "5,00%".
func FormatPct(v int64) string { return FormatFixed(v) + "%" }

// FormatSignedEuro always carries a sign: 60 → "+0,60€".
func FormatSignedEuro(v int64) string {
	if v >= 0 {
		return "+" + FormatEuro(v)
	}
	return FormatEuro(v)
}

// FormatSignedPct always carries a sign: 360 → "+3,60%".
func FormatSignedPct(v int64) string {
	if v >= 0 {
		return "+" + FormatPct(v)
	}
	return FormatPct(v)
}

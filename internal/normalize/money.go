package normalize

import (
	"math"
	"strconv"
	"strings"
)

// DollarsToCents converts a nullable float64 dollar amount to nullable int64 cents.
// Uses math.Round to avoid truncation bias.
func DollarsToCents(v *float64) *int64 {
	if v == nil {
		return nil
	}
	c := int64(math.Round(*v * 100))
	return &c
}

// RoundCents rounds a computed dollar amount to integer cents.
func RoundCents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}

var moneyStrip = strings.NewReplacer("$", "", "USD", "", ",", "", " ", "")

// ParseMoney parses heterogeneous currency representations into integer
// cents: symbol and comma stripping, parenthesis-as-negative, leading or
// trailing minus. Returns ok=false for anything non-numeric; the caller
// must treat that as "not detected", never as zero.
func ParseMoney(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = moneyStrip.Replace(s)
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasSuffix(s, "-") {
		neg = true
		s = s[:len(s)-1]
	}
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	cents := int64(math.Round(v * 100))
	if neg {
		cents = -cents
	}
	return cents, true
}

// FormatCents renders integer cents as a dollar string, e.g. -1050 -> "-$10.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + "$" + strconv.FormatInt(cents/100, 10) + "." +
		strconv.FormatInt(cents%100/10, 10) + strconv.FormatInt(cents%10, 10)
}

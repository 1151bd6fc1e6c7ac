package domain

import (
	"sort"
	"strings"
)

// CompareAreaCodes orders two area codes naturally. Pure-letter codes sort
// lexically. Codes with a leading integer sort by that integer first and
// any trailing letters second, so "10" comes after "2" and "9B" after
// "4A". Numeric-leading codes precede pure-letter codes when the families
// mix.
func CompareAreaCodes(a, b string) int {
	aNum, aSuffix, aNumeric := splitAreaCode(a)
	bNum, bSuffix, bNumeric := splitAreaCode(b)

	switch {
	case aNumeric && !bNumeric:
		return -1
	case !aNumeric && bNumeric:
		return 1
	case aNumeric && bNumeric:
		if aNum != bNum {
			if aNum < bNum {
				return -1
			}
			return 1
		}
		return strings.Compare(aSuffix, bSuffix)
	default:
		return strings.Compare(aSuffix, bSuffix)
	}
}

// SortAreaCodes sorts area codes in natural order, in place.
func SortAreaCodes(codes []string) {
	sort.SliceStable(codes, func(i, j int) bool {
		return CompareAreaCodes(codes[i], codes[j]) < 0
	})
}

// splitAreaCode parses a code into its leading integer (when present) and
// an upper-cased remainder used for lexical comparison.
func splitAreaCode(code string) (number int, suffix string, numeric bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	idx := 0
	for idx < len(code) && code[idx] >= '0' && code[idx] <= '9' {
		number = number*10 + int(code[idx]-'0')
		idx++
	}
	if idx == 0 {
		return 0, code, false
	}
	return number, code[idx:], true
}

package lastquery

import (
	"fmt"
	"strconv"
	"strings"
)

// maxRange bounds a single "a-b" range.
const maxRange = 1000

// ParseNumbers parses result numbers written as "1", "1,3,5", "2-4" or any
// mix of those separated by commas or spaces. Duplicates are dropped and the
// first occurrence keeps its place.
func ParseNumbers(input string) ([]int, error) {
	parts := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no numbers given", ErrInvalidNumber)
	}

	var out []int
	seen := make(map[int]bool)
	for _, part := range parts {
		lo, hi, err := parsePart(part)
		if err != nil {
			return nil, err
		}
		for n := lo; n <= hi; n++ {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out, nil
}

// ParseNumberArgs parses each argument with ParseNumbers, so
// `last 1 3-4` and `last 1,3-4` agree.
func ParseNumberArgs(args []string) ([]int, error) {
	return ParseNumbers(strings.Join(args, ","))
}

func parsePart(part string) (lo, hi int, err error) {
	from, to, isRange := strings.Cut(part, "-")
	if lo, err = parsePositive(from); err != nil {
		return 0, 0, err
	}
	if !isRange {
		return lo, lo, nil
	}
	if hi, err = parsePositive(to); err != nil {
		return 0, 0, err
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("%w: range %q ends before it starts", ErrInvalidNumber, part)
	}
	if hi-lo+1 > maxRange {
		return 0, 0, fmt.Errorf("%w: range %q is too large (max %d)", ErrInvalidNumber, part, maxRange)
	}
	return lo, hi, nil
}

func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidNumber, s)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %d must be positive", ErrInvalidNumber, n)
	}
	return n, nil
}

package service

import (
	"strconv"
	"strings"
)

// IsNumberInRange reports whether number falls under rangeSpec, which is
// either a single number ("7") or an inclusive range ("10-19"). Malformed
// input never matches, so callers can iterate every configured limit
// without pre-validating the stored specs.
func IsNumberInRange(number, rangeSpec string) bool {
	number = strings.TrimSpace(number)
	rangeSpec = strings.TrimSpace(rangeSpec)

	n, err := strconv.Atoi(number)
	if err != nil {
		return false
	}

	if rangeSpec == number {
		return true
	}

	if parts := strings.Split(rangeSpec, "-"); len(parts) == 2 {
		start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return false
		}
		end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return false
		}
		if start > end {
			return false
		}
		return start <= n && n <= end
	}

	single, err := strconv.Atoi(rangeSpec)
	if err != nil {
		return false
	}
	return single == n
}

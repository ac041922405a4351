package httputil

import (
	"fmt"
	"strconv"
)

// ParseLimitOffset parses and validates limit/offset query parameters.
// Returns (limit, offset, error). Defaults: limit=20, offset=0.
func ParseLimitOffset(limitStr, offsetStr string) (int, int, error) {
	limit := 20
	offset := 0

	if limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid limit parameter: must be an integer")
		}
		if l < 1 || l > 100 {
			return 0, 0, fmt.Errorf("limit must be between 1 and 100")
		}
		limit = l
	}

	if offsetStr != "" {
		o, err := strconv.Atoi(offsetStr)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid offset parameter: must be an integer")
		}
		if o < 0 {
			o = 0
		}
		offset = o
	}

	return limit, offset, nil
}

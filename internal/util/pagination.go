package util

import "strconv"

const (
	MaxPageSize = 100
	MaxPage     = 1 << 24
)

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// ParseFloatDefault is ParseIntDefault for prices. Unparseable input yields def.
func ParseFloatDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return def
}

// Normalize clamps page to [1, MaxPage] and size to [1, MaxPageSize], using def for non-positive sizes.
func Normalize(page, size, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size < 1 {
		size = def
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

func Calculate(page, size int) (offset int, limit int) {
	if page < 1 {
		page = 1
	}
	offset = (page - 1) * size
	limit = size
	return offset, limit
}

func TotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

package util

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitAndTrim splits s on commas, trimming spaces and dropping empty parts.
func SplitAndTrim(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseInts parses a comma-separated list of integers in [lo, hi].
func ParseInts(s string, lo, hi int) ([]int, error) {
	var out []int
	for _, p := range SplitAndTrim(s) {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		if n < lo || n > hi {
			return nil, fmt.Errorf("%d out of range [%d,%d]", n, lo, hi)
		}
		out = append(out, n)
	}
	return out, nil
}

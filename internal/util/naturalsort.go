package util

import "strings"

// NaturalSortLess orders names so that runs of digits compare by value,
// "file2.xml" before "file10.xml". Text runs compare case-insensitively and
// a digit run sorts before a text run at the same position.
func NaturalSortLess(a, b string) bool {
	for {
		ca, restA, okA := nextChunk(a)
		cb, restB, okB := nextChunk(b)
		if !okA || !okB {
			return !okA && okB
		}
		if c := compareChunks(ca, cb); c != 0 {
			return c < 0
		}
		a, b = restA, restB
	}
}

type chunk struct {
	text  string
	digit bool
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func nextChunk(s string) (chunk, string, bool) {
	if s == "" {
		return chunk{}, "", false
	}
	digit := isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == digit {
		i++
	}
	return chunk{text: s[:i], digit: digit}, s[i:], true
}

func compareChunks(x, y chunk) int {
	switch {
	case x.digit && !y.digit:
		return -1
	case !x.digit && y.digit:
		return 1
	case x.digit:
		return compareDigits(x.text, y.text)
	default:
		return strings.Compare(strings.ToLower(x.text), strings.ToLower(y.text))
	}
}

// compareDigits compares digit runs by value; runs of any length are fine.
func compareDigits(x, y string) int {
	x = strings.TrimLeft(x, "0")
	y = strings.TrimLeft(y, "0")
	if len(x) != len(y) {
		if len(x) < len(y) {
			return -1
		}
		return 1
	}
	return strings.Compare(x, y)
}

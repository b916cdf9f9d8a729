package util

import (
	"errors"
	"strings"
	"unicode"
)

// SanitizeFileName removes path separators and control characters and
// rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	if s == "" || s == "." {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

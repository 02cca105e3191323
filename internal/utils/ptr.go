package utils

import "strings"

func Ptr[T any](v T) *T {
	return &v
}

// StringOrNil trims s and returns nil when nothing is left.
func StringOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// TrimmedOrNil is StringOrNil for optional request fields.
func TrimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	return StringOrNil(*s)
}

package models

import "strconv"

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// formatFloat renders f the shortest way that round-trips ("12.5", "3").
func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// StringPtr returns a pointer to s. Handy for fixtures and importers.
func StringPtr(s string) *string { return &s }

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 { return &f }

// Int64Ptr returns a pointer to i.
func Int64Ptr(i int64) *int64 { return &i }

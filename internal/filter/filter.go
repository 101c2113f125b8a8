// Package filter narrows record lists by a free-text query and single-select
// category filters. Filtering is pure and keeps input order.
package filter

import "strings"

// All is the category value that disables a category filter.
const All = "all"

// Field extracts one searchable value from a record.
type Field[T any] func(T) string

// Category is a single-select filter over a resolved field.
type Category[T any] struct {
	Value string
	Key   func(T) string
	// Match compares a record's key with Value. Nil means case-insensitive
	// equality.
	Match func(key, value string) bool
}

// Eq builds an equality category.
func Eq[T any](value string, key func(T) string) Category[T] {
	return Category[T]{Value: value, Key: key}
}

// Contains builds a case-insensitive substring category.
func Contains[T any](value string, key func(T) string) Category[T] {
	return Category[T]{Value: value, Key: key, Match: containsFold}
}

// Active reports whether the category filters anything.
func (c Category[T]) Active() bool {
	v := strings.TrimSpace(c.Value)
	return v != "" && !strings.EqualFold(v, All) && c.Key != nil
}

func (c Category[T]) matches(rec T) bool {
	if !c.Active() {
		return true
	}
	key := c.Key(rec)
	if c.Match != nil {
		return c.Match(key, c.Value)
	}
	return strings.EqualFold(strings.TrimSpace(key), strings.TrimSpace(c.Value))
}

// Matches reports whether any field of rec contains query.
func Matches[T any](rec T, query string, fields []Field[T]) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return true
	}
	for _, f := range fields {
		if containsFold(f(rec), q) {
			return true
		}
	}
	return false
}

// Apply returns the records matching query and every active category, in
// input order. The result is always a new slice.
func Apply[T any](records []T, query string, fields []Field[T], cats ...Category[T]) []T {
	out := make([]T, 0, len(records))
outer:
	for _, rec := range records {
		if !Matches(rec, query, fields) {
			continue
		}
		for _, c := range cats {
			if !c.matches(rec) {
				continue outer
			}
		}
		out = append(out, rec)
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}

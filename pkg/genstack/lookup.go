package genstack

import (
	"errors"
	"fmt"
)

// ErrNoAnnotation is returned by lookups that have no annotation for a field.
var ErrNoAnnotation = errors.New("no field annotation")

// AnnotationLookup resolves the declared type text of a field of t.
type AnnotationLookup interface {
	FieldAnnotation(t *TypeRef, field string) (string, error)
}

// LookupFunc adapts a function to AnnotationLookup.
type LookupFunc func(t *TypeRef, field string) (string, error)

// FieldAnnotation calls f.
func (f LookupFunc) FieldAnnotation(t *TypeRef, field string) (string, error) {
	return f(t, field)
}

// DeclaredFields looks fields up in TypeRef.Fields.
var DeclaredFields = LookupFunc(func(t *TypeRef, field string) (string, error) {
	if text := t.Fields[field]; text != "" {
		return text, nil
	}
	return "", fmt.Errorf("%s.%s: %w", t.Name, field, ErrNoAnnotation)
})

// Chain tries each lookup in order and returns the first annotation found.
type Chain []AnnotationLookup

// FieldAnnotation implements AnnotationLookup.
func (c Chain) FieldAnnotation(t *TypeRef, field string) (string, error) {
	var errs []error
	for _, l := range c {
		text, err := l.FieldAnnotation(t, field)
		if err == nil && text != "" {
			return text, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("%s.%s: %w", t.Name, field, ErrNoAnnotation)
	}
	return "", errors.Join(errs...)
}

// Package catalog normalizes heterogeneous service records (CSV rows or
// loosely-typed JSON) into the validated, sorted catalog the storefront
// serves. Normalization is a two-stage pipeline: coerce the raw record
// into a draft with named coercion failures, then validate the draft
// against the schema rules.
package catalog

import "fmt"

// ValidationError names the service (and, when relevant, the field) a
// record failed on, so operators can fix the input in one pass.
type ValidationError struct {
	Service string // best available label: name, slug or "<unknown>"
	Field   string // optional, e.g. "variants[1].price"
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("service %q: %s: %s", e.Service, e.Field, e.Reason)
	}
	return fmt.Sprintf("service %q: %s", e.Service, e.Reason)
}

func invalid(service, field, reason string) *ValidationError {
	return &ValidationError{Service: service, Field: field, Reason: reason}
}

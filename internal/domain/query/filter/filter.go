// Package filter validates and evaluates where-clause constraints.
//
// The document store only allows range (<, <=, >, >=) and not-equals (!=)
// comparisons on a single field per query. Check and Compatible enforce that
// rule before a constraint list is turned into a chained query.
package filter

import "fmt"

// Constraint is a single field/comparator/value condition.
// Value is opaque here; its shape is the store's concern.
type Constraint struct {
	Field      string
	Comparator Comparator
	Value      any
}

// New creates a Constraint from a raw operator symbol without validating it.
func New(field, op string, value any) Constraint {
	return Constraint{Field: field, Comparator: Comparator(op), Value: value}
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Comparator, c.Value)
}

// Reason explains why a constraint list was rejected.
type Reason string

const (
	// ReasonNone is set on valid results.
	ReasonNone Reason = ""
	// ReasonUnknownComparator means a constraint used an unrecognized operator.
	ReasonUnknownComparator Reason = "unknown_comparator"
	// ReasonMultipleRestrictiveFields means range or not-equals comparisons span two fields.
	ReasonMultipleRestrictiveFields Reason = "multiple_restrictive_fields"
)

// Result is the outcome of Check.
type Result struct {
	Valid  bool
	Reason Reason
	// Index of the constraint that failed the scan.
	Index int
	// Field of the failing constraint.
	Field      string
	Comparator Comparator
	// ConflictingField is the previously committed restrictive field.
	ConflictingField string
	// RangeField is the single restrictive field of a valid list, if any.
	RangeField string
}

func (r Result) String() string {
	switch r.Reason {
	case ReasonUnknownComparator:
		return fmt.Sprintf("invalid comparator %q on field %q", r.Comparator, r.Field)
	case ReasonMultipleRestrictiveFields:
		return fmt.Sprintf(
			"range or not-equals comparisons on two different fields %q and %q",
			r.ConflictingField, r.Field,
		)
	default:
		return "ok"
	}
}

// Compatible reports whether constraints can be applied as one chained query.
func Compatible(constraints []Constraint) bool {
	return Check(constraints).Valid
}

// Check scans constraints in order and stops at the first violation.
func Check(constraints []Constraint) Result {
	var (
		committed    string
		hasCommitted bool
	)

	for i, c := range constraints {
		if !c.Comparator.IsValid() {
			return Result{
				Reason:     ReasonUnknownComparator,
				Index:      i,
				Field:      c.Field,
				Comparator: c.Comparator,
			}
		}
		if !c.Comparator.IsRestrictive() {
			continue
		}
		if hasCommitted && c.Field != committed {
			return Result{
				Reason:           ReasonMultipleRestrictiveFields,
				Index:            i,
				Field:            c.Field,
				Comparator:       c.Comparator,
				ConflictingField: committed,
			}
		}
		committed, hasCommitted = c.Field, true
	}

	return Result{Valid: true, RangeField: committed}
}

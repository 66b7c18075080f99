package filter

// Comparator is a where-clause operator understood by the document store.
type Comparator string

// Recognized comparators.
const (
	Equal            Comparator = "=="
	NotEqual         Comparator = "!="
	Less             Comparator = "<"
	LessOrEqual      Comparator = "<="
	Greater          Comparator = ">"
	GreaterOrEqual   Comparator = ">="
	In               Comparator = "in"
	NotIn            Comparator = "not-in"
	ArrayContains    Comparator = "array-contains"
	ArrayContainsAny Comparator = "array-contains-any"
)

// Comparators returns every recognized comparator.
func Comparators() []Comparator {
	return []Comparator{
		Equal, NotEqual, Less, LessOrEqual, Greater, GreaterOrEqual,
		In, NotIn, ArrayContains, ArrayContainsAny,
	}
}

// ParseComparator converts a raw operator symbol. ok is false for unknown symbols.
func ParseComparator(s string) (Comparator, bool) {
	c := Comparator(s)
	return c, c.IsValid()
}

// IsValid reports whether c is one of the recognized comparators.
func (c Comparator) IsValid() bool {
	switch c {
	case Equal, NotEqual, Less, LessOrEqual, Greater, GreaterOrEqual,
		In, NotIn, ArrayContains, ArrayContainsAny:
		return true
	}
	return false
}

// IsRestrictive reports whether c is a range or not-equals comparator.
// Restrictive comparators may only be applied to a single field per query.
func (c Comparator) IsRestrictive() bool {
	switch c {
	case NotEqual, Less, LessOrEqual, Greater, GreaterOrEqual:
		return true
	}
	return false
}

// IsMembership reports whether c compares the field against a list of values.
func (c Comparator) IsMembership() bool {
	return c == In || c == NotIn || c == ArrayContainsAny
}

// IsArray reports whether c inspects an array field.
func (c Comparator) IsArray() bool {
	return c == ArrayContains || c == ArrayContainsAny
}

func (c Comparator) String() string { return string(c) }

package filter

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func testDoc() map[string]any {
	return map[string]any{
		"name":   "Bob",
		"age":    float64(30),
		"active": true,
		"nick":   nil,
		"tags":   []any{"go", "redis"},
		"stats": map[string]any{
			"health":     float64(12),
			"initiative": 4,
		},
		"born": time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestMatches(t *testing.T) {
	doc := testDoc()
	tests := []struct {
		name string
		c    Constraint
		want bool
	}{
		{"eq string", New("name", "==", "Bob"), true},
		{"eq string mismatch", New("name", "==", "Alice"), false},
		{"eq int vs float", New("age", "==", 30), true},
		{"eq nested", New("stats.health", "==", 12), true},
		{"eq nested int field", New("stats.initiative", ">=", 4.0), true},
		{"eq null", New("nick", "==", nil), true},
		{"missing field eq", New("missing", "==", nil), false},
		{"ne", New("name", "!=", "Alice"), true},
		{"ne same", New("name", "!=", "Bob"), false},
		{"ne excludes null", New("nick", "!=", "x"), false},
		{"ne missing field", New("missing", "!=", 1), false},
		{"gt", New("age", ">", 29), true},
		{"gt equal", New("age", ">", 30), false},
		{"gte equal", New("age", ">=", 30), true},
		{"lt", New("age", "<", 31.5), true},
		{"lte", New("age", "<=", 29), false},
		{"string order", New("name", "<", "Carl"), true},
		{"cross type order", New("name", ">", 1), false},
		{"bool order", New("active", ">", false), true},
		{"time order", New("born", "<", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)), true},
		{"in", New("name", "in", []string{"Alice", "Bob"}), true},
		{"in miss", New("name", "in", []any{"Alice"}), false},
		{"in scalar value", New("name", "in", "Bob"), false},
		{"not-in", New("name", "not-in", []any{"Alice"}), true},
		{"not-in hit", New("age", "not-in", []int{30}), false},
		{"not-in null", New("nick", "not-in", []any{"x"}), false},
		{"array-contains", New("tags", "array-contains", "go"), true},
		{"array-contains miss", New("tags", "array-contains", "sql"), false},
		{"array-contains on scalar", New("name", "array-contains", "Bob"), false},
		{"array-contains-any", New("tags", "array-contains-any", []any{"sql", "redis"}), true},
		{"array-contains-any miss", New("tags", "array-contains-any", []any{"sql"}), false},
		{"array-contains-any scalar value", New("tags", "array-contains-any", "go"), false},
		{"array eq", New("tags", "==", []string{"go", "redis"}), true},
		{"map eq", New("stats", "==", map[string]any{"health": 12, "initiative": 4.0}), true},
		{"unknown comparator", New("name", "like", "B%"), false},
		{"path through scalar", New("name.first", "==", "B"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(doc, tt.c); got != tt.want {
				t.Errorf("Matches(%s) = %v, want %v", tt.c, got, tt.want)
			}
		})
	}
}

func TestMatchesAll(t *testing.T) {
	doc := testDoc()
	if !MatchesAll(doc, nil) {
		t.Error("empty constraint list should match")
	}
	if !MatchesAll(doc, []Constraint{New("name", "==", "Bob"), New("age", ">", 5)}) {
		t.Error("expected match")
	}
	if MatchesAll(doc, []Constraint{New("name", "==", "Bob"), New("age", ">", 50)}) {
		t.Error("expected no match")
	}
}

func TestMatches_JSONNumbers(t *testing.T) {
	var doc map[string]any
	dec := json.NewDecoder(strings.NewReader(`{"price": 10.5}`))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if !Matches(doc, New("price", ">", 10)) {
		t.Error("json.Number should compare numerically")
	}
}

func TestLookup(t *testing.T) {
	doc := testDoc()
	if v, ok := Lookup(doc, "stats.health"); !ok || v != float64(12) {
		t.Errorf("Lookup(stats.health) = %v, %v", v, ok)
	}
	if _, ok := Lookup(doc, ""); ok {
		t.Error("empty path should not resolve")
	}
	if _, ok := Lookup(doc, "stats.missing"); ok {
		t.Error("missing nested path should not resolve")
	}
}

func TestListLen(t *testing.T) {
	if n := ListLen([]any{1, 2}); n != 2 {
		t.Errorf("ListLen = %d", n)
	}
	if n := ListLen([]string{}); n != 0 {
		t.Errorf("ListLen = %d", n)
	}
	if n := ListLen("abc"); n != -1 {
		t.Errorf("ListLen(string) = %d", n)
	}
	if n := ListLen([]byte("abc")); n != -1 {
		t.Errorf("ListLen([]byte) = %d", n)
	}
	if n := ListLen(nil); n != -1 {
		t.Errorf("ListLen(nil) = %d", n)
	}
}

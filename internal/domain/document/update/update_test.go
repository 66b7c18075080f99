package update

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kailas-cloud/firedoc/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		updates []Update
		wantErr string
	}{
		{"single", []Update{Set("a", 1)}, ""},
		{"nested and delete", []Update{Set("stats.health", 5), DeleteField("old")}, ""},
		{"empty", nil, "at least one"},
		{"empty path", []Update{Set("", 1)}, "required"},
		{"empty segment", []Update{Set("stats..health", 1)}, "empty segment"},
		{"trailing dot", []Update{Set("stats.", 1)}, "empty segment"},
		{"duplicate", []Update{Set("a", 1), DeleteField("a")}, "twice"},
		{"prefix conflict", []Update{Set("stats", 1), Set("stats.health", 2)}, "conflicts"},
		{"sibling prefix ok", []Update{Set("stat", 1), Set("stats.health", 2)}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.updates)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrInvalidDocument) {
				t.Errorf("error should wrap ErrInvalidDocument: %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestApply(t *testing.T) {
	doc := map[string]any{
		"name":  "Pikeman",
		"stats": map[string]any{"health": 10, "speed": 3},
		"flat":  "scalar",
	}

	Apply(doc, []Update{
		Set("stats.health", 12),
		DeleteField("stats.speed"),
		Set("cost.gold", 50),
		Set("flat.inner", true),
		DeleteField("missing.deep"),
		DeleteField("name"),
	})

	want := map[string]any{
		"stats": map[string]any{"health": 12},
		"cost":  map[string]any{"gold": 50},
		"flat":  map[string]any{"inner": true},
	}
	if !reflect.DeepEqual(doc, want) {
		t.Errorf("Apply result = %#v\nwant %#v", doc, want)
	}
}

func TestFromMap_Sorted(t *testing.T) {
	got := FromMap(map[string]any{"b": 2, "a": 1}, []string{"c"})
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Path != "a" || got[1].Path != "b" || got[2].Path != "c" {
		t.Errorf("unexpected order: %+v", got)
	}
	if !got[2].Delete {
		t.Error("c should be a delete")
	}
}

func TestMerge(t *testing.T) {
	dst := map[string]any{
		"name":  "Pikeman",
		"stats": map[string]any{"health": 10, "speed": 3},
		"tags":  []any{"a"},
	}
	Merge(dst, map[string]any{
		"stats": map[string]any{"health": 12},
		"tags":  []any{"b"},
		"new":   map[string]any{"x": 1},
	})

	want := map[string]any{
		"name":  "Pikeman",
		"stats": map[string]any{"health": 12, "speed": 3},
		"tags":  []any{"b"},
		"new":   map[string]any{"x": 1},
	}
	if !reflect.DeepEqual(dst, want) {
		t.Errorf("Merge result = %#v\nwant %#v", dst, want)
	}
}

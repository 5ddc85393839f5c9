package cascade

import (
	"reflect"
	"testing"

	"checkline/internal/domain"
)

// catalog: two brands, one model each under A, leaves with power/unit pairs.
func testSpec() domain.CascadeSpec {
	return domain.CascadeSpec{
		Levels: []domain.CascadeLevel{
			{LabelCode: "brand", Label: "Brand"},
			{LabelCode: "model", Label: "Model"},
			{LabelCode: "characteristics", Label: "Characteristics"},
		},
		LeafTemplate: "{power} {unit}",
		Lookup: &domain.CascadeNode{Children: map[string]*domain.CascadeNode{
			"A": {Children: map[string]*domain.CascadeNode{
				"X": {Leaves: []map[string]string{
					{"power": "20", "unit": "W"},
					{"power": "40", "unit": "W"},
				}},
			}},
			"B": {Children: map[string]*domain.CascadeNode{
				"Y": {Leaves: []map[string]string{
					{"power": "60", "unit": "W"},
				}},
			}},
		}},
	}
}

func TestChoicesFollowSelections(t *testing.T) {
	r := New(testSpec())
	if got := r.Choices(0); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("level 0 choices = %v", got)
	}
	r.Select(0, "A")
	if got := r.Choices(1); !reflect.DeepEqual(got, []string{"X"}) {
		t.Fatalf("level 1 choices = %v", got)
	}
	r.Select(1, "X")
	if got := r.Choices(2); !reflect.DeepEqual(got, []string{"20 W", "40 W"}) {
		t.Fatalf("leaf choices = %v", got)
	}
}

func TestAvailabilityOpensDownward(t *testing.T) {
	r := New(testSpec())
	if !r.Available(0) {
		t.Fatalf("level 0 must be editable")
	}
	if r.Available(1) || r.Available(2) {
		t.Fatalf("deeper levels editable before any selection")
	}
	r.Select(0, "A")
	if !r.Available(1) {
		t.Fatalf("level 1 closed after selecting level 0")
	}
	r.Disabled = true
	if r.Available(0) || r.Available(1) {
		t.Fatalf("disabled resolver still editable")
	}
}

func TestSelectTruncatesDeeperLevels(t *testing.T) {
	r := New(testSpec())
	r.Select(0, "A")
	r.Select(1, "X")
	r.Select(2, "20 W")
	r.Select(0, "B")
	if _, ok := r.Selected(1); ok {
		t.Fatalf("level 1 survived a higher re-selection")
	}
	if got := r.Choices(1); !reflect.DeepEqual(got, []string{"Y"}) {
		t.Fatalf("choices still follow the old branch: %v", got)
	}
}

func TestLeafAutoFillSingleCandidate(t *testing.T) {
	r := New(testSpec())
	r.Select(0, "B")
	r.Select(1, "Y")
	v, ok := r.Selected(2)
	if !ok || v != "60 W" {
		t.Fatalf("leaf not auto-filled: %q, %v", v, ok)
	}
	if r.Available(2) {
		t.Fatalf("auto-filled single-candidate leaf must stay locked")
	}

	// two candidates never auto-fill
	r2 := New(testSpec())
	r2.Select(0, "A")
	r2.Select(1, "X")
	if _, ok := r2.Selected(2); ok {
		t.Fatalf("leaf auto-filled despite two candidates")
	}
}

func TestRefreshSynthesizesCustomAtInnerLevelsOnly(t *testing.T) {
	r := New(testSpec())
	got := r.Refresh(0, "leaf9")
	if len(got) != 1 || !got[0].Custom || got[0].Text != "leaf9" {
		t.Fatalf("inner level search = %+v", got)
	}
	// exact match, case-insensitive: no synthesis
	got = r.Refresh(0, "a")
	if len(got) != 1 || got[0].Custom {
		t.Fatalf("exact match synthesized a custom entry: %+v", got)
	}

	r.Select(0, "A")
	r.Select(1, "X")
	got = r.Refresh(2, "leaf9")
	for _, c := range got {
		if c.Custom {
			t.Fatalf("leaf level synthesized a custom entry: %+v", got)
		}
	}
}

func TestValueStripsCustomPrefixAndOmitsSkips(t *testing.T) {
	r := New(testSpec())
	r.Select(0, "A")
	r.SelectCustom(1, "Z-9")
	r.SelectSkip(2)
	// a custom value anywhere in the chain yields an answer even without a leaf
	values, ok := r.Value()
	if !ok {
		t.Fatalf("expected a value with a custom selection present")
	}
	want := map[string]string{"brand": "A", "model": "Z-9"}
	if !reflect.DeepEqual(values, want) {
		t.Fatalf("value = %v, want %v", values, want)
	}
}

func TestValueAbsentWithoutLeafOrCustom(t *testing.T) {
	r := New(testSpec())
	r.Select(0, "A")
	if _, ok := r.Value(); ok {
		t.Fatalf("no leaf and no custom must mean no answer")
	}
	r.Select(1, "X")
	r.Select(2, "40 W")
	values, ok := r.Value()
	if !ok || values["characteristics"] != "40 W" {
		t.Fatalf("full selection value = %v, %v", values, ok)
	}
}

func TestRehydrate(t *testing.T) {
	r := New(testSpec())
	r.Rehydrate(map[string]string{"brand": "A", "model": "X", "power": "40", "unit": "W"})

	if v, ok := r.Selected(0); !ok || v != "A" {
		t.Fatalf("brand = %q, %v", v, ok)
	}
	if v, ok := r.Selected(1); !ok || v != "X" {
		t.Fatalf("model = %q, %v", v, ok)
	}
	// leftover keys reconstitute the leaf through the template
	if v, ok := r.Selected(2); !ok || v != "40 W" {
		t.Fatalf("leaf = %q, %v", v, ok)
	}

	// an off-catalog value comes back as custom, prefix visible via Selected
	r.Rehydrate(map[string]string{"brand": "Nonesuch"})
	if v, ok := r.Selected(0); !ok || v != CustomPrefix+"Nonesuch" {
		t.Fatalf("custom rehydration = %q, %v", v, ok)
	}
}

func TestFormatLeaf(t *testing.T) {
	if got := FormatLeaf("{power} {unit}", map[string]string{"power": "20", "unit": "W"}); got != "20 W" {
		t.Fatalf("template format = %q", got)
	}
	// tokens with no key are dropped, whitespace collapsed
	if got := FormatLeaf("{power} {unit} {missing}", map[string]string{"power": "20", "unit": "W"}); got != "20 W" {
		t.Fatalf("unused token kept: %q", got)
	}
	// no template: deterministic k=v pairs
	if got := FormatLeaf("", map[string]string{"b": "2", "a": "1"}); got != "a=1 b=2" {
		t.Fatalf("fallback format = %q", got)
	}
}

package model

import "testing"

func TestCollectionState_FindItem(t *testing.T) {
	cs := &CollectionState{
		CollectionID: "PL123",
		Title:        "Mix",
		Items: []ItemRecord{
			{ItemID: "a", DisplayTitle: "First", LocalFilename: "1 - First.mp3", Format: "mp3"},
			{ItemID: "b", DisplayTitle: "Second", LocalFilename: "2 - Second.mp3", Format: "mp3"},
		},
	}

	rec, pos, ok := cs.FindItem("b")
	if !ok {
		t.Fatal("Expected item 'b' to be found")
	}
	if pos != 1 {
		t.Errorf("FindItem position = %d, expected 1", pos)
	}
	if rec.DisplayTitle != "Second" {
		t.Errorf("FindItem title = %q, expected %q", rec.DisplayTitle, "Second")
	}

	if _, _, ok := cs.FindItem("missing"); ok {
		t.Error("Expected missing item to not be found")
	}
}

func TestCollectionState_Clone(t *testing.T) {
	cs := &CollectionState{
		CollectionID: "PL123",
		Items:        []ItemRecord{{ItemID: "a", LocalFilename: "1 - A.mp3"}},
	}

	clone := cs.Clone()
	clone.Items[0].LocalFilename = "changed"

	if cs.Items[0].LocalFilename != "1 - A.mp3" {
		t.Error("Clone should not share item storage with the original")
	}
}

func TestPlan_HasDestructiveChanges(t *testing.T) {
	tests := []struct {
		name     string
		plan     Plan
		expected bool
	}{
		{"empty", Plan{}, false},
		{"additions only", Plan{Additions: []Addition{{}}}, false},
		{"removals", Plan{Removals: []ItemRecord{{}}}, true},
		{"moves", Plan{Moves: []Move{{}}}, true},
	}

	for _, test := range tests {
		if got := test.plan.HasDestructiveChanges(); got != test.expected {
			t.Errorf("%s: HasDestructiveChanges() = %v, expected %v", test.name, got, test.expected)
		}
	}
}

func TestUpdateReport_Summary(t *testing.T) {
	r := NewUpdateReport()
	r.AddSuccess("x", "X")
	r.AddRemoved("y", "Y")
	r.AddFailure("z", "Z", nil)

	got := r.Summary()
	expected := "1 added, 1 removed, 0 moved, 1 failed"
	if got != expected {
		t.Errorf("Summary() = %q, expected %q", got, expected)
	}

	if !r.HasChanges() {
		t.Error("Expected HasChanges to be true")
	}
}

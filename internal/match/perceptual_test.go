package match

import (
	"reflect"
	"testing"

	"photodedup/internal/models"
)

func TestPerceptualMatcher_Empty(t *testing.T) {
	matcher := NewPerceptualMatcher(10)
	groups := matcher.FindGroups(nil)
	if groups != nil {
		t.Errorf("expected nil for empty input, got %v", groups)
	}
}

func TestPerceptualMatcher_SingleImage(t *testing.T) {
	matcher := NewPerceptualMatcher(10)
	images := []*models.ImageInfo{{Hash: 0b1111}}
	groups := matcher.FindGroups(images)
	if groups != nil {
		t.Errorf("expected nil for single image, got %v", groups)
	}
}

func TestPerceptualMatcher_NoDuplicates(t *testing.T) {
	matcher := NewPerceptualMatcher(2)
	images := []*models.ImageInfo{
		{Path: "a.jpg", Hash: 0b0000000000},
		{Path: "b.jpg", Hash: 0b1111111111}, // distance > 2
	}
	groups := matcher.FindGroups(images)
	if len(groups) != 0 {
		t.Errorf("expected no groups for distant images, got %d", len(groups))
	}
}

func TestPerceptualMatcher_ThresholdZero_ExactOnly(t *testing.T) {
	matcher := NewPerceptualMatcher(0)
	images := []*models.ImageInfo{
		{Path: "a.jpg", Hash: 0b1111},
		{Path: "b.jpg", Hash: 0b1111}, // identical
		{Path: "c.jpg", Hash: 0b1110}, // one bit off, must stay out
	}
	groups := matcher.FindGroups(images)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if got := groups[0].Paths(); !reflect.DeepEqual(got, []string{"a.jpg", "b.jpg"}) {
		t.Errorf("group members = %v, want [a.jpg b.jpg]", got)
	}
}

// Chained similarity: a-b and b-c are within the threshold while a-c is
// not, yet all three belong to one group.
func TestPerceptualMatcher_Transitivity(t *testing.T) {
	matcher := NewPerceptualMatcher(6)
	images := []*models.ImageInfo{
		{Path: "a.jpg", Hash: 0x00}, // d(a,b)=3
		{Path: "b.jpg", Hash: 0x07}, // d(b,c)=5
		{Path: "c.jpg", Hash: 0xFF}, // d(a,c)=8 > threshold
	}
	groups := matcher.FindGroups(images)
	if len(groups) != 1 {
		t.Fatalf("expected 1 chained group, got %d", len(groups))
	}
	if got := groups[0].Paths(); !reflect.DeepEqual(got, []string{"a.jpg", "b.jpg", "c.jpg"}) {
		t.Errorf("group members = %v, want [a.jpg b.jpg c.jpg]", got)
	}
}

func TestPerceptualMatcher_MultipleGroups(t *testing.T) {
	matcher := NewPerceptualMatcher(1)
	images := []*models.ImageInfo{
		{Path: "a.jpg", Hash: 0x0000000000000000},
		{Path: "b.jpg", Hash: 0x0000000000000001}, // group 1
		{Path: "c.jpg", Hash: 0xFFFFFFFFFFFFFFFF},
		{Path: "d.jpg", Hash: 0xFFFFFFFFFFFFFFFE}, // group 2
	}
	groups := matcher.FindGroups(images)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	// No path may appear in two groups, no group may be a singleton
	seen := make(map[string]bool)
	for _, group := range groups {
		if len(group.Images) < 2 {
			t.Errorf("group %d has %d members, want >= 2", group.ID, len(group.Images))
		}
		for _, img := range group.Images {
			if seen[img.Path] {
				t.Errorf("path %s appears in two groups", img.Path)
			}
			seen[img.Path] = true
		}
	}
}

func TestPerceptualMatcher_Deterministic(t *testing.T) {
	images := []*models.ImageInfo{
		{Path: "d.jpg", Hash: 0b0001, Score: 1},
		{Path: "a.jpg", Hash: 0b0000, Score: 2},
		{Path: "c.jpg", Hash: 0b0011, Score: 3},
		{Path: "z.jpg", Hash: 0xFFFFFFFFFFFFFFFF, Score: 1},
	}

	first := NewPerceptualMatcher(2).FindGroups(images)
	second := NewPerceptualMatcher(2).FindGroups(images)

	if len(first) != len(second) {
		t.Fatalf("group counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !reflect.DeepEqual(first[i].Paths(), second[i].Paths()) {
			t.Errorf("group %d differs between runs: %v vs %v",
				i, first[i].Paths(), second[i].Paths())
		}
	}
}

func TestPerceptualMatcher_MembersSorted(t *testing.T) {
	matcher := NewPerceptualMatcher(4)
	images := []*models.ImageInfo{
		{Path: "z.jpg", Hash: 0b0001},
		{Path: "a.jpg", Hash: 0b0000},
		{Path: "m.jpg", Hash: 0b0011},
	}
	groups := matcher.FindGroups(images)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if got := groups[0].Paths(); !reflect.DeepEqual(got, []string{"a.jpg", "m.jpg", "z.jpg"}) {
		t.Errorf("members not sorted: %v", got)
	}
}

func TestPerceptualMatcher_KeepHighestScore(t *testing.T) {
	matcher := NewPerceptualMatcher(10)
	images := []*models.ImageInfo{
		{Path: "low.jpg", Hash: 0b0000, Score: 1.0},
		{Path: "high.jpg", Hash: 0b0001, Score: 10.0},
		{Path: "mid.jpg", Hash: 0b0010, Score: 5.0},
	}
	groups := matcher.FindGroups(images)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].Keep.Path != "high.jpg" {
		t.Errorf("expected to keep high.jpg, got %s", groups[0].Keep.Path)
	}
	if len(groups[0].Remove) != 2 {
		t.Errorf("expected 2 images to remove, got %d", len(groups[0].Remove))
	}
}

func TestPerceptualMatcher_NegativeThresholdUsesDefault(t *testing.T) {
	matcher := NewPerceptualMatcher(-5)
	if matcher.Threshold() != 10 {
		t.Errorf("threshold = %d, want default 10", matcher.Threshold())
	}
}

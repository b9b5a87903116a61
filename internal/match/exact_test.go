package match

import (
	"reflect"
	"testing"

	"photodedup/internal/models"
)

func TestExactMatcher_IdenticalFiles(t *testing.T) {
	matcher := NewExactMatcher()
	images := []*models.ImageInfo{
		{Path: "a.jpg", FileHash: "aaa"},
		{Path: "b.jpg", FileHash: "aaa"},
		{Path: "c.jpg", FileHash: "bbb"},
	}
	groups := matcher.FindGroups(images)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if got := groups[0].Paths(); !reflect.DeepEqual(got, []string{"a.jpg", "b.jpg"}) {
		t.Errorf("group members = %v, want [a.jpg b.jpg]", got)
	}
}

func TestExactMatcher_MissingFileHashIgnored(t *testing.T) {
	matcher := NewExactMatcher()
	images := []*models.ImageInfo{
		{Path: "a.jpg", FileHash: ""},
		{Path: "b.jpg", FileHash: ""},
	}
	if groups := matcher.FindGroups(images); len(groups) != 0 {
		t.Errorf("expected no groups for unhashed files, got %d", len(groups))
	}
}

func TestExactMatcher_SingleImage(t *testing.T) {
	matcher := NewExactMatcher()
	if groups := matcher.FindGroups([]*models.ImageInfo{{Path: "a.jpg", FileHash: "aaa"}}); groups != nil {
		t.Errorf("expected nil for single image, got %v", groups)
	}
}

package match

import (
	"sort"

	"photodedup/internal/models"
)

// Matcher is the interface for duplicate detection strategies
type Matcher interface {
	FindGroups(images []*models.ImageInfo) []*models.DuplicateGroup
}

// buildGroups builds DuplicateGroup slice from a group map. Member lists
// are sorted by path; groups are ordered by their first member so repeated
// runs over the same input produce identical output.
func buildGroups(groupMap map[int][]*models.ImageInfo) []*models.DuplicateGroup {
	var grouped [][]*models.ImageInfo
	for _, imgs := range groupMap {
		if len(imgs) < 2 {
			continue // singletons are not duplicates
		}
		sort.Slice(imgs, func(i, j int) bool {
			return imgs[i].Path < imgs[j].Path
		})
		grouped = append(grouped, imgs)
	}

	sort.Slice(grouped, func(i, j int) bool {
		return grouped[i][0].Path < grouped[j][0].Path
	})

	groups := make([]*models.DuplicateGroup, 0, len(grouped))
	for i, imgs := range grouped {
		group := &models.DuplicateGroup{
			ID:     i + 1,
			Images: imgs,
		}
		selectKeepAndRemove(group)
		groups = append(groups, group)
	}

	return groups
}

// selectKeepAndRemove determines which image to keep and which to remove
func selectKeepAndRemove(group *models.DuplicateGroup) {
	if len(group.Images) == 0 {
		return
	}

	// Sort images by score (descending), then by file size (descending),
	// then by mod time (descending), then by path (ascending)
	sorted := make([]*models.ImageInfo, len(group.Images))
	copy(sorted, group.Images)

	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]

		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.FileSize != b.FileSize {
			return a.FileSize > b.FileSize
		}
		if !a.ModTime.Equal(b.ModTime) {
			return a.ModTime.After(b.ModTime)
		}
		return a.Path < b.Path
	})

	group.Keep = sorted[0]
	group.Remove = sorted[1:]

	for _, img := range group.Images {
		img.GroupID = group.ID
	}
}

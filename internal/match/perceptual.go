package match

import (
	"photodedup/internal/imghash"
	"photodedup/internal/models"
)

// PerceptualMatcher groups similar images by perceptual hash distance.
//
// Grouping uses connected components: A and C land in the same group when
// both are within the threshold of some B, even if A and C themselves are
// further apart. This chained similarity is deliberate and matches how the
// tool has always behaved.
type PerceptualMatcher struct {
	threshold int
}

// NewPerceptualMatcher creates a new PerceptualMatcher. The threshold is
// the maximum Hamming distance for two images to be linked; 0 links only
// bit-identical hashes. Negative values fall back to the default.
func NewPerceptualMatcher(threshold int) *PerceptualMatcher {
	if threshold < 0 {
		threshold = 10 // Default threshold
	}
	return &PerceptualMatcher{threshold: threshold}
}

// FindGroups finds groups of similar images based on Hamming distance.
// Uses a BK-tree for the neighbor search instead of comparing all pairs.
func (m *PerceptualMatcher) FindGroups(images []*models.ImageInfo) []*models.DuplicateGroup {
	n := len(images)
	if n < 2 {
		return nil
	}

	uf := newUnionFind(n)
	tree := newBKTree(imghash.HammingDistance)

	for i, img := range images {
		// Union with every already-seen image within threshold distance
		for _, j := range tree.findWithinDistance(img.Hash, m.threshold) {
			uf.union(i, j)
		}
		tree.insert(img.Hash, i)
	}

	groupMap := make(map[int][]*models.ImageInfo)
	for i, img := range images {
		root := uf.find(i)
		groupMap[root] = append(groupMap[root], img)
	}

	return buildGroups(groupMap)
}

// Threshold returns the current threshold
func (m *PerceptualMatcher) Threshold() int {
	return m.threshold
}

// Union-Find data structure for efficient grouping
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	rank := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent, rank: rank}
}

func (uf *unionFind) find(x int) int {
	if uf.parent[x] != x {
		uf.parent[x] = uf.find(uf.parent[x]) // Path compression
	}
	return uf.parent[x]
}

func (uf *unionFind) union(x, y int) {
	px, py := uf.find(x), uf.find(y)
	if px == py {
		return
	}
	// Union by rank
	if uf.rank[px] < uf.rank[py] {
		px, py = py, px
	}
	uf.parent[py] = px
	if uf.rank[px] == uf.rank[py] {
		uf.rank[px]++
	}
}

// bkTree is a BK-tree for similarity search over a metric distance.
// findWithinDistance prunes subtrees via the triangle inequality.
type bkTree struct {
	root     *bkNode
	distance func(a, b uint64) int
}

type bkNode struct {
	hash     uint64
	index    int
	children map[int]*bkNode // distance -> child node
}

func newBKTree(distanceFn func(a, b uint64) int) *bkTree {
	return &bkTree{distance: distanceFn}
}

// insert adds a new hash with its associated index to the tree.
func (t *bkTree) insert(hash uint64, index int) {
	node := &bkNode{
		hash:     hash,
		index:    index,
		children: make(map[int]*bkNode),
	}

	if t.root == nil {
		t.root = node
		return
	}

	current := t.root
	for {
		dist := t.distance(hash, current.hash)
		if child, exists := current.children[dist]; exists {
			current = child
		} else {
			current.children[dist] = node
			return
		}
	}
}

// findWithinDistance returns all indices of elements within the given
// distance threshold from the query hash.
func (t *bkTree) findWithinDistance(hash uint64, threshold int) []int {
	if t.root == nil {
		return nil
	}

	var results []int
	t.searchNode(t.root, hash, threshold, &results)
	return results
}

func (t *bkTree) searchNode(node *bkNode, hash uint64, threshold int, results *[]int) {
	dist := t.distance(hash, node.hash)

	if dist <= threshold {
		*results = append(*results, node.index)
	}

	// Only children with distance in [dist-threshold, dist+threshold]
	// can contain matches
	minDist := dist - threshold
	if minDist < 0 {
		minDist = 0
	}
	maxDist := dist + threshold

	for childDist, child := range node.children {
		if childDist >= minDist && childDist <= maxDist {
			t.searchNode(child, hash, threshold, results)
		}
	}
}

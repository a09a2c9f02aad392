package rank

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/codegrove/codesearch/internal/analyze"
)

const (
	clusterLineWindow  = 10
	clusterNameJaccard = 0.7
	diversityOverlap   = 0.75
	maxPerFile         = 3
)

// cluster groups results from the same file within a small line window, or
// from the same directory with similar filenames, keeping the
// highest-scoring representative per group with a small log-size boost.
func cluster(results []Result) []Result {
	n := len(results)
	if n <= 1 {
		return results
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if sameFileNearby(results[i], results[j]) || sameDirSimilarName(results[i].Path, results[j].Path) {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := find(i)
		groups[root] = append(groups[root], i)
	}

	out := make([]Result, 0, len(groups))
	for _, members := range groups {
		best := members[0]
		for _, idx := range members[1:] {
			if results[idx].Score > results[best].Score {
				best = idx
			}
		}
		rep := results[best]
		if len(members) > 1 {
			rep.Score += 0.1 * math.Log2(float64(len(members))+1)
		}
		out = append(out, rep)
	}
	return out
}

func sameFileNearby(a, b Result) bool {
	if a.Path != b.Path {
		return false
	}
	diff := a.StartLine - b.StartLine
	if diff < 0 {
		diff = -diff
	}
	return diff <= clusterLineWindow
}

func sameDirSimilarName(pathA, pathB string) bool {
	if filepath.Dir(pathA) != filepath.Dir(pathB) {
		return false
	}
	return charJaccard(filepath.Base(pathA), filepath.Base(pathB)) > clusterNameJaccard
}

func charJaccard(a, b string) float64 {
	setA := charSet(a)
	setB := charSet(b)
	inter, union := setOverlap(setA, setB)
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func charSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{})
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

func setOverlap(a, b map[rune]struct{}) (inter, union int) {
	for r := range a {
		if _, ok := b[r]; ok {
			inter++
		}
	}
	union = len(a) + len(b) - inter
	return inter, union
}

// capDiversity enforces the per-file cap and the concept/symbol overlap
// cap, selecting greedily from the highest-scoring result down.
func capDiversity(results []Result, attrs map[string]*analyze.Attributes) []Result {
	sortResults(results)

	perFile := make(map[string]int)
	var selected []Result
	var selectedSets []map[string]struct{}

	for _, r := range results {
		if perFile[r.Path] >= maxPerFile {
			continue
		}

		signature := conceptSignature(attrs[r.ChunkID])
		tooSimilar := false
		for _, prior := range selectedSets {
			if stringJaccard(signature, prior) > diversityOverlap {
				tooSimilar = true
				break
			}
		}
		if tooSimilar {
			continue
		}

		selected = append(selected, r)
		selectedSets = append(selectedSets, signature)
		perFile[r.Path]++
	}

	return selected
}

func conceptSignature(a *analyze.Attributes) map[string]struct{} {
	set := make(map[string]struct{})
	if a == nil {
		return set
	}
	for _, s := range a.Symbols {
		set[strings.ToLower(s)] = struct{}{}
	}
	for _, c := range a.Concepts {
		set[strings.ToLower(c)] = struct{}{}
	}
	return set
}

func stringJaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

package query

import (
	"reflect"
	"testing"

	"github.com/docsift/docsift/internal/engine/index"
	"github.com/docsift/docsift/internal/engine/snapshot"
)

// fixture builds a small hand-weighted snapshot. Weights are chosen so
// ranking is unambiguous without recomputing TF-IDF here.
func fixture() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Inverted: index.Inverted{
			"cat": {
				"a": []int{1},
				"b": []int{1, 2},
			},
			"dog": {
				"a": []int{2, 3},
			},
			"bird": {
				"c": []int{1},
			},
		},
		Weights: map[string]map[string]float64{
			"a": {"cat": 0.2, "dog": 0.5},
			"b": {"cat": 0.9},
			"c": {"bird": 0.3},
		},
	}
}

func TestSearchRanksByDescendingScore(t *testing.T) {
	results := Search(fixture(), "cat dog", 0)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	// a: 0.2 + 0.5 = 0.7, b: 0.9.
	if results[0].DocumentID != "b" || results[1].DocumentID != "a" {
		t.Errorf("order = [%s %s], want [b a]", results[0].DocumentID, results[1].DocumentID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not in descending score order: %v", results)
		}
	}
}

func TestSearchUnionsPages(t *testing.T) {
	results := Search(fixture(), "cat dog", 0)
	for _, res := range results {
		if res.DocumentID == "a" {
			if !reflect.DeepEqual(res.Pages, []int{1, 2, 3}) {
				t.Errorf("pages for a = %v, want [1 2 3]", res.Pages)
			}
		}
	}
}

func TestSearchRepeatedTermAmplifies(t *testing.T) {
	snap := fixture()
	single := Search(snap, "cat dog", 0)
	repeated := Search(snap, "cat cat dog", 0)

	score := func(rs []Result, id string) float64 {
		for _, r := range rs {
			if r.DocumentID == id {
				return r.Score
			}
		}
		return 0
	}
	// b carries the higher cat weight, so doubling "cat" widens its lead.
	if repeated[0].DocumentID != "b" {
		t.Fatalf("top result = %s, want b", repeated[0].DocumentID)
	}
	if score(repeated, "b") <= score(single, "b") {
		t.Errorf("repeating a term did not raise the score: %v vs %v",
			score(repeated, "b"), score(single, "b"))
	}
}

func TestSearchEmptyAndUnknownQueries(t *testing.T) {
	snap := fixture()
	for _, q := range []string{"", "   ", "?!", "elephant", "elephant zebra"} {
		if results := Search(snap, q, 0); len(results) != 0 {
			t.Errorf("Search(%q) = %v, want empty", q, results)
		}
	}
}

func TestSearchPartialMatch(t *testing.T) {
	// Unknown terms contribute nothing; known terms still match.
	results := Search(fixture(), "bird elephant", 0)
	if len(results) != 1 || results[0].DocumentID != "c" {
		t.Fatalf("results = %v, want single match on c", results)
	}
}

func TestSearchLimit(t *testing.T) {
	snap := fixture()
	all := Search(snap, "cat dog bird", 0)
	if len(all) != 3 {
		t.Fatalf("got %d results, want 3", len(all))
	}
	top := Search(snap, "cat dog bird", 2)
	if len(top) != 2 {
		t.Fatalf("limited search returned %d results, want 2", len(top))
	}
	if !reflect.DeepEqual(top, all[:2]) {
		t.Errorf("limited results %v differ from head of full ranking %v", top, all[:2])
	}
}

func TestSearchTieBreaksOnDocumentID(t *testing.T) {
	snap := &snapshot.Snapshot{
		Inverted: index.Inverted{
			"tie": {"z": []int{1}, "a": []int{1}, "m": []int{1}},
		},
		Weights: map[string]map[string]float64{
			"z": {"tie": 0.4},
			"a": {"tie": 0.4},
			"m": {"tie": 0.4},
		},
	}
	results := Search(snap, "tie", 0)
	got := []string{results[0].DocumentID, results[1].DocumentID, results[2].DocumentID}
	if !reflect.DeepEqual(got, []string{"a", "m", "z"}) {
		t.Errorf("tie order = %v, want [a m z]", got)
	}

	limited := Search(snap, "tie", 2)
	got = []string{limited[0].DocumentID, limited[1].DocumentID}
	if !reflect.DeepEqual(got, []string{"a", "m"}) {
		t.Errorf("limited tie order = %v, want [a m]", got)
	}
}

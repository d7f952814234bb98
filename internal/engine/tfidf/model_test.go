package tfidf

import (
	"errors"
	"math"
	"testing"
)

func TestComputeTF(t *testing.T) {
	tf := ComputeTF("cat dog cat cat")
	if got := tf["cat"]; got != 0.75 {
		t.Errorf("tf[cat] = %v, want 0.75", got)
	}
	if got := tf["dog"]; got != 0.25 {
		t.Errorf("tf[dog] = %v, want 0.25", got)
	}
}

func TestComputeTFEmptyDocument(t *testing.T) {
	for _, text := range []string{"", "   ", "?!..."} {
		if tf := ComputeTF(text); len(tf) != 0 {
			t.Errorf("ComputeTF(%q) = %v, want empty", text, tf)
		}
	}
}

func TestBuildEmptyCorpus(t *testing.T) {
	_, err := Build(map[string]map[string]float64{})
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("Build(empty) error = %v, want ErrEmptyCorpus", err)
	}
	_, err = Build(nil)
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("Build(nil) error = %v, want ErrEmptyCorpus", err)
	}
}

func TestIDFFormulaAndMonotonicity(t *testing.T) {
	tf := map[string]map[string]float64{
		"a": ComputeTF("rare common"),
		"b": ComputeTF("common"),
		"c": ComputeTF("common"),
	}
	model, err := Build(tf)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// N=3: rare has df=1, common df=3.
	wantRare := math.Log(3.0/2.0) + 1
	if got := model.IDF["rare"]; math.Abs(got-wantRare) > 1e-12 {
		t.Errorf("idf[rare] = %v, want %v", got, wantRare)
	}
	if model.IDF["rare"] <= model.IDF["common"] {
		t.Errorf("idf monotonicity violated: rare=%v <= common=%v",
			model.IDF["rare"], model.IDF["common"])
	}
	for term, idf := range model.IDF {
		if idf <= 0 {
			t.Errorf("idf[%s] = %v, want > 0", term, idf)
		}
	}
}

func TestWeightsOnlyForPresentTerms(t *testing.T) {
	tf := map[string]map[string]float64{
		"a": ComputeTF("alpha beta"),
		"b": ComputeTF("beta"),
	}
	model, err := Build(tf)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, exists := model.Weights["b"]["alpha"]; exists {
		t.Error("weights[b] has entry for term absent from document b")
	}
	if w := model.Weights["a"]["alpha"]; w <= 0 {
		t.Errorf("weights[a][alpha] = %v, want > 0", w)
	}
	// Absent lookup defaults to zero.
	if w := model.Weights["b"]["alpha"]; w != 0 {
		t.Errorf("absent weight lookup = %v, want 0", w)
	}
}

func TestWeightIsProductOfTFAndIDF(t *testing.T) {
	tf := map[string]map[string]float64{
		"a": ComputeTF("x x y"),
		"b": ComputeTF("y"),
	}
	model, err := Build(tf)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := model.TF["a"]["x"] * model.IDF["x"]
	if got := model.Weights["a"]["x"]; math.Abs(got-want) > 1e-12 {
		t.Errorf("weights[a][x] = %v, want tf*idf = %v", got, want)
	}
}

package tokenizer

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "HeLLo World", "hello world"},
		{"punctuation becomes space", "foo-bar, baz!", "foo bar  baz "},
		{"whitespace kept as is", "a  b\tc\nd", "a  b\tc\nd"},
		{"digits kept", "page 42", "page 42"},
		{"empty", "", ""},
		{"only punctuation", "?!...", "     "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "cat dog", []string{"cat", "dog"}},
		{"case and punctuation", "The cat's dog.", []string{"the", "cat", "s", "dog"}},
		{"order preserved", "b a c a", []string{"b", "a", "c", "a"}},
		{"hyphenated splits", "full-text search", []string{"full", "text", "search"}},
		{"empty input", "", nil},
		{"only punctuation", "?!,;", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenizeDeterministic(t *testing.T) {
	input := "Mixed CASE, with 123 numbers & symbols!"
	first := Tokenize(input)
	for i := 0; i < 10; i++ {
		if got := Tokenize(input); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: Tokenize not deterministic: %v vs %v", i, got, first)
		}
	}
}

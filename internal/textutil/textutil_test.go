package textutil

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Brigadeiro Fácil", "brigadeiro facil"},
		{"  PÃO DE AÇÚCAR  ", "pao de acucar"},
		{"already plain", "already plain"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCleanTextStripsEmoji(t *testing.T) {
	t.Parallel()

	got := CleanText("Bolo   de chocolate 🍫🔥  incrível!")
	want := "Bolo de chocolate incrível!"
	if got != want {
		t.Fatalf("CleanText = %q, want %q", got, want)
	}
}

func TestExtractHashtagsAndMentions(t *testing.T) {
	t.Parallel()

	text := "Receita nova! #receita #tiktokfood com @chef_ana e @maria"

	tags := ExtractHashtags(text)
	if !reflect.DeepEqual(tags, []string{"receita", "tiktokfood"}) {
		t.Fatalf("unexpected hashtags: %v", tags)
	}

	mentions := ExtractMentions(text)
	if !reflect.DeepEqual(mentions, []string{"chef_ana", "maria"}) {
		t.Fatalf("unexpected mentions: %v", mentions)
	}

	if ExtractHashtags("no tags here") != nil {
		t.Fatal("expected nil for text without hashtags")
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	if got := Slugify("Bolo de Cenoura Fácil!", 150); got != "bolo-de-cenoura-facil" {
		t.Fatalf("unexpected slug: %s", got)
	}
	if got := Slugify("Pão de queijo", 6); got != "pao-de" {
		t.Fatalf("unexpected capped slug: %s", got)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("unexpected: %s", got)
	}
	if got := Truncate("uma legenda bem comprida", 14); got != "uma legenda..." {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	if got := Similarity("Bolo de Cenoura", "bolo de cenoura"); got != 1.0 {
		t.Fatalf("expected 1.0 for equal normalized titles, got %.2f", got)
	}
	if got := Similarity("bolo de cenoura", "sopa de legumes"); got > 0.3 {
		t.Fatalf("expected low similarity for unrelated titles, got %.2f", got)
	}
	if got := Similarity("", "anything"); got != 0 {
		t.Fatalf("expected 0 for empty input, got %.2f", got)
	}
}

func TestSetSimilarity(t *testing.T) {
	t.Parallel()

	same := SetSimilarity([]string{"Cenoura", "ovo"}, []string{"ovo", "cenoura"})
	if same != 1.0 {
		t.Fatalf("expected 1.0 for equal sets, got %.2f", same)
	}

	disjoint := SetSimilarity([]string{"frango"}, []string{"chocolate"})
	if disjoint != 0 {
		t.Fatalf("expected 0 for disjoint sets, got %.2f", disjoint)
	}

	half := SetSimilarity([]string{"a", "b", "c"}, []string{"b", "c", "d"})
	if half != 0.5 {
		t.Fatalf("expected 0.5, got %.2f", half)
	}
}

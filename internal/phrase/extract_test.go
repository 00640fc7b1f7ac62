package phrase

import (
	"reflect"
	"testing"
)

func TestFollowupTermsVariants(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"I'm not your Pal, Chief", []string{"Pal", "Chief"}},
		{"i am not your pal chief", []string{"pal", "chief"}},
		{"im not ur Pal, Chief!!!", []string{"Pal", "Chief"}},
		{"not ya Pal, Chief?", []string{"Pal", "Chief"}},
		{"  I m not yo Pal,Chief.  ", []string{"Pal", "Chief"}},
		{"I'm not your Pal, Chief, Boss", []string{"Pal", "Chief"}}, // truncated to two
		{"I'm not your 'Pal', \"Chief\"", nil},                      // double quote not in capture class
		{"I'm not your -Pal-, Chief-", []string{"Pal", "Chief"}},
	}
	for _, c := range cases {
		if got := FollowupTerms(c.in); !reflect.DeepEqual(got, c.want) {
			t.Fatalf("FollowupTerms(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestFollowupTermsRejects(t *testing.T) {
	cases := []string{
		"",
		"hey Buddy",
		"I'm not your Pal",          // single piece
		"I'm not your  , ",          // nothing usable
		"totally not your Pal, Sir", // not anchored at start
		"I'm not my Pal, Chief",     // wrong possessive
	}
	for _, in := range cases {
		if got := FollowupTerms(in); got != nil {
			t.Fatalf("FollowupTerms(%q) = %v, want nil", in, got)
		}
	}
}

func TestFollowupAnchoredWholeMessage(t *testing.T) {
	if got := FollowupTerms("well, I'm not your Pal, Chief"); got != nil {
		t.Fatalf("expected substring match to be rejected, got %v", got)
	}
}

func TestLastWord(t *testing.T) {
	word, count, ok := LastWord("hey there Buddy!")
	if !ok || word != "Buddy" || count != 3 {
		t.Fatalf("LastWord = %q,%d,%v", word, count, ok)
	}
	word, count, ok = LastWord("Buddy")
	if !ok || word != "Buddy" || count != 1 {
		t.Fatalf("single token: %q,%d,%v", word, count, ok)
	}
	if _, _, ok := LastWord("!!! ..."); ok {
		t.Fatalf("expected no tokens")
	}
	word, _, ok = LastWord("don't-stop")
	if !ok || word != "don't-stop" {
		t.Fatalf("apostrophes/hyphens should stay inside tokens, got %q", word)
	}
}

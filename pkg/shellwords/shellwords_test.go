package shellwords

import (
	"errors"
	"testing"
)

// badHints would break tokenization if a lexer actually honored them.
var badHints = Hints{
	"foo":     {Opts: []string{"My"}},
	"bar":     {Opts: []string{"the"}},
	"America": {ArgTest: func(string, []string) bool { return true }},
}

func assertTokens(t *testing.T, got []string, want []string, input string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("split(%q) = %v, want %v", input, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("split(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestMIRCLexer(t *testing.T) {
	pairs := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"cmd", []string{"cmd"}},
		{"ls -l", []string{"ls", "-l"}},
		{"cd --version", []string{"cd", "--version"}},
		{"foo My File.bin", []string{"foo", "My File.bin"}},
		{`bar the "thing" thing.txt`, []string{"bar", `the "thing" thing.txt`}},
		{`bar the 'A B C' thing.ijk`, []string{"bar", `the 'A B C' thing.ijk`}},
		{"baz The O'Neill story.txt", []string{"baz", "The O'Neill story.txt"}},
		{"  leading   ws ", []string{"leading", "ws "}},
		{"solo   ", []string{"solo"}},
	}
	for _, p := range pairs {
		got, err := MIRC.Split(p.in, nil)
		if err != nil {
			t.Fatalf("split(%q): %v", p.in, err)
		}
		assertTokens(t, got, p.want, p.in)

		// Hints are ignored.
		got, err = MIRC.Split(p.in, badHints)
		if err != nil {
			t.Fatalf("split(%q) with hints: %v", p.in, err)
		}
		assertTokens(t, got, p.want, p.in)
	}
	if MIRC.Name != "mirc" {
		t.Fatalf("name = %q, want mirc", MIRC.Name)
	}
}

func TestPOSIXLexerBasics(t *testing.T) {
	pairs := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"cmd", []string{"cmd"}},
		{"ls -l", []string{"ls", "-l"}},
		{"foo My File.bin", []string{"foo", "My", "File.bin"}},
		{"bar the\r\"thing\" thing.txt", []string{"bar", "the", "thing", "thing.txt"}},
		{"bar the\n'thing' thing.abc", []string{"bar", "the", "thing", "thing.abc"}},
		{`bar the  "A B C" thing.xyz`, []string{"bar", "the", "A B C", "thing.xyz"}},
		{"bar the 'A B\tC' thing.ij", []string{"bar", "the", "A B\tC", "thing.ij"}},
		{"baz \"O'Neill\r\n story.txt\"", []string{"baz", "O'Neill\r\n story.txt"}},
		{"'spaced command' foo.txt", []string{"spaced command", "foo.txt"}},
		// '#' is not a comment character here.
		{"America is #1.epub", []string{"America", "is", "#1.epub"}},
		{"1!2@3$4$5%6^7&8*9(0)", []string{"1!2@3$4$5%6^7&8*9(0)"}},
	}
	for _, p := range pairs {
		got, err := POSIX.Split(p.in, nil)
		if err != nil {
			t.Fatalf("split(%q): %v", p.in, err)
		}
		assertTokens(t, got, p.want, p.in)

		got, err = POSIX.Split(p.in, badHints)
		if err != nil {
			t.Fatalf("split(%q) with hints: %v", p.in, err)
		}
		assertTokens(t, got, p.want, p.in)
	}
	if POSIX.Name != "posix" {
		t.Fatalf("name = %q, want posix", POSIX.Name)
	}
}

func TestPOSIXQuotingAndEscapes(t *testing.T) {
	got, err := POSIX.Split("\"1  2\"a ' 4' \"5\t\r\n6\" \" \"' '", nil)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	assertTokens(t, got, []string{"1  2a", " 4", "5\t\r\n6", "  "}, "quoted whitespace")

	got, err = POSIX.Split(`"'" '"' `, nil)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	assertTokens(t, got, []string{"'", `"`}, "quotes quoting each other")

	// Escapes inside and outside double quotes.
	got, _ = POSIX.Split(`"\""`, nil)
	assertTokens(t, got, []string{`"`}, `"\""`)
	got, _ = POSIX.Split(`foo\" bar`, nil)
	assertTokens(t, got, []string{`foo"`, "bar"}, `foo\" bar`)
	// A backslash before a non-escapable char stays literal in quotes.
	got, _ = POSIX.Split(`"\'"`, nil)
	assertTokens(t, got, []string{`\'`}, `"\'"`)

	// Adjacent quoted segments join into one token.
	got, _ = POSIX.Split(`"Quotes"Are"Stripped"Out`, nil)
	assertTokens(t, got, []string{"QuotesAreStrippedOut"}, "double-quote stripping")
	got, _ = POSIX.Split(`'Quotes'Are'Stripped'Out`, nil)
	assertTokens(t, got, []string{"QuotesAreStrippedOut"}, "single-quote stripping")

	// Quotes allow empty tokens.
	got, _ = POSIX.Split("foo '' bar", nil)
	assertTokens(t, got, []string{"foo", "", "bar"}, "empty token")
}

func TestPOSIXBadQuoting(t *testing.T) {
	for _, in := range []string{
		"The O'Neill story.txt",
		`My 25" afro.pdf`,
		`'\''`, // single quotes cannot escape a quote
	} {
		if _, err := POSIX.Split(in, nil); !errors.Is(err, ErrNoClosingQuote) {
			t.Fatalf("split(%q): err = %v, want ErrNoClosingQuote", in, err)
		}
	}
	if _, err := POSIX.Split(`dangling\`, nil); !errors.Is(err, ErrNoEscapedChar) {
		t.Fatalf("trailing escape: err = %v, want ErrNoEscapedChar", err)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"mirc", "posix"} {
		l, err := ByName(name)
		if err != nil || l.Name != name {
			t.Fatalf("ByName(%q) = %v, %v", name, l.Name, err)
		}
	}
	if _, err := ByName("smart"); err == nil {
		t.Fatalf("ByName(smart) should fail")
	}
}

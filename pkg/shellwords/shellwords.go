// Package shellwords provides a small selection of lexers for tokenizing
// command lines into argv-style token lists.
//
// Lexers are free functions paired with a textual name. They accept
// optional per-command parsing hints but are not required to use them; both
// shipped lexers ignore hints entirely. An empty input line always yields
// an empty token list, never a list containing an empty string.
package shellwords

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoClosingQuote reports an unterminated single or double quote.
	ErrNoClosingQuote = errors.New("shellwords: no closing quotation")

	// ErrNoEscapedChar reports a trailing escape with nothing after it.
	ErrNoEscapedChar = errors.New("shellwords: no character after escape")
)

// Command carries parsing hints for one valid argv[0] value: the options
// the command accepts and an optional argument-validity test. ArgTest must
// be side-effect free and must not modify argv; lexers may invoke it
// repeatedly.
type Command struct {
	Opts    []string
	ArgTest func(candidate string, argv []string) bool
}

// Hints maps valid argv[0] values to their parsing hints. Lexers may use as
// much or as little of it as they choose.
type Hints map[string]Command

// SplitFunc parses a raw command line into a token list.
type SplitFunc func(line string, hints Hints) ([]string, error)

// Lexer pairs a SplitFunc with a textual identifier following HTML/XML ID
// rules.
type Lexer struct {
	Name  string
	Split SplitFunc
}

// MIRC implements mIRC-style parsing: the line is split at the first
// whitespace run into the command and the single argument it receives.
var MIRC = Lexer{Name: "mirc", Split: splitMIRC}

// POSIX implements POSIX-like parsing with single/double quotes and
// backslash escapes, equivalent to a POSIX shell's word splitting without
// comment handling.
var POSIX = Lexer{Name: "posix", Split: splitPOSIX}

// Lexers returns all usable lexers.
func Lexers() []Lexer { return []Lexer{MIRC, POSIX} }

// ByName returns the lexer with the given name.
func ByName(name string) (Lexer, error) {
	for _, l := range Lexers() {
		if l.Name == name {
			return l, nil
		}
	}
	return Lexer{}, fmt.Errorf("shellwords: unknown lexer %q", name)
}

const whitespace = " \t\r\n"

func splitMIRC(line string, _ Hints) ([]string, error) {
	line = strings.TrimLeft(line, whitespace)
	if line == "" {
		return nil, nil
	}
	if i := strings.IndexAny(line, whitespace); i >= 0 {
		rest := strings.TrimLeft(line[i:], whitespace)
		if rest == "" {
			return []string{line[:i]}, nil
		}
		return []string{line[:i], rest}, nil
	}
	return []string{line}, nil
}

func splitPOSIX(line string, _ Hints) ([]string, error) {
	var tokens []string
	var tok strings.Builder
	inToken := false

	emit := func() {
		tokens = append(tokens, tok.String())
		tok.Reset()
		inToken = false
	}

	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case strings.IndexByte(whitespace, c) >= 0:
			if inToken {
				emit()
			}
			i++
		case c == '\'':
			// Single quotes are fully literal: no escapes, not even of
			// another single quote.
			inToken = true
			i++
			end := strings.IndexByte(line[i:], '\'')
			if end < 0 {
				return nil, ErrNoClosingQuote
			}
			tok.WriteString(line[i : i+end])
			i += end + 1
		case c == '"':
			inToken = true
			i++
			closed := false
			for i < len(line) {
				c = line[i]
				if c == '"' {
					i++
					closed = true
					break
				}
				if c == '\\' {
					if i+1 >= len(line) {
						return nil, ErrNoClosingQuote
					}
					next := line[i+1]
					// Inside double quotes a backslash escapes only the
					// quote and itself; otherwise it stays literal.
					if next != '"' && next != '\\' {
						tok.WriteByte('\\')
					}
					tok.WriteByte(next)
					i += 2
					continue
				}
				tok.WriteByte(c)
				i++
			}
			if !closed {
				return nil, ErrNoClosingQuote
			}
		case c == '\\':
			if i+1 >= len(line) {
				return nil, ErrNoEscapedChar
			}
			inToken = true
			tok.WriteByte(line[i+1])
			i += 2
		default:
			inToken = true
			tok.WriteByte(c)
			i++
		}
	}
	if inToken {
		emit()
	}
	return tokens, nil
}

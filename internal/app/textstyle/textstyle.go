/*
Package textstyle renders chat text in Unicode mathematical alphanumerics so that bold,
italic and struck-through text survives any plain-text channel.

Bold maps letters and digits to Sans-Serif Bold; italic maps letters to Sans-Serif
Italic; strikethrough uses the italic letters and Sans-Serif digits followed by a
combining long stroke overlay (U+0336).
*/
package textstyle

import (
	"strings"
	"unicode/utf8"
)

const strikeOverlay = '\u0336'

const (
	boldUpper   = 0x1D5D4
	boldLower   = 0x1D5EE
	boldDigit   = 0x1D7EC
	italicUpper = 0x1D608
	italicLower = 0x1D622
	sansDigit   = 0x1D7E2
)

type styleMap struct {
	forward map[rune]rune
	reverse map[rune]rune
}

func newStyleMap(upper, lower, digit rune) styleMap {
	m := styleMap{forward: make(map[rune]rune), reverse: make(map[rune]rune)}
	for i := rune(0); i < 26; i++ {
		m.add('A'+i, upper+i)
		m.add('a'+i, lower+i)
	}
	if digit != 0 {
		for i := rune(0); i < 10; i++ {
			m.add('0'+i, digit+i)
		}
	}
	return m
}

func (m styleMap) add(plain, styled rune) {
	m.forward[plain] = styled
	m.reverse[styled] = plain
}

func (m styleMap) apply(text string) string {
	return strings.Map(func(r rune) rune {
		if s, ok := m.forward[r]; ok {
			return s
		}
		return r
	}, text)
}

func (m styleMap) remove(text string) string {
	return strings.Map(func(r rune) rune {
		if p, ok := m.reverse[r]; ok {
			return p
		}
		return r
	}, text)
}

func (m styleMap) styled(text string) bool {
	for _, r := range text {
		if _, ok := m.reverse[r]; ok {
			return true
		}
	}
	return false
}

var (
	bold   = newStyleMap(boldUpper, boldLower, boldDigit)
	italic = newStyleMap(italicUpper, italicLower, 0)
	strike = newStyleMap(italicUpper, italicLower, sansDigit)
)

// IsBold reports whether text contains any bold rune.
func IsBold(text string) bool { return bold.styled(text) }

// IsItalic reports whether text contains any italic rune.
func IsItalic(text string) bool { return italic.styled(text) }

// IsStrike reports whether text contains the strike overlay.
func IsStrike(text string) bool { return strings.ContainsRune(text, strikeOverlay) }

// Bold renders text in bold without normalizing it first.
func Bold(text string) string { return bold.apply(text) }

// Italic renders text in italic without normalizing it first.
func Italic(text string) string { return italic.apply(text) }

// Strike renders text struck through. Spaces and newlines are left bare.
func Strike(text string) string {
	var b strings.Builder
	b.Grow(len(text) * 2)
	for _, r := range text {
		if r == ' ' || r == '\n' {
			b.WriteRune(r)
			continue
		}
		if s, ok := strike.forward[r]; ok {
			r = s
		}
		b.WriteRune(r)
		b.WriteRune(strikeOverlay)
	}
	return b.String()
}

// Normalize removes strikethrough, bold and italic, in that order.
func Normalize(text string) string {
	if IsStrike(text) {
		text = strike.remove(strings.ReplaceAll(text, string(strikeOverlay), ""))
	}
	if IsBold(text) {
		text = bold.remove(text)
	}
	if IsItalic(text) {
		text = italic.remove(text)
	}
	return text
}

// ToggleBold returns plain text when text has any bold rune, else the bold rendering of
// its plain form.
func ToggleBold(text string) string {
	if IsBold(text) {
		return Normalize(text)
	}
	return Bold(Normalize(text))
}

// ToggleItalic is ToggleBold for italic.
func ToggleItalic(text string) string {
	if IsItalic(text) {
		return Normalize(text)
	}
	return Italic(Normalize(text))
}

// ToggleStrike is ToggleBold for strikethrough.
func ToggleStrike(text string) string {
	if IsStrike(text) {
		return Normalize(text)
	}
	return Strike(Normalize(text))
}

// TransformMarked styles every space-separated word wrapped in a marker pair:
// *bold*, _italic_ or ~strike~. Words shorter than three runes are left as is.
func TransformMarked(text string) string {
	words := strings.Split(text, " ")
	for i, w := range words {
		words[i] = transformWord(w)
	}
	return strings.Join(words, " ")
}

func transformWord(word string) string {
	if utf8.RuneCountInString(word) < 3 {
		return word
	}

	inner := word[1 : len(word)-1]
	switch {
	case wrapped(word, '*'):
		return Bold(Normalize(inner))
	case wrapped(word, '_'):
		return Italic(Normalize(inner))
	case wrapped(word, '~'):
		return Strike(Normalize(inner))
	}
	return word
}

func wrapped(word string, marker byte) bool {
	return word[0] == marker && word[len(word)-1] == marker
}

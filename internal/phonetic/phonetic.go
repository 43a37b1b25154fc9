// Package phonetic generates spelling variants for drug names typed by ear.
//
// Arabic tokens are transliterated to Latin letters. Latin tokens are expanded
// through a fixed set of confusion classes (f/ph, c/k/s, i/y, ...) so that a
// query like "panadol" also matches "penadol" and "fenak" matches "phenak".
package phonetic

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxVariants caps the size of a generated variant set
const MaxVariants = 512

// confusionClasses lists spellings that are interchangeable by sound.
// Every member of a class may replace any other member, except that a
// member is never rewritten into a longer member that ends with it when the
// text before it already supplies the extra prefix (u -> ou after an o).
var confusionClasses = [][]string{
	{"ph", "f"},
	{"c", "k", "s"},
	{"i", "y"},
	{"ai", "ay", "ei", "ey"},
	{"sh", "ch"},
	{"a", "e"},
	{"ou", "u"},
	{"x", "ks"},
}

var arabicToLatin = map[rune]string{
	'ا': "a", 'أ': "a", 'إ': "i", 'آ': "a", 'ب': "b", 'ت': "t", 'ث': "th",
	'ج': "j", 'ح': "h", 'خ': "kh", 'د': "d", 'ذ': "dh", 'ر': "r", 'ز': "z",
	'س': "s", 'ش': "sh", 'ص': "s", 'ض': "d", 'ط': "t", 'ظ': "z", 'ع': "a",
	'غ': "gh", 'ف': "f", 'ق': "q", 'ك': "k", 'ل': "l", 'م': "m", 'ن': "n",
	'ه': "h", 'و': "w", 'ي': "y", 'ى': "a", 'ة': "h", 'ء': "", 'ئ': "y",
	'ؤ': "w", 'پ': "p", 'ڤ': "v", 'گ': "g",
}

// ContainsArabic reports whether s has at least one Arabic-script letter
func ContainsArabic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Arabic, r) && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// Transliterate maps Arabic letters to Latin spellings character by character.
// Diacritics are dropped first; characters without a mapping pass through.
func Transliterate(s string) string {
	s = stripMarks(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if latin, ok := arabicToLatin[r]; ok {
			b.WriteString(latin)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Variants returns the spelling variants of token. The first element is always
// token itself, unchanged.
//
// For Arabic input the result is the token plus its transliteration. For Latin
// input the lower-cased, accent-folded token and its whitespace-stripped form
// are expanded pass by pass: in each pass every confusion class is applied once
// to the variants found in the previous pass. Expansion stops when a pass finds
// nothing new or at MaxVariants.
//
// No substitution can grow a variant without bound, so the expansion reaches
// its closure. Below the cap the result is closed: Variants(v) of any v in
// Variants(token) stays inside Variants(token).
func Variants(token string) []string {
	set := newVariantSet(token)
	if strings.TrimSpace(token) == "" {
		return set.list
	}

	if ContainsArabic(token) {
		set.add(Transliterate(token))
		return set.list
	}

	base := strings.ToLower(stripMarks(token))
	frontier := make([]string, 0, 2)
	if set.add(base) || base == token {
		frontier = append(frontier, base)
	}
	if stripped := stripSpaces(base); stripped != base && set.add(stripped) {
		frontier = append(frontier, stripped)
	}

	for len(frontier) > 0 {
		var next []string
		for _, v := range frontier {
			for _, cand := range substitutions(v) {
				if set.full() {
					return set.list
				}
				if set.add(cand) {
					next = append(next, cand)
				}
			}
		}
		frontier = next
	}
	return set.list
}

// substitutions returns every string obtained from v by replacing one
// occurrence of one class member with another member of the same class
func substitutions(v string) []string {
	var out []string
	for _, class := range confusionClasses {
		for _, from := range class {
			for offset := 0; offset < len(v); {
				idx := strings.Index(v[offset:], from)
				if idx < 0 {
					break
				}
				pos := offset + idx
				for _, to := range class {
					if to == from || regrows(v, pos, from, to) {
						continue
					}
					out = append(out, v[:pos]+to+v[pos+len(from):])
				}
				offset = pos + 1
			}
		}
	}
	return out
}

// regrows reports whether writing to in place of from at pos would only
// re-apply a growth that already happened, or extend across a word gap.
// Both would let a class keep matching its own output.
func regrows(v string, pos int, from, to string) bool {
	if len(to) <= len(from) || !strings.HasSuffix(to, from) {
		return false
	}
	if pos > 0 && unicode.IsSpace(rune(v[pos-1])) {
		return true
	}
	return strings.HasSuffix(v[:pos], to[:len(to)-len(from)])
}

type variantSet struct {
	list []string
	seen map[string]struct{}
}

func newVariantSet(first string) *variantSet {
	return &variantSet{
		list: []string{first},
		seen: map[string]struct{}{first: {}},
	}
}

func (s *variantSet) add(v string) bool {
	if v == "" {
		return false
	}
	if _, ok := s.seen[v]; ok {
		return false
	}
	s.seen[v] = struct{}{}
	s.list = append(s.list, v)
	return true
}

func (s *variantSet) full() bool { return len(s.list) >= MaxVariants }

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// stripMarks removes combining marks: Latin accents and Arabic tashkeel
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

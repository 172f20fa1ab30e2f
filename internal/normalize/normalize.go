// Package normalize canonicalizes raw administrative place names into
// comparison keys. Normalization is a pure function of the input string:
// the same raw name always yields the same key, and normalizing an already
// cleaned display form yields the same key as normalizing the raw form.
package normalize

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Key is the derived comparison key for one raw name.
type Key struct {
	// Clean is the lowercase, separator-unified, token-stripped form.
	Clean string
	// Phonetic is the space-joined Double Metaphone code of Clean's tokens.
	// Empty when no token produces a code (e.g. purely numeric names).
	Phonetic string
}

// Tokens splits the clean form into its whitespace tokens.
func (k Key) Tokens() []string {
	if k.Clean == "" {
		return nil
	}
	return strings.Fields(k.Clean)
}

// Config carries the deployment-specific strip-token lists. Prefixes cover
// dataset conventions such as two-letter state codes prepended to ward names;
// suffixes cover generic unit words ("Ward", "District").
type Config struct {
	StripPrefixes []string
	StripSuffixes []string
}

// Normalizer derives Keys from raw names. Safe for concurrent use after
// construction.
type Normalizer struct {
	prefixes map[string]struct{}
	suffixes map[string]struct{}
}

// separators that become a single space before tokenization.
var separatorReplacer = strings.NewReplacer(
	"-", " ",
	"/", " ",
	"\\", " ",
	"_", " ",
	",", " ",
	".", " ",
	"(", " ",
	")", " ",
	"'", " ",
	"’", " ",
	"&", " and ",
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// New builds a Normalizer from the configured strip-token lists.
func New(cfg Config) *Normalizer {
	n := &Normalizer{
		prefixes: make(map[string]struct{}, len(cfg.StripPrefixes)),
		suffixes: make(map[string]struct{}, len(cfg.StripSuffixes)),
	}
	for _, p := range cfg.StripPrefixes {
		n.prefixes[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	for _, s := range cfg.StripSuffixes {
		n.suffixes[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return n
}

// Normalize derives the comparison key for a raw name. Total: never fails,
// and returns the zero Key for blank input.
func (n *Normalizer) Normalize(raw string) Key {
	clean := n.cleanTokens(raw, true)
	if clean == "" {
		return Key{}
	}
	return Key{Clean: clean, Phonetic: phoneticCode(clean)}
}

// Display returns a human-readable cleaned form of a raw name: separators
// unified, strip tokens removed, whitespace collapsed, original casing kept.
// Normalize(Display(x)) == Normalize(x) for all x.
func (n *Normalizer) Display(raw string) string {
	return n.cleanTokens(raw, false)
}

func (n *Normalizer) cleanTokens(raw string, lower bool) string {
	s := asciiFold(raw)
	s = separatorReplacer.Replace(s)

	tokens := strings.Fields(s)
	// Strip configured positional tokens: known prefixes from the front,
	// known suffixes from the back. Repeats handle stacked tokens
	// ("ad gombi ward ward"), but at least one token always survives.
	for len(tokens) > 1 {
		if _, ok := n.prefixes[strings.ToLower(tokens[0])]; !ok {
			break
		}
		tokens = tokens[1:]
	}
	for len(tokens) > 1 {
		if _, ok := n.suffixes[strings.ToLower(tokens[len(tokens)-1])]; !ok {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}

	out := strings.Join(tokens, " ")
	if lower {
		out = strings.ToLower(out)
	}
	return out
}

// asciiFold strips combining marks and transliterates any remaining
// non-ASCII runes.
func asciiFold(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	return unidecode.Unidecode(folded)
}

// phoneticCode joins the primary Double Metaphone code of each token.
// Tokens that encode to nothing (numerals) are skipped.
func phoneticCode(clean string) string {
	var codes []string
	for _, tok := range strings.Fields(clean) {
		primary, _ := matchr.DoubleMetaphone(tok)
		if primary != "" {
			codes = append(codes, primary)
		}
	}
	return strings.Join(codes, " ")
}

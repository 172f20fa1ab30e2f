package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNormalizer() *Normalizer {
	return New(Config{
		StripPrefixes: []string{"ad", "bo"},
		StripSuffixes: []string{"ward", "district"},
	})
}

func TestNormalize(t *testing.T) {
	n := testNormalizer()

	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "prefix and suffix stripped",
			raw:      "ad Girei Ward",
			expected: "girei",
		},
		{
			name:     "separators unified",
			raw:      "Mayo-Belwa",
			expected: "mayo belwa",
		},
		{
			name:     "slash separator",
			raw:      "Futudou/Futuless",
			expected: "futudou futuless",
		},
		{
			name:     "whitespace collapsed and lowercased",
			raw:      "  GIREI   TOWN ",
			expected: "girei town",
		},
		{
			name:     "apostrophe",
			raw:      "Ma'anta",
			expected: "ma anta",
		},
		{
			name:     "diacritics folded",
			raw:      "Gwéza Ward",
			expected: "gweza",
		},
		{
			name:     "strip token never empties the name",
			raw:      "Ward",
			expected: "ward",
		},
		{
			name:     "ampersand",
			raw:      "Sabon Gari & Tudun Wada",
			expected: "sabon gari and tudun wada",
		},
		{
			name:     "blank input",
			raw:      "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Normalize(tt.raw).Clean)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := testNormalizer()

	inputs := []string{
		"ad Girei Ward",
		"Ribadu (Mayo-Belwa)",
		"Futudou/Futuless",
		"  VERRE  district ",
		"Gombi",
		"123",
	}

	for _, raw := range inputs {
		once := n.Normalize(raw)
		display := n.Display(raw)
		again := n.Normalize(display)
		assert.Equal(t, once, again, "normalize(display(%q)) differs from normalize(%q)", raw, raw)

		// Re-normalizing the clean form is also stable.
		assert.Equal(t, once.Clean, n.Normalize(once.Clean).Clean)
	}
}

func TestPhoneticCode(t *testing.T) {
	n := testNormalizer()

	// Spelling variants that should collide phonetically.
	a := n.Normalize("Jimeta")
	b := n.Normalize("Jymeta")
	require.NotEmpty(t, a.Phonetic)
	assert.Equal(t, a.Phonetic, b.Phonetic)

	// Distinct names should not collide.
	c := n.Normalize("Gombi")
	assert.NotEqual(t, a.Phonetic, c.Phonetic)

	// Purely numeric names carry no phonetic code.
	assert.Empty(t, n.Normalize("123").Phonetic)
}

func TestTokens(t *testing.T) {
	n := testNormalizer()

	assert.Equal(t, []string{"mayo", "belwa"}, n.Normalize("Mayo-Belwa").Tokens())
	assert.Nil(t, n.Normalize("").Tokens())
}

func TestDisplayKeepsCasing(t *testing.T) {
	n := testNormalizer()

	assert.Equal(t, "Girei", n.Display("ad Girei Ward"))
	assert.Equal(t, "Mayo Belwa", n.Display("Mayo-Belwa"))
}

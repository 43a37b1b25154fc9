package phonetic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantsKeepsInputFirst(t *testing.T) {
	for _, in := range []string{"Panadol", "fix", "بنادول", "", "  "} {
		got := Variants(in)
		require.NotEmpty(t, got)
		assert.Equal(t, in, got[0], "input %q must come back unchanged", in)
	}
}

func TestVariantsConfusionClasses(t *testing.T) {
	got := Variants("fenak")
	assert.Contains(t, got, "phenak")
	assert.Contains(t, got, "fanak")
	assert.Contains(t, got, "fenac")

	got = Variants("Aspirin")
	assert.Contains(t, got, "aspirin")
	assert.Contains(t, got, "aspiryn")
	assert.Contains(t, got, "espirin")
}

func TestVariantsStripsWhitespace(t *testing.T) {
	got := Variants("co amoxiclav")
	assert.Contains(t, got, "coamoxiclav")
}

func TestVariantsFoldsAccents(t *testing.T) {
	got := Variants("Ibuprofène")
	assert.Contains(t, got, "ibuprofene")
}

func TestVariantsArabicTransliteration(t *testing.T) {
	got := Variants("بنادول")
	require.Len(t, got, 2)
	assert.Equal(t, "banadwl", got[1])

	// Diacritics are dropped before mapping
	assert.Equal(t, Transliterate("بنادول"), Transliterate("بَنَادُول"))
	assert.Equal(t, "thsa", Transliterate("ثصع"))
}

func TestTransliterateKeepsUnmapped(t *testing.T) {
	assert.Equal(t, "banadwl 500", Transliterate("بنادول 500"))
}

func TestContainsArabic(t *testing.T) {
	assert.True(t, ContainsArabic("دواء"))
	assert.True(t, ContainsArabic("panadol بنادول"))
	assert.False(t, ContainsArabic("panadol 500"))
}

func TestVariantsIdempotentOnOwnOutput(t *testing.T) {
	tokens := []string{"fix", "fenak", "shay", "augmentin", "brufen", "xanax", "chloroquine"}
	for _, token := range tokens {
		first := Variants(token)
		require.Less(t, len(first), MaxVariants, "closure of %q should fit under the cap", token)
		set := make(map[string]bool, len(first))
		for _, v := range first {
			set[v] = true
		}
		for _, v := range first {
			for _, again := range Variants(v) {
				assert.True(t, set[again], "variant %q of %q escaped the original set of %q", again, v, token)
			}
		}
	}
}

func TestVariantsDoNotGrow(t *testing.T) {
	for _, token := range []string{"augmentin", "brufen", "xanax", "chloroquine", "fix", "duo"} {
		for _, v := range Variants(token) {
			assert.LessOrEqual(t, len(v), len(token)+3, "variant %q of %q grew too long", v, token)
			assert.NotContains(t, v, "oou", "variant %q of %q repeats the u -> ou rewrite", v, token)
		}
	}
}

func TestVariantsRealDrugNames(t *testing.T) {
	assert.Contains(t, Variants("augmentin"), "aougmentin")
	assert.Contains(t, Variants("brufen"), "bruphen")
	assert.Contains(t, Variants("xanax"), "ksanax")
	assert.Contains(t, Variants("chloroquine"), "shloroquine")

	// A u already written as ou only shrinks back
	got := Variants("duo")
	assert.Contains(t, got, "douo")
	assert.NotContains(t, got, "doouo")

	// Across a word gap the u stays as typed
	assert.NotContains(t, Variants("amoxi u"), "amoxi ou")
}

func TestVariantsBounded(t *testing.T) {
	long := "paracetamol acetaminophen caffeine"
	got := Variants(long)
	assert.LessOrEqual(t, len(got), MaxVariants)
	assert.Equal(t, long, got[0])
}

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName_Empty(t *testing.T) {
	n := Default()
	assert.Equal(t, "", n.Name(""))
	assert.Equal(t, "", n.Name("   "))
	assert.Empty(t, n.Tokens("\t\n"))
}

func TestName_LegalSuffixVariants(t *testing.T) {
	n := Default()
	assert.Equal(t, "acme", n.Name("Acme B.V."))
	assert.Equal(t, "acme", n.Name("ACME bv"))
	assert.Equal(t, "acme", n.Name("Acme BV"))
	assert.Equal(t, "acme", n.Name("Acme B. V."))
	assert.Equal(t, "acme", n.Name("Acme N.V."))
	assert.Equal(t, "acme", n.Name("Acme GmbH"))
	assert.Equal(t, "acme", n.Name("Acme Ltd."))
	assert.Equal(t, "acme", n.Name("acme v.o.f."))
}

func TestName_SuffixAnywhere(t *testing.T) {
	n := Default()
	assert.Equal(t, "acme holding", n.Name("Acme B.V. Holding"))
}

func TestName_Punctuation(t *testing.T) {
	n := Default()
	assert.Equal(t, "smith jones", n.Name("Smith & Jones"))
	assert.Equal(t, "joes advisors", n.Name("Joe's Advisors"))
	assert.Equal(t, "wells fargo", n.Name("Wells-Fargo"))
	assert.Equal(t, "acme advisors", n.Name("  Acme   Advisors  "))
}

func TestName_Diacritics(t *testing.T) {
	n := Default()
	assert.Equal(t, "cafe beleren", n.Name("Café Béléren B.V."))
}

func TestName_OnlySuffix(t *testing.T) {
	assert.Equal(t, "", Default().Name("B.V."))
}

func TestName_Idempotent(t *testing.T) {
	n := Default()
	inputs := []string{
		"Acme B.V.",
		"x bv y",
		"b inc v",
		"Nabuurs - supply chain solutions",
		"A. B. C. Transport N.V.",
		"Melkweg|Fritom",
		"Joe's Café, Ltd.",
		"b-v",
	}
	for _, in := range inputs {
		once := n.Name(in)
		assert.Equal(t, once, n.Name(once), "input %q", in)
	}
}

func TestName_CollapsesUntilFixpoint(t *testing.T) {
	n := Default()
	// Removing "inc" leaves "b v", which collapses into the suffix "bv".
	assert.Equal(t, "", n.Name("b inc v"))
	assert.Equal(t, "xy", n.Name("x bv y"))
}

func TestTokens_SortedUnique(t *testing.T) {
	n := Default()
	assert.Equal(t, []string{"beta", "corp"}, n.Tokens("Corp Beta beta"))
}

func TestKey_OrderIndependent(t *testing.T) {
	n := Default()
	assert.Equal(t, n.Key("Beta Corp Ltd"), n.Key("corp beta"))
	assert.Equal(t, "beta corp", n.Key("Beta Corp"))
}

func TestVariants(t *testing.T) {
	n := Default()
	assert.ElementsMatch(t, []string{"melkweg fritom", "melkweg", "fritom"}, n.Variants("Melkweg|Fritom"))
	assert.ElementsMatch(t,
		[]string{"nabuurs supply chain solutions", "nabuurs", "supply chain solutions"},
		n.Variants("Nabuurs - supply chain solutions"),
	)
	assert.Equal(t, []string{"acme"}, n.Variants("Acme B.V."))
}

func TestVariants_DropsShortParts(t *testing.T) {
	n := Default()
	assert.Equal(t, []string{"ab cd"}, n.Variants("AB; CD"))
	assert.Equal(t, []string{"ab acme", "acme"}, n.Variants("AB; Acme"))
}

func TestNew_CustomSuffixes(t *testing.T) {
	n := New([]string{"S.p.A."})
	assert.Equal(t, "fiat", n.Name("Fiat S.p.A."))
	assert.Equal(t, "acme bv", n.Name("Acme B.V."))
}

package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleRankOrder(t *testing.T) {
	// The selection order is a strict total order over the vocabulary.
	ordered := []string{
		"Chief Compliance Officer",
		"Principal",
		"Managing Member",
		"Managing Director",
		"Managing Partner",
		"CEO",
		"President",
		"Founder",
		"Owner",
		"Partner",
		"Director",
		"VP",
	}
	prev := -1
	for _, title := range ordered {
		rank := TitleRank(title)
		assert.Greater(t, rank, prev, "rank of %q", title)
		prev = rank
	}
	assert.Less(t, TitleRank("CCO"), TitleRank("VP"))
}

func TestTitleRankCompounds(t *testing.T) {
	// Compound titles must rank as themselves, not as their suffix.
	assert.Equal(t, TitleRank("Managing Director"), TitleRank("managing director"))
	assert.Less(t, TitleRank("Managing Director"), TitleRank("Director"))
	assert.Less(t, TitleRank("President"), TitleRank("Vice President"))
	assert.Equal(t, TitleRank("VP"), TitleRank("Vice President"))
	assert.Less(t, TitleRank("Managing Partner"), TitleRank("Partner"))
}

func TestTitleRankUnranked(t *testing.T) {
	assert.Equal(t, UnrankedTitle, TitleRank(""))
	assert.Equal(t, UnrankedTitle, TitleRank("Chief Financial Officer"))
	assert.Equal(t, UnrankedTitle, TitleRank("Head of Growth"))
}

func TestTitleRankNoSubstringFalsePositives(t *testing.T) {
	// "cco" must not match inside an unrelated word.
	assert.Equal(t, UnrankedTitle, TitleRank("McCoy Account Lead"))
}

func TestFindTitle(t *testing.T) {
	assert.Equal(t, "Chief Compliance Officer", FindTitle("Jane Doe, Chief Compliance Officer"))
	assert.Equal(t, "CEO", FindTitle("Sam Caspersen - CEO"))
	assert.Empty(t, FindTitle("Welcome to our homepage"))
}

func TestCanonicalTitle(t *testing.T) {
	assert.Equal(t, "Chief Compliance Officer", CanonicalTitle("chief compliance officer"))
	assert.Equal(t, "CCO", CanonicalTitle("cco"))
	assert.Equal(t, "CEO", CanonicalTitle("ceo"))
	assert.Empty(t, CanonicalTitle("  "))
}

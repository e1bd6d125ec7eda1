// Package contact discovers the single best contact (name, title, email)
// for a firm, combining a domain-search API with website scraping.
package contact

import (
	"regexp"
	"sort"
	"strings"
)

// UnrankedTitle is the rank assigned to recognized titles outside the
// priority order and to empty titles. Lower ranks win.
const UnrankedTitle = 999

// titlePriority is the selection order over titles. Compliance officers
// come first: a newly registered adviser's CCO is the buyer for
// compliance tooling.
var titlePriority = [][]string{
	{"chief compliance officer", "cco"},
	{"principal"},
	{"managing member"},
	{"managing director"},
	{"managing partner"},
	{"chief executive officer", "ceo"},
	{"president"},
	{"founder", "co-founder"},
	{"owner"},
	{"partner"},
	{"director"},
	{"vp", "vice president"},
}

// otherTitles are recognized by the extraction strategies but carry no
// selection priority.
var otherTitles = []string{
	"chief operating officer", "coo",
	"chief financial officer", "cfo",
	"advisor", "adviser",
}

type titleAlias struct {
	re   *regexp.Regexp
	rank int
}

// titleAliases is sorted by alias length descending so that, for example,
// "vice president" is tested before "president" and "managing director"
// before "director".
var titleAliases = buildTitleAliases()

func buildTitleAliases() []titleAlias {
	type entry struct {
		alias string
		rank  int
	}
	var entries []entry
	for rank, aliases := range titlePriority {
		for _, a := range aliases {
			entries = append(entries, entry{a, rank})
		}
	}
	for _, a := range otherTitles {
		entries = append(entries, entry{a, UnrankedTitle})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return len(entries[i].alias) > len(entries[j].alias)
	})

	out := make([]titleAlias, len(entries))
	for i, e := range entries {
		out[i] = titleAlias{
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(e.alias) + `\b`),
			rank: e.rank,
		}
	}
	return out
}

// TitleRank maps a free-text title to its selection rank. Longer aliases
// are matched first so compound titles rank as themselves, not as their
// suffix.
func TitleRank(title string) int {
	title = strings.TrimSpace(title)
	if title == "" {
		return UnrankedTitle
	}
	for _, a := range titleAliases {
		if a.re.MatchString(title) {
			return a.rank
		}
	}
	return UnrankedTitle
}

// titleVocabRe matches any recognized title in free text, longest
// alternative first.
var titleVocabRe = buildTitleVocabRe()

func buildTitleVocabRe() *regexp.Regexp {
	var aliases []string
	for _, group := range titlePriority {
		aliases = append(aliases, group...)
	}
	aliases = append(aliases, otherTitles...)
	sort.SliceStable(aliases, func(i, j int) bool { return len(aliases[i]) > len(aliases[j]) })
	for i, a := range aliases {
		aliases[i] = regexp.QuoteMeta(a)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(aliases, "|") + `)\b`)
}

// FindTitle returns the first recognized title in a line, or "".
func FindTitle(line string) string {
	m := titleVocabRe.FindString(line)
	return strings.TrimSpace(m)
}

// CanonicalTitle normalizes a matched title to title case for output.
func CanonicalTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	upper := strings.ToUpper(title)
	if upper == "CCO" || upper == "CEO" || upper == "COO" || upper == "CFO" || upper == "VP" {
		return upper
	}
	words := strings.Fields(strings.ToLower(title))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

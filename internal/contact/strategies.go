package contact

import (
	"regexp"
	"strings"

	"github.com/surgeone-ai/ria-pipeline/internal/scrape"
)

// Candidate is one possible contact before selection. Email may be empty
// until resolution.
type Candidate struct {
	Name   string
	Title  string
	Email  string
	Source string // "hunter.io" or "website"
}

// Strategy extracts contact candidates from one fetched page. Strategies
// are independent and all run; their outputs are merged in order.
type Strategy interface {
	Name() string
	Extract(page *scrape.Result) []Candidate
}

// namePattern matches a personal name: First [M.] Last [Suffix], all
// capitalized words.
var namePattern = regexp.MustCompile(
	`\b([A-Z][a-z]+(?:\s+[A-Z]\.?)?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)\b`)

// LabelThenName finds a title label (a line that is solely a recognized
// title, or "Title: Name" on one line) and pairs it with a personal name
// on the same line or within the next few lines.
type LabelThenName struct{}

func (LabelThenName) Name() string { return "label_then_name" }

// window is how many following lines may hold the name for a bare label.
const labelWindow = 3

var labelSepRe = regexp.MustCompile(`\s*[:\-–—|]\s*`)

func (LabelThenName) Extract(page *scrape.Result) []Candidate {
	lines := strings.Split(page.Text, "\n")
	var out []Candidate
	for i, line := range lines {
		line = strings.TrimSpace(line)
		title := FindTitle(line)
		if title == "" {
			continue
		}

		// "Chief Compliance Officer: Jane Doe" on one line.
		if parts := labelSepRe.Split(line, 2); len(parts) == 2 && isSoleTitle(parts[0]) {
			if name := namePattern.FindString(parts[1]); name != "" {
				out = append(out, Candidate{Name: name, Title: CanonicalTitle(title), Source: "website"})
				continue
			}
		}

		// Bare label line: the name follows shortly after.
		if !isSoleTitle(line) {
			continue
		}
		for j := i + 1; j <= i+labelWindow && j < len(lines); j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" {
				continue
			}
			if name := namePattern.FindString(next); name == next && name != "" {
				out = append(out, Candidate{Name: name, Title: CanonicalTitle(title), Source: "website"})
				break
			}
		}
	}
	return out
}

// isSoleTitle reports whether the text consists of nothing but a
// recognized title, ignoring surrounding punctuation.
func isSoleTitle(text string) bool {
	text = strings.Trim(strings.TrimSpace(text), ":-–—|")
	text = strings.TrimSpace(text)
	title := FindTitle(text)
	return title != "" && strings.EqualFold(title, text)
}

// NameCommaTitle finds "Jane Doe, Chief Compliance Officer" style lines:
// a personal name, a separator, then a recognized title.
type NameCommaTitle struct{}

func (NameCommaTitle) Name() string { return "name_comma_title" }

var nameSepRe = regexp.MustCompile(
	`\b([A-Z][a-z]+(?:\s+[A-Z]\.?)?\s+[A-Z][a-z]+)\s*[,|–—\-]\s*(.{2,60})`)

func (NameCommaTitle) Extract(page *scrape.Result) []Candidate {
	var out []Candidate
	for _, line := range strings.Split(page.Text, "\n") {
		m := nameSepRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		title := FindTitle(m[2])
		if title == "" {
			continue
		}
		out = append(out, Candidate{
			Name:   strings.TrimSpace(m[1]),
			Title:  CanonicalTitle(title),
			Source: "website",
		})
	}
	return out
}

// TeamMarkup reads team-member cards from HTML structure: elements whose
// class names mark them as team, staff, bio, member, or advisor blocks.
// Name and title are taken as the first match of each inside the card.
type TeamMarkup struct{}

func (TeamMarkup) Name() string { return "team_markup" }

var (
	cardClassRe = regexp.MustCompile(
		`(?i)<\w+[^>]*class\s*=\s*["'][^"']*(?:team|staff|bio|member|advisor)[^"']*["'][^>]*>`)

	// cardWindow bounds how much HTML after the opening tag is treated as
	// the card body. Cards are small; a fixed window avoids tracking tag
	// nesting.
	cardWindow = 800

	maxCardsPerPage = 10
)

func (TeamMarkup) Extract(page *scrape.Result) []Candidate {
	locs := cardClassRe.FindAllStringIndex(page.HTML, maxCardsPerPage)
	var out []Candidate
	for _, loc := range locs {
		end := loc[1] + cardWindow
		if end > len(page.HTML) {
			end = len(page.HTML)
		}
		cardText := scrape.StripHTML(page.HTML[loc[1]:end])

		name := namePattern.FindString(cardText)
		title := FindTitle(cardText)
		if name == "" || title == "" {
			continue
		}
		out = append(out, Candidate{
			Name:   name,
			Title:  CanonicalTitle(title),
			Source: "website",
		})
	}
	return out
}

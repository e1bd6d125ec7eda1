package contact

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/surgeone-ai/ria-pipeline/internal/model"
	"github.com/surgeone-ai/ria-pipeline/internal/scrape"
	"github.com/surgeone-ai/ria-pipeline/pkg/hunter"
)

// corpWords mark a "name" as a corporate entity, never a person.
var corpWords = map[string]bool{
	"LLC": true, "INC": true, "LTD": true, "CORP": true, "LP": true,
	"LLP": true, "THE": true, "AND": true, "GROUP": true,
}

// falseNameWords are capitalized financial and navigation terms that the
// name pattern mistakes for personal names. Any hit rejects the candidate.
var falseNameWords = map[string]bool{
	"CASH": true, "ACCOUNT": true, "ACCOUNTS": true, "RESERVE": true,
	"FUND": true, "FUNDS": true, "TRUST": true, "CAPITAL": true,
	"INVESTMENT": true, "INVESTMENTS": true, "ADVISORY": true,
	"ADVISORS": true, "ADVISERS": true, "WEALTH": true, "MANAGEMENT": true,
	"FINANCIAL": true, "SECURITIES": true, "SERVICES": true,
	"PORTFOLIO": true, "ASSET": true, "ASSETS": true, "EQUITY": true,
	"BOND": true, "BONDS": true, "MARKET": true, "MARKETS": true,
	"TRADING": true, "RETIREMENT": true, "PLANNING": true,
	"BROKERAGE": true, "BANKING": true, "INSURANCE": true,
	"COMPLIANCE": true, "REGISTERED": true, "PROGRAM": true, "BANKS": true,
	"BEST": true, "HIGH": true, "LOW": true, "NET": true, "WORTH": true,
	"RATE": true, "RATES": true, "YIELD": true, "PERFORMANCE": true,
	"REPORT": true, "RETURNS": true, "INCOME": true, "INTEREST": true,
	"DEPOSIT": true, "SAVINGS": true, "CHECKING": true, "CREDIT": true,
	"DEBIT": true, "LOAN": true, "MORTGAGE": true, "PREMIER": true,
	"PREMIUM": true, "BASIC": true, "STANDARD": true, "ADVANCED": true,
	"SELECT": true, "ABOUT": true, "MORE": true, "LEARN": true,
	"VIEW": true, "DETAILS": true, "TERMS": true, "PRIVACY": true,
	"POLICY": true, "CONTACT": true, "HELP": true, "SUPPORT": true,
	"HOME": true, "BACK": true, "NEXT": true,
}

// PlausiblePersonName rejects corporate entities and financial terms that
// match the capitalized-name shape.
func PlausiblePersonName(name string) bool {
	name = strings.TrimSpace(name)
	if len(name) < 4 || len(name) > 40 {
		return false
	}
	for _, w := range strings.Fields(strings.ToUpper(name)) {
		w = strings.Trim(w, ".,")
		if corpWords[w] || falseNameWords[w] {
			return false
		}
	}
	return true
}

// Extractor runs the full contact-discovery pipeline for one firm.
type Extractor struct {
	hunter     hunter.Client // nil when no API key is configured
	site       *scrape.Site
	strategies []Strategy
}

// NewExtractor creates an Extractor. hunterClient may be nil; the API
// stage is then skipped entirely.
func NewExtractor(hunterClient hunter.Client, site *scrape.Site) *Extractor {
	return &Extractor{
		hunter: hunterClient,
		site:   site,
		strategies: []Strategy{
			LabelThenName{},
			NameCommaTitle{},
			TeamMarkup{},
		},
	}
}

// Extract discovers the best contact for a firm. It never fails: network
// errors, parse misses, and API quota exhaustion all degrade to a partial
// or empty Contact. Exactly one contact is returned; additional
// candidates are discarded.
func (e *Extractor) Extract(ctx context.Context, firm *model.Firm) model.Contact {
	log := zap.L().With(zap.Int("crd", firm.CRD), zap.String("company", firm.Company))

	domain := firm.Domain()
	var candidates []Candidate
	var pool []string // emails available for resolution

	// API candidates come first so they win first-encountered ties.
	if e.hunter != nil && domain != "" {
		people, err := e.hunter.DomainSearch(ctx, domain)
		if err != nil {
			log.Debug("contact: domain search failed", zap.Error(err))
		}
		for _, p := range people {
			candidates = append(candidates, Candidate{
				Name:   p.Name(),
				Title:  p.Position,
				Email:  strings.ToLower(p.Email),
				Source: "hunter.io",
			})
			if p.Email != "" && AllowedEmail(p.Email) {
				pool = append(pool, strings.ToLower(p.Email))
			}
		}
	}

	siteURL := firm.WebsiteURL()
	if siteURL != "" {
		pages, err := e.site.Crawl(ctx, siteURL)
		if err != nil {
			log.Debug("contact: site unreachable", zap.Error(err))
		}
		for _, page := range pages {
			for _, s := range e.strategies {
				candidates = append(candidates, s.Extract(&page)...)
			}
			pool = append(pool, ExtractEmails(page.HTML, page.Text, domain)...)
		}
	}

	best := SelectBest(candidates)

	if best.Name != "" && best.Email == "" {
		best.Email = ResolveEmail(best.Name, pool)
	}
	if best.Empty() && len(pool) > 0 {
		// No named candidate anywhere: fall back to the best page email.
		best.Email = pool[0]
	}

	if !best.Empty() {
		log.Debug("contact: selected",
			zap.String("name", best.Name),
			zap.String("title", best.Title),
		)
	}
	return best
}

// SelectBest picks the single best candidate: highest title priority
// first, ties broken by first-encountered order. Corporate-entity and
// denylisted values are dropped before ranking.
func SelectBest(candidates []Candidate) model.Contact {
	bestRank := UnrankedTitle + 1
	var best *Candidate
	for i := range candidates {
		c := &candidates[i]
		if c.Name != "" && !PlausiblePersonName(c.Name) {
			continue
		}
		if c.Email != "" && !AllowedEmail(c.Email) {
			c.Email = ""
		}
		if c.Name == "" && c.Email == "" {
			continue
		}
		if rank := TitleRank(c.Title); rank < bestRank {
			bestRank = rank
			best = c
		}
	}
	if best == nil {
		return model.Contact{}
	}
	return model.Contact{Name: best.Name, Email: best.Email, Title: best.Title}
}

// ResolveEmail finds an address in the pool whose local-part matches the
// person's name. Pool entries have already passed the denylists.
func ResolveEmail(name string, pool []string) string {
	for _, email := range pool {
		if EmailMatchesName(email, name) {
			return email
		}
	}
	return ""
}

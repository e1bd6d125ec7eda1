package scorer

import (
	"strings"

	"github.com/surgeone-ai/ria-pipeline/internal/model"
)

// Scorer evaluates firms against a rubric. It is pure: website text is
// supplied by the caller, and identical inputs always produce identical
// output.
type Scorer struct {
	rubric *Rubric
}

// New creates a Scorer. A nil rubric selects the default.
func New(rubric *Rubric) *Scorer {
	if rubric == nil {
		rubric = DefaultRubric()
	}
	return &Scorer{rubric: rubric}
}

// Rubric returns the active rubric.
func (s *Scorer) Rubric() *Rubric { return s.rubric }

// Score computes the fit score for a firm. websiteText is the fetched,
// tag-stripped homepage text, or "" when the site was absent or
// unreachable. The result is data sub-score plus website sub-score capped
// at 100, or the N/A sentinel when the firm has no website and the data
// sub-score is too thin to rank (3 points or fewer). Reasons list every
// factor that contributed points, in rubric order.
func (s *Scorer) Score(firm *model.Firm, websiteText string) (model.Score, []model.Reason) {
	dataScore, reasons := s.ScoreData(firm)

	if !firm.HasWebsite() && dataScore <= 3 {
		return model.ScoreNA(), nil
	}

	webScore, webReasons := s.ScoreWebsite(websiteText)
	reasons = append(reasons, webReasons...)

	return model.ScoreOf(dataScore + webScore), reasons
}

// ScoreData evaluates the registry-data signals, worth up to DataMax()
// points.
func (s *Scorer) ScoreData(firm *model.Firm) (int, []model.Reason) {
	r := s.rubric
	score := 0
	var reasons []model.Reason

	add := func(factor string, points int) {
		score += points
		reasons = append(reasons, model.Reason{Factor: factor, Points: points})
	}

	if firm.HasWebsite() {
		add("has_website", r.WebsitePoints)
	}
	if hasValue(firm.Phone) {
		add("has_phone", r.PhonePoints)
	}

	name := strings.ToLower(firm.Company + " " + firm.LegalName)
	if containsAny(name, r.NameAdvisory) {
		add("name_advisory", r.NameAdvisoryPoints)
	}
	if containsAny(name, r.NameTeam) {
		add("name_team", r.NameTeamPoints)
	}

	state := strings.ToUpper(strings.TrimSpace(firm.State))
	for _, top := range r.TopStates {
		if state == top {
			add("top_state", r.TopStatePoints)
			break
		}
	}

	if step, ok := matchStep(r.EmployeeSteps, int64(firm.Employees)); ok {
		add(step.Reason, step.Points)
	}
	if step, ok := matchStep(r.AUMSteps, firm.AUM); ok {
		add(step.Reason, step.Points)
	}
	if step, ok := matchStep(r.ClientSteps, int64(firm.Clients)); ok {
		add(step.Reason, step.Points)
	}

	return score, reasons
}

// ScoreWebsite evaluates fetched website text, worth up to WebsiteMax()
// points. Empty text means the site was absent or unreachable and scores
// zero.
func (s *Scorer) ScoreWebsite(text string) (int, []model.Reason) {
	if text == "" {
		return 0, nil
	}
	r := s.rubric
	text = strings.ToLower(text)

	score := r.SiteReachablePoints
	reasons := []model.Reason{{Factor: "site_reachable", Points: r.SiteReachablePoints}}

	for _, c := range r.WebsiteCategories {
		if containsAny(text, c.Keywords) {
			score += c.Points
			reasons = append(reasons, model.Reason{Factor: c.Name, Points: c.Points})
		}
	}
	return score, reasons
}

func hasValue(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v != "" && v != "nan" && v != "none" && v != "n/a"
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func matchStep(steps []Step, value int64) (Step, bool) {
	for _, s := range steps {
		if value >= s.Min {
			return s, true
		}
	}
	return Step{}, false
}

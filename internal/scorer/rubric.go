// Package scorer computes the 0-100 business fit score for adviser firms.
// The rubric is data, not code: weights, keyword sets, and step tables live
// in a Rubric value that can be dumped to and loaded from YAML for audit.
package scorer

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Step awards Points when a count is at least Min. Steps are evaluated in
// order and the first match wins, so they must be sorted by Min descending.
type Step struct {
	Min    int64  `yaml:"min"`
	Points int    `yaml:"points"`
	Reason string `yaml:"reason"`
}

// Category is one website signal group: any keyword hit awards the full
// point value once.
type Category struct {
	Name     string   `yaml:"name"`
	Points   int      `yaml:"points"`
	Keywords []string `yaml:"keywords"`
}

// Rubric holds every weight and vocabulary the scorer uses. Field order
// here fixes the order of reasons in the output.
type Rubric struct {
	WebsitePoints      int      `yaml:"website_points"`
	PhonePoints        int      `yaml:"phone_points"`
	NameAdvisoryPoints int      `yaml:"name_advisory_points"`
	NameTeamPoints     int      `yaml:"name_team_points"`
	TopStatePoints     int      `yaml:"top_state_points"`
	NameAdvisory       []string `yaml:"name_advisory_keywords"`
	NameTeam           []string `yaml:"name_team_keywords"`
	TopStates          []string `yaml:"top_states"`
	EmployeeSteps      []Step   `yaml:"employee_steps"`
	AUMSteps           []Step   `yaml:"aum_steps"`
	ClientSteps        []Step   `yaml:"client_steps"`

	SiteReachablePoints int        `yaml:"site_reachable_points"`
	WebsiteCategories   []Category `yaml:"website_categories"`
}

// DefaultRubric returns the standard fit rubric: data signals worth up to
// 50 points and website signals worth up to 70, targeting newly registered
// advisers that need compliance, cybersecurity, and data infrastructure.
func DefaultRubric() *Rubric {
	return &Rubric{
		WebsitePoints:      8,
		PhonePoints:        3,
		NameAdvisoryPoints: 6,
		NameTeamPoints:     4,
		TopStatePoints:     4,
		NameAdvisory: []string{
			"wealth", "advisory", "advisors", "financial planning", "capital",
			"investment", "asset management", "portfolio", "retirement",
			"fiduciary", "private client", "family office",
		},
		NameTeam: []string{
			"group", "partners", "associates", "& co", "team", "consulting",
			"services", "solutions", "global", "strategic",
		},
		TopStates: []string{
			"NY", "CA", "TX", "FL", "CT", "MA", "IL", "NJ", "PA", "CO",
		},
		EmployeeSteps: []Step{
			{Min: 10, Points: 10, Reason: "team_10+"},
			{Min: 3, Points: 6, Reason: "team_3+"},
			{Min: 1, Points: 2, Reason: "has_employees"},
		},
		AUMSteps: []Step{
			{Min: 1_000_000_000, Points: 10, Reason: "aum_1B+"},
			{Min: 100_000_000, Points: 8, Reason: "aum_100M+"},
			{Min: 10_000_000, Points: 5, Reason: "aum_10M+"},
			{Min: 1, Points: 2, Reason: "has_aum"},
		},
		ClientSteps: []Step{
			{Min: 100, Points: 5, Reason: "clients_100+"},
			{Min: 10, Points: 3, Reason: "clients_10+"},
			{Min: 1, Points: 1, Reason: "has_clients"},
		},

		SiteReachablePoints: 5,
		WebsiteCategories: []Category{
			{Name: "compliance", Points: 14, Keywords: []string{
				"compliance", "regulatory", "fiduciary", "sec registered",
				"form adv", "disclosure", "audit", "examination",
			}},
			{Name: "advisory_services", Points: 12, Keywords: []string{
				"wealth management", "financial planning", "investment advisory",
				"portfolio management", "asset management", "retirement planning",
				"estate planning", "tax planning", "financial advisor",
			}},
			{Name: "cybersecurity", Points: 11, Keywords: []string{
				"cybersecurity", "data protection", "privacy", "information security",
				"data management", "secure", "encryption",
			}},
			{Name: "team", Points: 10, Keywords: []string{
				"our team", "meet the team", "our advisors", "our professionals",
				"leadership", "managing director", "vice president", "partner",
				"staff", "employees",
			}},
			{Name: "clients", Points: 10, Keywords: []string{
				"assets under management", "aum", "clients", "high net worth",
				"institutional", "individuals", "families", "client service",
			}},
			{Name: "technology", Points: 8, Keywords: []string{
				"technology", "digital", "platform", "portal", "fintech",
				"innovation", "automated", "online", "app",
			}},
		},
	}
}

// DataMax returns the maximum achievable data sub-score.
func (r *Rubric) DataMax() int {
	max := r.WebsitePoints + r.PhonePoints + r.NameAdvisoryPoints +
		r.NameTeamPoints + r.TopStatePoints
	max += maxStep(r.EmployeeSteps)
	max += maxStep(r.AUMSteps)
	max += maxStep(r.ClientSteps)
	return max
}

// WebsiteMax returns the maximum achievable website sub-score.
func (r *Rubric) WebsiteMax() int {
	max := r.SiteReachablePoints
	for _, c := range r.WebsiteCategories {
		max += c.Points
	}
	return max
}

func maxStep(steps []Step) int {
	best := 0
	for _, s := range steps {
		if s.Points > best {
			best = s.Points
		}
	}
	return best
}

// Validate checks internal consistency: positive weights, descending step
// tables, and non-empty vocabularies.
func (r *Rubric) Validate() error {
	if r.WebsitePoints <= 0 || r.PhonePoints <= 0 {
		return eris.New("rubric: fixed factor points must be positive")
	}
	if len(r.NameAdvisory) == 0 || len(r.NameTeam) == 0 || len(r.TopStates) == 0 {
		return eris.New("rubric: keyword sets must be non-empty")
	}
	for _, steps := range [][]Step{r.EmployeeSteps, r.AUMSteps, r.ClientSteps} {
		for i, s := range steps {
			if s.Points <= 0 || s.Min <= 0 || s.Reason == "" {
				return eris.New("rubric: step table entries must have positive min, points, and a reason")
			}
			if i > 0 && s.Min >= steps[i-1].Min {
				return eris.New("rubric: step tables must be sorted by min descending")
			}
		}
	}
	seen := make(map[string]bool, len(r.WebsiteCategories))
	for _, c := range r.WebsiteCategories {
		if c.Name == "" || c.Points <= 0 || len(c.Keywords) == 0 {
			return eris.Errorf("rubric: website category %q incomplete", c.Name)
		}
		if seen[c.Name] {
			return eris.Errorf("rubric: duplicate website category %q", c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// LoadRubric reads a rubric from a YAML file and validates it.
func LoadRubric(path string) (*Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "rubric: read %s", path)
	}
	var r Rubric
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrapf(err, "rubric: parse %s", path)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// DumpYAML serializes the rubric, for auditing or as a starting point for
// a custom rubric file.
func (r *Rubric) DumpYAML() ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, eris.Wrap(err, "rubric: marshal")
	}
	return data, nil
}

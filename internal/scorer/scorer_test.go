package scorer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surgeone-ai/ria-pipeline/internal/model"
)

func reasonFactors(reasons []model.Reason) []string {
	factors := make([]string, len(reasons))
	for i, r := range reasons {
		factors[i] = r.Factor
	}
	return factors
}

func reasonSum(reasons []model.Reason) int {
	sum := 0
	for _, r := range reasons {
		sum += r.Points
	}
	return sum
}

func TestScoreDataFullFirm(t *testing.T) {
	s := New(nil)
	firm := &model.Firm{
		Company:   "Acme Wealth Partners",
		State:     "NY",
		Phone:     "212-555-0100",
		Website:   "https://acmewealth.com",
		Employees: 12,
		Clients:   150,
		AUM:       2_000_000_000,
	}

	score, reasons := s.ScoreData(firm)
	assert.Equal(t, 50, score)
	assert.Equal(t, []string{
		"has_website", "has_phone", "name_advisory", "name_team",
		"top_state", "team_10+", "aum_1B+", "clients_100+",
	}, reasonFactors(reasons))
	assert.Equal(t, score, reasonSum(reasons))
}

func TestScoreDataSteps(t *testing.T) {
	s := New(nil)
	tests := []struct {
		name   string
		firm   model.Firm
		score  int
		reason string
	}{
		{"employees mid", model.Firm{Employees: 5}, 6, "team_3+"},
		{"employees solo", model.Firm{Employees: 1}, 2, "has_employees"},
		{"aum 100M", model.Firm{AUM: 500_000_000}, 8, "aum_100M+"},
		{"aum small", model.Firm{AUM: 1_000_000}, 2, "has_aum"},
		{"clients mid", model.Firm{Clients: 25}, 3, "clients_10+"},
		{"clients few", model.Firm{Clients: 2}, 1, "has_clients"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, reasons := s.ScoreData(&tt.firm)
			assert.Equal(t, tt.score, score)
			require.Len(t, reasons, 1)
			assert.Equal(t, tt.reason, reasons[0].Factor)
		})
	}
}

func TestScoreDataPlaceholderValues(t *testing.T) {
	s := New(nil)
	firm := &model.Firm{Website: "nan", Phone: "None"}
	score, reasons := s.ScoreData(firm)
	assert.Zero(t, score)
	assert.Empty(t, reasons)
}

func TestScoreWebsite(t *testing.T) {
	s := New(nil)

	score, reasons := s.ScoreWebsite("")
	assert.Zero(t, score)
	assert.Empty(t, reasons)

	text := "We provide Wealth Management with a focus on Compliance and cybersecurity. Meet the team."
	score, reasons = s.ScoreWebsite(text)
	// reachable 5 + compliance 14 + advisory 12 + cybersecurity 11 + team 10
	assert.Equal(t, 52, score)
	assert.Equal(t, []string{
		"site_reachable", "compliance", "advisory_services", "cybersecurity", "team",
	}, reasonFactors(reasons))
}

func TestScoreNoWebsiteThinData(t *testing.T) {
	s := New(nil)
	firm := &model.Firm{Company: "Smith LLC", Phone: "555"}
	score, reasons := s.Score(firm, "")
	assert.False(t, score.Valid)
	assert.Equal(t, model.NAString, score.String())
	assert.Empty(t, reasons)
}

// A firm with no website but substantial registry data must still get a
// numeric score.
func TestScoreNoWebsiteStrongData(t *testing.T) {
	s := New(nil)
	firm := &model.Firm{
		Company:   "Summit Capital Management",
		State:     "TX",
		Phone:     "512-555-0100",
		Employees: 40,
		AUM:       50_000_000,
	}
	score, reasons := s.Score(firm, "")
	require.True(t, score.Valid)
	// phone 3 + name_advisory 6 + state 4 + team_10+ 10 + aum_10M+ 5
	assert.Equal(t, 28, score.Value)
	factors := reasonFactors(reasons)
	assert.Contains(t, factors, "name_advisory")
	assert.Contains(t, factors, "top_state")
	assert.Equal(t, score.Value, reasonSum(reasons))
}

func TestScoreCappedAt100(t *testing.T) {
	s := New(nil)
	firm := &model.Firm{
		Company:   "Global Wealth Partners",
		State:     "NY",
		Phone:     "212-555-0100",
		Website:   "https://globalwealth.com",
		Employees: 50,
		Clients:   500,
		AUM:       5_000_000_000,
	}
	text := "compliance wealth management cybersecurity our team clients technology"
	score, _ := s.Score(firm, text)
	require.True(t, score.Valid)
	assert.Equal(t, 100, score.Value)
}

func TestScoreDeterministic(t *testing.T) {
	s := New(nil)
	firm := &model.Firm{Company: "Acme Advisors", Website: "acme.com", State: "CA"}
	text := "fiduciary advisors serving families"

	s1, r1 := s.Score(firm, text)
	s2, r2 := s.Score(firm, text)
	assert.Equal(t, s1, s2)
	assert.Equal(t, r1, r2)
}

func TestRubricMaxima(t *testing.T) {
	r := DefaultRubric()
	assert.Equal(t, 50, r.DataMax())
	assert.Equal(t, 70, r.WebsiteMax())
}

func TestRubricValidate(t *testing.T) {
	require.NoError(t, DefaultRubric().Validate())

	r := DefaultRubric()
	r.EmployeeSteps = []Step{{Min: 1, Points: 2, Reason: "a"}, {Min: 10, Points: 10, Reason: "b"}}
	assert.Error(t, r.Validate())

	r = DefaultRubric()
	r.WebsiteCategories = append(r.WebsiteCategories, r.WebsiteCategories[0])
	assert.Error(t, r.Validate())

	r = DefaultRubric()
	r.NameAdvisory = nil
	assert.Error(t, r.Validate())
}

func TestRubricYAMLRoundTrip(t *testing.T) {
	r := DefaultRubric()
	data, err := r.DumpYAML()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "rubric.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := LoadRubric(path)
	require.NoError(t, err)
	assert.Equal(t, r, loaded)

	_, err = LoadRubric(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

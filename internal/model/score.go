package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// NAString is how an unassessable score renders everywhere.
const NAString = "N/A"

// Score is a fit score in [0,100], or the "N/A" sentinel when a firm
// carries too little signal to rank.
type Score struct {
	Value int
	Valid bool
}

// ScoreOf returns a valid score clamped to [0,100].
func ScoreOf(v int) Score {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return Score{Value: v, Valid: true}
}

// ScoreNA returns the insufficient-data sentinel.
func ScoreNA() Score {
	return Score{}
}

func (s Score) String() string {
	if !s.Valid {
		return NAString
	}
	return strconv.Itoa(s.Value)
}

// MarshalJSON renders a number, or the string "N/A".
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return json.Marshal(NAString)
	}
	return json.Marshal(s.Value)
}

// UnmarshalJSON accepts a number or the string "N/A".
func (s *Score) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err == nil {
		*s = ScoreOf(v)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return eris.Wrap(err, "score: unmarshal")
	}
	return s.parse(str)
}

// ParseScore parses a stored score string ("73" or "N/A").
func ParseScore(s string) (Score, error) {
	var sc Score
	err := sc.parse(s)
	return sc, err
}

func (s *Score) parse(str string) error {
	str = strings.TrimSpace(str)
	if str == "" || strings.EqualFold(str, NAString) {
		*s = ScoreNA()
		return nil
	}
	v, err := strconv.Atoi(str)
	if err != nil {
		return eris.Wrapf(err, "score: parse %q", str)
	}
	*s = ScoreOf(v)
	return nil
}

// Reason records one rubric factor's contribution to a fit score.
type Reason struct {
	Factor string `json:"factor"`
	Points int    `json:"points"`
}

func (r Reason) String() string {
	return fmt.Sprintf("%s (+%d)", r.Factor, r.Points)
}

// JoinReasons renders reasons as a single audit string,
// e.g. "has_website (+8), top_state (+4)".
func JoinReasons(reasons []Reason) string {
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

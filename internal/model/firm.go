// Package model defines the record types that flow through the pipeline.
package model

import (
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Firm is one row of the SEC adviser registry snapshot.
// CRD is the unique, immutable key; every enrichment stage keys on it.
type Firm struct {
	CRD        int       `json:"crd"`
	Company    string    `json:"company"`
	LegalName  string    `json:"legal_name,omitempty"`
	City       string    `json:"city,omitempty"`
	State      string    `json:"state,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Website    string    `json:"website,omitempty"`
	Registered time.Time `json:"registered"`
	Status     string    `json:"status,omitempty"`
	Employees  int       `json:"employees,omitempty"`
	Clients    int       `json:"clients,omitempty"`
	AUM        int64     `json:"aum,omitempty"`
}

// HasWebsite reports whether the firm has a usable website value.
// Upstream snapshots use placeholder strings for missing cells.
func (f *Firm) HasWebsite() bool {
	w := strings.ToLower(strings.TrimSpace(f.Website))
	return w != "" && w != "nan" && w != "none" && w != "n/a"
}

// WebsiteURL returns the firm's website as a fetchable URL, defaulting
// to https when no scheme is present. Empty when there is no website.
func (f *Firm) WebsiteURL() string {
	if !f.HasWebsite() {
		return ""
	}
	u := strings.TrimSpace(f.Website)
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	return u
}

// Domain returns the firm website's registrable domain (eTLD+1),
// e.g. "acmewealth.com" for "https://www.acmewealth.com/about".
// Empty when the website is absent or unparseable.
func (f *Firm) Domain() string {
	raw := f.WebsiteURL()
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || !strings.Contains(host, ".") {
		return ""
	}
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return strings.TrimPrefix(host, "www.")
}

// ScoredFirm is a Firm annotated with its fit score.
type ScoredFirm struct {
	Firm
	FitScore   Score    `json:"fit_score"`
	FitReasons []Reason `json:"fit_reasons,omitempty"`
}

// Contact is the single best contact discovered for a firm.
// Any field may be empty.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Title string `json:"title,omitempty"`
}

// Empty reports whether no contact information was found at all.
func (c Contact) Empty() bool {
	return c.Name == "" && c.Email == "" && c.Title == ""
}

// EnrichedFirm is a ScoredFirm annotated with contact details.
type EnrichedFirm struct {
	ScoredFirm
	Contact Contact `json:"contact"`
}

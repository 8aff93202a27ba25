// Package player holds player records and the plan-based masking applied to
// profile reads. What a viewer sees depends on their entitlements, not on the
// player's plan; an approved contact pair bypasses masking for that pair.
package player

import (
	"strings"
	"time"

	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
	pstrings "rinknet/pkg/platform/strings"
)

// Status tracks registration verification.
type Status string

const (
	StatusUnverified Status = "unverified"
	StatusVerified   Status = "verified"
)

// Stats is the basic stat line, visible to everyone.
type Stats struct {
	GamesPlayed int `json:"gamesPlayed"`
	Goals       int `json:"goals"`
	Assists     int `json:"assists"`
}

// AdvancedStats is the extended stat line, gated behind higher_stats.
type AdvancedStats struct {
	PlusMinus     int     `json:"plusMinus"`
	PointsPerGame float64 `json:"pointsPerGame"`
}

// Player is the stored record. All fields are present here; masking happens
// at view time.
type Player struct {
	ID          domain.PlayerID
	ParentID    domain.ParentID
	FirstName   string
	LastName    string
	BirthYear   int
	Position    string
	Level       string
	City        string
	Region      string
	SocialLinks []string
	Stats       Stats
	Advanced    AdvancedStats
	Status      Status
	CreatedAt   time.Time
}

// MaskedName renders "First L." for viewers without full_last_name.
func (p *Player) MaskedName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + strings.ToUpper(p.LastName[:1]) + "."
}

// FullName renders the unmasked name.
func (p *Player) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// CreateRequest is the POST /players payload.
type CreateRequest struct {
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	BirthYear   int      `json:"birthYear"`
	Position    string   `json:"position"`
	Level       string   `json:"level"`
	City        string   `json:"city"`
	Region      string   `json:"region"`
	SocialLinks []string `json:"socialLinks"`
}

// Normalize trims free-text fields before validation.
func (r *CreateRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Position = strings.TrimSpace(r.Position)
	r.Level = strings.TrimSpace(r.Level)
	r.City = strings.TrimSpace(r.City)
	r.Region = strings.TrimSpace(r.Region)
	r.SocialLinks = pstrings.DedupeAndTrim(r.SocialLinks)
}

// Validate checks size, required fields, then syntax.
func (r *CreateRequest) Validate() error {
	if len(r.SocialLinks) > 10 {
		return dErrors.New(dErrors.CodeValidation, "too many social links")
	}
	for field, v := range map[string]string{
		"firstName": r.FirstName, "lastName": r.LastName,
		"position": r.Position, "level": r.Level, "city": r.City, "region": r.Region,
	} {
		if len(v) > 200 {
			return dErrors.New(dErrors.CodeValidation, field+" exceeds 200 characters")
		}
	}
	if r.FirstName == "" || r.LastName == "" {
		return dErrors.New(dErrors.CodeValidation, "firstName and lastName are required")
	}
	if r.BirthYear < 2000 || r.BirthYear > 2030 {
		return dErrors.New(dErrors.CodeValidation, "birthYear is out of range")
	}
	return nil
}

// ParentContact is revealed only to an approved contact pair or an admin.
type ParentContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// View is the masked profile a viewer receives.
type View struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	BirthYear   int            `json:"birthYear"`
	Position    string         `json:"position"`
	Status      string         `json:"status"`
	Stats       Stats          `json:"stats"`
	Level       string         `json:"level,omitempty"`
	City        string         `json:"city,omitempty"`
	Region      string         `json:"region,omitempty"`
	SocialLinks []string       `json:"socialLinks,omitempty"`
	Advanced    *AdvancedStats `json:"advancedStats,omitempty"`
	Contact     *ParentContact `json:"parentContact,omitempty"`
}

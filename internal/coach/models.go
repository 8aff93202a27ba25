// Package coach holds coach profiles and the head-coach uniqueness rule: a
// roster slot (league, team, level, birth year) carries at most one head
// coach, compared case-insensitively.
package coach

import (
	"strconv"
	"strings"
	"time"

	"rinknet/pkg/domain"
	dErrors "rinknet/pkg/domain-errors"
)

// CoachRole is the position a coach claims on a roster slot.
type CoachRole string

const (
	RoleHeadCoach      CoachRole = "HEAD_COACH"
	RoleAssistantCoach CoachRole = "ASSISTANT_COACH"
	RoleSkillsCoach    CoachRole = "SKILLS_COACH"
)

// ParseCoachRole validates a coach role string.
func ParseCoachRole(s string) (CoachRole, bool) {
	switch CoachRole(s) {
	case RoleHeadCoach, RoleAssistantCoach, RoleSkillsCoach:
		return CoachRole(s), true
	}
	return "", false
}

// Profile is a coach's public listing.
type Profile struct {
	ID        domain.CoachID
	AccountID domain.AccountID
	Name      string
	League    string
	Team      string
	Level     string
	BirthYear int
	CoachRole CoachRole
	CreatedAt time.Time
}

// SlotKey normalizes the roster slot for uniqueness comparison.
func (p *Profile) SlotKey() string {
	return strings.ToLower(p.League) + "|" + strings.ToLower(p.Team) + "|" +
		strings.ToLower(p.Level) + "|" + strconv.Itoa(p.BirthYear)
}

// CreateRequest is the POST /coaches payload.
type CreateRequest struct {
	Name      string `json:"name"`
	League    string `json:"league"`
	Team      string `json:"team"`
	Level     string `json:"level"`
	BirthYear int    `json:"birthYear"`
	CoachRole string `json:"coachRole"`
}

// Normalize trims free-text fields before validation.
func (r *CreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.League = strings.TrimSpace(r.League)
	r.Team = strings.TrimSpace(r.Team)
	r.Level = strings.TrimSpace(r.Level)
	r.CoachRole = strings.TrimSpace(r.CoachRole)
}

// Validate checks size, required fields, then syntax.
func (r *CreateRequest) Validate() error {
	for field, v := range map[string]string{
		"name": r.Name, "league": r.League, "team": r.Team, "level": r.Level,
	} {
		if len(v) > 200 {
			return dErrors.New(dErrors.CodeValidation, field+" exceeds 200 characters")
		}
		if v == "" {
			return dErrors.New(dErrors.CodeValidation, field+" is required")
		}
	}
	if r.BirthYear < 1990 || r.BirthYear > 2030 {
		return dErrors.New(dErrors.CodeValidation, "birthYear is out of range")
	}
	if _, ok := ParseCoachRole(r.CoachRole); !ok {
		return dErrors.New(dErrors.CodeValidation, "unknown coachRole")
	}
	return nil
}

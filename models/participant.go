package models

import (
	"strings"
	"time"
)

// Participant represents a registered campaign participant and, once claimed, their prize
type Participant struct {
	Identity     string     `db:"identity"`
	DisplayName  string     `db:"display_name"`
	NationalID   string     `db:"national_id"`
	Phone        string     `db:"phone"`
	Prize        *string    `db:"prize"`       // Write-once
	PrizeIndex   *int       `db:"prize_index"` // Set together with Prize
	RegisteredAt time.Time  `db:"registered_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	ClaimedAt    *time.Time `db:"claimed_at"`
}

// HasClaimed reports whether a prize has been stored for the participant
func (p *Participant) HasClaimed() bool {
	return p.Prize != nil && p.PrizeIndex != nil
}

// Claim returns the stored claim, or nil when no prize has been assigned
func (p *Participant) Claim() *Claim {
	if !p.HasClaimed() {
		return nil
	}
	claim := &Claim{
		Identity:   p.Identity,
		Prize:      *p.Prize,
		PrizeIndex: *p.PrizeIndex,
	}
	if p.ClaimedAt != nil {
		claim.ClaimedAt = *p.ClaimedAt
	}
	return claim
}

// Profile holds the registration fields of a participant.
// It deliberately has no prize fields so a profile write can never touch a claim.
type Profile struct {
	Identity    string
	DisplayName string
	NationalID  string
	Phone       string
}

// NormalizeIdentity trims and lower-cases an identity before it is used as a key
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

package models

import "time"

// Candidate is a prize slot drawn from the prize table that has not been stored yet
type Candidate struct {
	Prize string
	Index int
}

// Claim is the durable prize assignment of a participant
type Claim struct {
	Identity   string    `db:"identity"`
	Prize      string    `db:"prize"`
	PrizeIndex int       `db:"prize_index"`
	ClaimedAt  time.Time `db:"claimed_at"`
}

// ClaimOutcome is what the store reports back from a claim attempt.
// Claim always holds the stored values, which differ from the candidate when Granted is false.
type ClaimOutcome struct {
	Granted bool
	Claim   Claim
}

// ClaimResult is returned to callers of the claim protocol
type ClaimResult struct {
	Granted    bool
	Prize      string
	PrizeIndex int
	ClaimedAt  time.Time
}

// NewClaimResult builds a ClaimResult from a store outcome
func NewClaimResult(outcome *ClaimOutcome) *ClaimResult {
	return &ClaimResult{
		Granted:    outcome.Granted,
		Prize:      outcome.Claim.Prize,
		PrizeIndex: outcome.Claim.PrizeIndex,
		ClaimedAt:  outcome.Claim.ClaimedAt,
	}
}

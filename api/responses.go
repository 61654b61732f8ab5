package api

import (
	"time"

	"prizewheel/models"
	"prizewheel/service"
)

// ParticipantResponse is the JSON form of a participant
type ParticipantResponse struct {
	Identity     string         `json:"identity"`
	DisplayName  string         `json:"display_name"`
	NationalID   string         `json:"national_id,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	RegisteredAt time.Time      `json:"registered_at"`
	Prize        *ClaimResponse `json:"prize"`
}

// ClaimResponse is the JSON form of a stored prize
type ClaimResponse struct {
	Prize      string    `json:"prize"`
	PrizeIndex int       `json:"prize_index"`
	ClaimedAt  time.Time `json:"claimed_at"`
}

// ClaimResultResponse is returned by draws and spins. Granted is false when the
// prize was stored by an earlier attempt.
type ClaimResultResponse struct {
	Granted    bool      `json:"granted"`
	Prize      string    `json:"prize"`
	PrizeIndex int       `json:"prize_index"`
	ClaimedAt  time.Time `json:"claimed_at"`
}

// SessionResponse is the JSON form of a session snapshot
type SessionResponse struct {
	ID           string               `json:"id"`
	Identity     string               `json:"identity"`
	State        string               `json:"state"`
	CanSpin      bool                 `json:"can_spin"`
	Result       *ClaimResultResponse `json:"result,omitempty"`
	LastError    string               `json:"last_error,omitempty"`
	LastActivity time.Time            `json:"last_activity"`
}

// SpinEventResponse is one audit record
type SpinEventResponse struct {
	ID         int64     `json:"id"`
	Prize      string    `json:"prize"`
	PrizeIndex int       `json:"prize_index"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PrizeSlotResponse is one slot of the configured wheel
type PrizeSlotResponse struct {
	Index int    `json:"index"`
	Prize string `json:"prize"`
}

// OpenSessionRequest is the request body of POST /api/sessions
type OpenSessionRequest struct {
	Identity string `json:"identity"`
}

func toParticipantResponse(p *models.Participant) ParticipantResponse {
	return ParticipantResponse{
		Identity:     p.Identity,
		DisplayName:  p.DisplayName,
		NationalID:   p.NationalID,
		Phone:        p.Phone,
		RegisteredAt: p.RegisteredAt,
		Prize:        toClaimResponse(p.Claim()),
	}
}

func toClaimResponse(c *models.Claim) *ClaimResponse {
	if c == nil {
		return nil
	}
	return &ClaimResponse{
		Prize:      c.Prize,
		PrizeIndex: c.PrizeIndex,
		ClaimedAt:  c.ClaimedAt,
	}
}

func toClaimResultResponse(r *models.ClaimResult) *ClaimResultResponse {
	if r == nil {
		return nil
	}
	return &ClaimResultResponse{
		Granted:    r.Granted,
		Prize:      r.Prize,
		PrizeIndex: r.PrizeIndex,
		ClaimedAt:  r.ClaimedAt,
	}
}

func toSessionResponse(s service.SessionSnapshot) SessionResponse {
	return SessionResponse{
		ID:           s.ID.String(),
		Identity:     s.Identity,
		State:        string(s.State),
		CanSpin:      s.CanSpin,
		Result:       toClaimResultResponse(s.Result),
		LastError:    s.LastError,
		LastActivity: s.LastActivity,
	}
}

func toSpinEventResponses(spinEvents []*models.SpinEvent) []SpinEventResponse {
	out := make([]SpinEventResponse, 0, len(spinEvents))
	for _, e := range spinEvents {
		out = append(out, SpinEventResponse{
			ID:         e.ID,
			Prize:      e.Prize,
			PrizeIndex: e.PrizeIndex,
			OccurredAt: e.OccurredAt,
		})
	}
	return out
}

package testutil

import (
	"fmt"
	"time"

	"prizewheel/models"
)

// CreateTestProfile creates a profile with valid default values
func CreateTestProfile(identity string) *models.Profile {
	return &models.Profile{
		Identity:    models.NormalizeIdentity(identity),
		DisplayName: "Ana Lopez",
		NationalID:  "0912345678",
		Phone:       "0998765432",
	}
}

// CreateTestProfiles creates n profiles with distinct identities
func CreateTestProfiles(n int) []*models.Profile {
	profiles := make([]*models.Profile, 0, n)
	for i := 0; i < n; i++ {
		profiles = append(profiles, CreateTestProfile(fmt.Sprintf("participant%d@example.com", i)))
	}
	return profiles
}

// CreateTestCandidate creates a candidate pointing at index of table
func CreateTestCandidate(table models.PrizeTable, index int) models.Candidate {
	return models.Candidate{Prize: table[index], Index: index}
}

// CreateTestSpinEvent creates a spin event for identity
func CreateTestSpinEvent(identity, prize string, index int) *models.SpinEvent {
	return &models.SpinEvent{
		Identity:   identity,
		Prize:      prize,
		PrizeIndex: index,
		OccurredAt: time.Now().UTC(),
	}
}

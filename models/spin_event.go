package models

import "time"

// SpinEvent is the audit record appended for every granted claim
type SpinEvent struct {
	ID         int64     `db:"id"`
	Identity   string    `db:"identity"`
	Prize      string    `db:"prize"`
	PrizeIndex int       `db:"prize_index"`
	OccurredAt time.Time `db:"occurred_at"`
}

// PrizeTally counts granted claims for one prize label
type PrizeTally struct {
	Prize string `db:"prize"`
	Count int64  `db:"count"`
}

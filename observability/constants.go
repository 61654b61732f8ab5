package observability

// Metric names
const (
	ClaimsTotal                = "prizewheel.claims.total"
	ClaimDuration              = "prizewheel.claims.duration"
	AuditFailuresTotal         = "prizewheel.audit.failures.total"
	RegistrationsTotal         = "prizewheel.registrations.total"
	SessionsOpenedTotal        = "prizewheel.sessions.opened.total"
	NATSMessagesPublishedTotal = "prizewheel.nats.messages.published.total"
	AnnouncementsTotal         = "prizewheel.announcements.total"
)

// Attribute keys
const (
	LabelOutcome   = "outcome"
	LabelEventType = "event_type"
	LabelStatus    = "status"
	LabelSink      = "sink"
)

// Announcement statuses
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

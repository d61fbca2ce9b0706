package models

// Gender values
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Profile verification statuses
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

// Match statuses
const (
	MatchStatusSuggested  = "suggested"
	MatchStatusInterested = "interested"
	MatchStatusMutual     = "mutual"
	MatchStatusPassed     = "passed"
)

// Interest statuses
const (
	InterestStatusPending  = "pending"
	InterestStatusAccepted = "accepted"
	InterestStatusDeclined = "declined"
)

// Profile age bounds
const (
	MinProfileAge = 18
	MaxProfileAge = 100
)

package services

import (
	"context"

	"sangam_server/models"
)

// Store contracts consumed by the matching core. The core never talks to
// DynamoDB directly; the Dynamo-backed implementations below and the
// in-memory fakes used in tests both satisfy these.

// ProfileStore supplies read access to user profiles.
type ProfileStore interface {
	// GetProfile returns a NotFoundError when no profile exists for userID.
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)

	// ListActiveProfiles returns one page of active, non-rejected profiles
	// excluding excludeUserID, plus an opaque token for the next page
	// ("" when exhausted). limit bounds the page size.
	ListActiveProfiles(ctx context.Context, excludeUserID string, filters models.SearchFilters, limit int32, startToken string) ([]models.Profile, string, error)
}

// MatchStore persists directional match rows with unique-pair semantics.
type MatchStore interface {
	// GetMatch returns (nil, nil) when the ordered pair has no row.
	GetMatch(ctx context.Context, userID, matchedUserID string) (*models.Match, error)

	// ListMatches returns all rows owned by userID.
	ListMatches(ctx context.Context, userID string) ([]models.Match, error)

	// PutMatchIfAbsent inserts a row only if the ordered pair has none,
	// returning a DuplicatePairError when it does.
	PutMatchIfAbsent(ctx context.Context, match *models.Match) error

	// RefreshSuggestion overwrites score, breakdown, insights and resets the
	// row to suggested, keeping the row id. The write is conditional on the
	// current status being suggested or passed so user-driven states are
	// never clobbered; a lost condition returns ErrConditionFailed.
	RefreshSuggestion(ctx context.Context, match *models.Match) error

	// UpdateStatusIf transitions the row's status only when the current
	// status is one of want, returning ErrConditionFailed otherwise.
	// passedAt is recorded when to is passed and cleared otherwise.
	UpdateStatusIf(ctx context.Context, userID, matchedUserID string, want []string, to string, passedAt string) error

	// PromotePairMutual sets both directional rows of (userA, userB) to
	// mutual in a single all-or-nothing transaction, conditional on each
	// row currently being interested or already mutual, so promotion is
	// idempotent. Returns ErrConditionFailed when either side fails the
	// condition.
	PromotePairMutual(ctx context.Context, userA, userB string) error
}

// InterestStore persists directional interest requests with unique-pair
// semantics.
type InterestStore interface {
	// GetInterest returns (nil, nil) when the ordered pair has no row.
	GetInterest(ctx context.Context, fromUserID, toUserID string) (*models.Interest, error)

	// GetInterestByID returns a NotFoundError for an unknown id.
	GetInterestByID(ctx context.Context, interestID string) (*models.Interest, error)

	ListSent(ctx context.Context, fromUserID string) ([]models.Interest, error)
	ListReceived(ctx context.Context, toUserID string) ([]models.Interest, error)

	// PutInterestIfAbsent inserts a row only if the ordered pair has none,
	// returning a DuplicatePairError when it does.
	PutInterestIfAbsent(ctx context.Context, interest *models.Interest) error

	// UpdateStatusIf transitions status only from want, returning
	// ErrConditionFailed otherwise.
	UpdateStatusIf(ctx context.Context, fromUserID, toUserID, want, to string) error

	// ReopenDeclined resets a declined interest back to pending with a new
	// message, keeping the row id. Returns ErrConditionFailed when the row
	// is not declined.
	ReopenDeclined(ctx context.Context, fromUserID, toUserID, message string) (*models.Interest, error)
}

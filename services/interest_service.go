package services

import (
	"context"
	"errors"
	"log"

	"sangam_server/models"

	"github.com/google/uuid"
)

// InterestService coordinates directional interest requests and promotes a
// pair to mutual when reciprocity is established.
type InterestService struct {
	Interests InterestStore
	Profiles  ProfileStore
	Match     *MatchService
}

// NewInterestService wires an InterestService.
func NewInterestService(interests InterestStore, profiles ProfileStore, match *MatchService) *InterestService {
	return &InterestService{Interests: interests, Profiles: profiles, Match: match}
}

// ExpressInterest records a pending interest from one user to another and
// marks the sender's match row interested. A pending or accepted interest
// for the same ordered pair is a conflict; a declined one is reopened in
// place so the pair stays unique. When the recipient already expressed
// interest back, reciprocity is established on the spot and the pair goes
// mutual.
func (is *InterestService) ExpressInterest(ctx context.Context, fromUserID, toUserID, message string) (*models.Interest, error) {
	if fromUserID == toUserID {
		return nil, &models.ValidationError{Field: "toUserId", Reason: "cannot express interest in yourself"}
	}

	// Both parties must resolve to real profiles before any write.
	if _, err := is.Profiles.GetProfile(ctx, fromUserID); err != nil {
		return nil, err
	}
	if _, err := is.Profiles.GetProfile(ctx, toUserID); err != nil {
		return nil, err
	}

	now := nowRFC3339()
	interest := &models.Interest{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		InterestID: uuid.NewString(),
		Status:     models.InterestStatusPending,
		Message:    message,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := is.Interests.PutInterestIfAbsent(ctx, interest)
	if err != nil {
		if !errors.Is(err, models.ErrConflict) {
			return nil, err
		}
		existing, getErr := is.Interests.GetInterest(ctx, fromUserID, toUserID)
		if getErr != nil {
			return nil, getErr
		}
		if existing == nil || existing.Status != models.InterestStatusDeclined {
			return nil, err
		}
		reopened, reopenErr := is.Interests.ReopenDeclined(ctx, fromUserID, toUserID, message)
		if reopenErr != nil {
			if errors.Is(reopenErr, ErrConditionFailed) {
				// Raced with another express; the original conflict stands.
				return nil, err
			}
			return nil, reopenErr
		}
		interest = reopened
	}

	if _, err := is.Match.MarkInterested(ctx, fromUserID, toUserID); err != nil {
		return nil, err
	}

	// Crossed expressions constitute reciprocity: when the recipient has a
	// live interest in the sender, both directional rows go mutual and both
	// interests resolve to accepted.
	reverse, err := is.Interests.GetInterest(ctx, toUserID, fromUserID)
	if err != nil {
		return nil, err
	}
	if reverse == nil || reverse.Status == models.InterestStatusDeclined {
		log.Printf("Interest expressed: %s -> %s", fromUserID, toUserID)
		return interest, nil
	}

	if _, err := is.Match.MarkInterested(ctx, toUserID, fromUserID); err != nil {
		if errors.Is(err, models.ErrConflict) {
			// The recipient passed the sender after expressing; the pass
			// stands and this interest stays pending.
			log.Printf("Interest expressed: %s -> %s", fromUserID, toUserID)
			return interest, nil
		}
		return nil, err
	}
	if err := is.Match.PromoteMutual(ctx, fromUserID, toUserID); err != nil {
		return nil, err
	}
	if err := is.resolveAccepted(ctx, fromUserID, toUserID); err != nil {
		return nil, err
	}
	if err := is.resolveAccepted(ctx, toUserID, fromUserID); err != nil {
		return nil, err
	}
	interest.Status = models.InterestStatusAccepted
	interest.UpdatedAt = nowRFC3339()

	log.Printf("Mutual match: %s <-> %s", fromUserID, toUserID)
	return interest, nil
}

// resolveAccepted flips a pending interest to accepted. An interest that is
// no longer pending was already resolved, which is fine here.
func (is *InterestService) resolveAccepted(ctx context.Context, fromUserID, toUserID string) error {
	err := is.Interests.UpdateStatusIf(ctx, fromUserID, toUserID,
		models.InterestStatusPending, models.InterestStatusAccepted)
	if err != nil && !errors.Is(err, ErrConditionFailed) {
		return err
	}
	return nil
}

// RespondToInterest resolves a pending interest. Acceptance constitutes
// reciprocity: the recipient's own match row is marked interested and both
// directional rows are promoted to mutual atomically.
func (is *InterestService) RespondToInterest(ctx context.Context, interestID, decision string) (*models.Interest, error) {
	if decision != models.InterestStatusAccepted && decision != models.InterestStatusDeclined {
		return nil, &models.ValidationError{Field: "decision", Reason: "must be accepted or declined"}
	}

	interest, err := is.Interests.GetInterestByID(ctx, interestID)
	if err != nil {
		return nil, err
	}

	err = is.Interests.UpdateStatusIf(ctx, interest.FromUserID, interest.ToUserID,
		models.InterestStatusPending, decision)
	if err != nil {
		if errors.Is(err, ErrConditionFailed) {
			// Re-read so the error reports the status that won, not the
			// one this call saw before losing the race.
			current, getErr := is.Interests.GetInterestByID(ctx, interestID)
			if getErr != nil {
				return nil, getErr
			}
			return nil, &models.NotPendingError{InterestID: interestID, Status: current.Status}
		}
		return nil, err
	}
	interest.Status = decision
	interest.UpdatedAt = nowRFC3339()

	if decision == models.InterestStatusAccepted {
		// Acceptance is the recipient's reciprocal interest.
		if _, err := is.Match.MarkInterested(ctx, interest.ToUserID, interest.FromUserID); err != nil {
			return nil, err
		}
		if err := is.Match.PromoteMutual(ctx, interest.FromUserID, interest.ToUserID); err != nil {
			return nil, err
		}
		log.Printf("Mutual match: %s <-> %s", interest.FromUserID, interest.ToUserID)
	}

	return interest, nil
}

// ListSent returns the interests a user has sent.
func (is *InterestService) ListSent(ctx context.Context, userID string) ([]models.Interest, error) {
	return is.Interests.ListSent(ctx, userID)
}

// ListReceived returns the interests a user has received.
func (is *InterestService) ListReceived(ctx context.Context, userID string) ([]models.Interest, error) {
	return is.Interests.ListReceived(ctx, userID)
}

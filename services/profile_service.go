package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"sangam_server/models"
	"sangam_server/utils"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// profileCompletenessFields are the sections a profile is graded on, each
// worth an equal share of the 0-100 completeness score.
var profileCompletenessFields = []string{
	"age", "gender", "religion", "education", "occupation",
	"location", "bio", "photos", "interests", "values",
}

// ProfileService manages profile records: creation, updates, soft
// deactivation. Reads for matching go through DynamoProfileStore.
type ProfileService struct {
	Dynamo *DynamoService
	Store  *DynamoProfileStore
}

// NewProfileService wires a ProfileService and its read store on one
// DynamoDB connection.
func NewProfileService(dynamo *DynamoService) *ProfileService {
	return &ProfileService{Dynamo: dynamo, Store: &DynamoProfileStore{Dynamo: dynamo}}
}

// CreateProfile validates and stores a new profile. Each user owns exactly
// one profile; a second create for the same user is a conflict.
func (ps *ProfileService) CreateProfile(ctx context.Context, profile models.Profile) (*models.Profile, error) {
	if err := ValidateProfile(&profile); err != nil {
		return nil, err
	}

	now := nowRFC3339()
	profile.ProfileCompleteness = CalculateProfileCompleteness(&profile)
	profile.IsActive = true
	if profile.VerificationStatus == "" {
		profile.VerificationStatus = models.VerificationPending
	}
	profile.CreatedAt = now
	profile.UpdatedAt = now

	err := ps.Dynamo.PutItemWithCondition(ctx, models.ProfilesTable, profile,
		"attribute_not_exists(userId)", nil)
	if errors.Is(err, ErrConditionFailed) {
		return nil, fmt.Errorf("profile for user %s already exists: %w", profile.UserID, models.ErrConflict)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("Profile created for user %s (completeness %d%%)", profile.UserID, profile.ProfileCompleteness)
	return &profile, nil
}

// UpdateProfile overwrites the owner's profile, preserving creation
// metadata and recomputing completeness.
func (ps *ProfileService) UpdateProfile(ctx context.Context, profile models.Profile) (*models.Profile, error) {
	if err := ValidateProfile(&profile); err != nil {
		return nil, err
	}

	current, err := ps.Store.GetProfile(ctx, profile.UserID)
	if err != nil {
		return nil, err
	}

	profile.CreatedAt = current.CreatedAt
	profile.VerificationStatus = current.VerificationStatus
	profile.IsActive = current.IsActive
	profile.ProfileCompleteness = CalculateProfileCompleteness(&profile)
	profile.UpdatedAt = nowRFC3339()

	if err := ps.Dynamo.PutItem(ctx, models.ProfilesTable, profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// DeactivateProfile soft-removes a profile from candidate generation
// without deleting its data.
func (ps *ProfileService) DeactivateProfile(ctx context.Context, userID string) error {
	_, err := ps.Dynamo.UpdateItemWithCondition(ctx, models.ProfilesTable,
		"SET isActive = :inactive, updatedAt = :now",
		"attribute_exists(userId)",
		utils.StringKey("userId", userID),
		map[string]types.AttributeValue{
			":inactive": &types.AttributeValueMemberBOOL{Value: false},
			":now":      &types.AttributeValueMemberS{Value: nowRFC3339()},
		}, nil)
	if errors.Is(err, ErrConditionFailed) {
		return &models.NotFoundError{Resource: "profile", ID: userID}
	}
	return err
}

// SetVerificationStatus records the outcome of profile verification.
func (ps *ProfileService) SetVerificationStatus(ctx context.Context, userID, status string) error {
	switch status {
	case models.VerificationPending, models.VerificationVerified, models.VerificationRejected:
	default:
		return &models.ValidationError{Field: "verificationStatus", Reason: "unknown status " + status}
	}

	_, err := ps.Dynamo.UpdateItemWithCondition(ctx, models.ProfilesTable,
		"SET verificationStatus = :status, updatedAt = :now",
		"attribute_exists(userId)",
		utils.StringKey("userId", userID),
		map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: status},
			":now":    &types.AttributeValueMemberS{Value: nowRFC3339()},
		}, nil)
	if errors.Is(err, ErrConditionFailed) {
		return &models.NotFoundError{Resource: "profile", ID: userID}
	}
	return err
}

// ValidateProfile checks the persisted field contracts.
func ValidateProfile(profile *models.Profile) error {
	if strings.TrimSpace(profile.UserID) == "" {
		return &models.ValidationError{Field: "userId", Reason: "required"}
	}
	if profile.Age < models.MinProfileAge || profile.Age > models.MaxProfileAge {
		return &models.ValidationError{Field: "age", Reason: fmt.Sprintf("must be between %d and %d", models.MinProfileAge, models.MaxProfileAge)}
	}
	switch profile.Gender {
	case models.GenderMale, models.GenderFemale, models.GenderOther:
	default:
		return &models.ValidationError{Field: "gender", Reason: "must be male, female or other"}
	}
	if profile.HeightCm < 0 {
		return &models.ValidationError{Field: "heightCm", Reason: "must be positive"}
	}
	if profile.WeightKg < 0 {
		return &models.ValidationError{Field: "weightKg", Reason: "must be positive"}
	}
	if profile.Income != nil && profile.Income.IsNegative() {
		return &models.ValidationError{Field: "income", Reason: "must not be negative"}
	}
	return nil
}

// CalculateProfileCompleteness grades a profile 0-100 across ten equally
// weighted sections.
func CalculateProfileCompleteness(profile *models.Profile) int {
	completed := 0
	for _, field := range profileCompletenessFields {
		switch field {
		case "age":
			if profile.Age > 0 {
				completed++
			}
		case "gender":
			if profile.Gender != "" {
				completed++
			}
		case "religion":
			if strings.TrimSpace(profile.Religion) != "" {
				completed++
			}
		case "education":
			if strings.TrimSpace(profile.Education) != "" {
				completed++
			}
		case "occupation":
			if strings.TrimSpace(profile.Occupation) != "" {
				completed++
			}
		case "location":
			if strings.TrimSpace(profile.Location) != "" {
				completed++
			}
		case "bio":
			if strings.TrimSpace(profile.Bio) != "" {
				completed++
			}
		case "photos":
			if len(profile.Photos) > 0 {
				completed++
			}
		case "interests":
			if len(profile.Interests) > 0 {
				completed++
			}
		case "values":
			if len(profile.Values) > 0 {
				completed++
			}
		}
	}
	return completed * 100 / len(profileCompletenessFields)
}

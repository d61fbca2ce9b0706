package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"sangam_server/models"
	"sangam_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoProfileStore is the DynamoDB-backed ProfileStore.
type DynamoProfileStore struct {
	Dynamo *DynamoService
}

func (ps *DynamoProfileStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	item, err := ps.Dynamo.GetItem(ctx, models.ProfilesTable, utils.StringKey("userId", userID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	if item == nil {
		return nil, &models.NotFoundError{Resource: "profile", ID: userID}
	}

	var profile models.Profile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

// ListActiveProfiles scans one page of candidate profiles. Activity,
// verification and the exclude/age/gender filters run server-side in the
// filter expression; the case-insensitive religion/location substring
// filters run client-side on the raw items because DynamoDB contains() is
// case-sensitive.
func (ps *DynamoProfileStore) ListActiveProfiles(
	ctx context.Context,
	excludeUserID string,
	filters models.SearchFilters,
	limit int32,
	startToken string,
) ([]models.Profile, string, error) {
	clauses := []string{"isActive = :active", "verificationStatus <> :rejected", "userId <> :exclude"}
	values := map[string]types.AttributeValue{
		":active":   &types.AttributeValueMemberBOOL{Value: true},
		":rejected": &types.AttributeValueMemberS{Value: models.VerificationRejected},
		":exclude":  &types.AttributeValueMemberS{Value: excludeUserID},
	}

	if filters.AgeMin > 0 {
		clauses = append(clauses, "age >= :ageMin")
		values[":ageMin"] = &types.AttributeValueMemberN{Value: strconv.Itoa(filters.AgeMin)}
	}
	if filters.AgeMax > 0 {
		clauses = append(clauses, "age <= :ageMax")
		values[":ageMax"] = &types.AttributeValueMemberN{Value: strconv.Itoa(filters.AgeMax)}
	}
	if filters.Gender != "" {
		clauses = append(clauses, "gender = :gender")
		values[":gender"] = &types.AttributeValueMemberS{Value: filters.Gender}
	}

	var startKey map[string]types.AttributeValue
	if startToken != "" {
		startKey = utils.StringKey("userId", startToken)
	}

	items, lastKey, err := ps.Dynamo.ScanPage(ctx, models.ProfilesTable,
		BuildFilterExpression(clauses), values, nil, limit, startKey)
	if err != nil {
		return nil, "", err
	}

	profiles := make([]models.Profile, 0, len(items))
	for _, item := range items {
		if !matchesTextFilters(item, filters) {
			continue
		}
		var profile models.Profile
		if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
			return nil, "", fmt.Errorf("failed to unmarshal profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	nextToken := ""
	if lastKey != nil {
		nextToken = utils.ExtractString(lastKey, "userId")
	}
	return profiles, nextToken, nil
}

func matchesTextFilters(item map[string]types.AttributeValue, filters models.SearchFilters) bool {
	if filters.Religion != "" {
		religion := utils.ExtractString(item, "religion")
		if !strings.Contains(strings.ToLower(religion), strings.ToLower(filters.Religion)) {
			return false
		}
	}
	if filters.Location != "" {
		location := utils.ExtractString(item, "location")
		if !strings.Contains(strings.ToLower(location), strings.ToLower(filters.Location)) {
			return false
		}
	}
	return true
}

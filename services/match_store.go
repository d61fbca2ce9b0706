package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sangam_server/models"
	"sangam_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// maxMatchRowsPerUser bounds ListMatches queries; one row per candidate
// keeps real counts far below this.
const maxMatchRowsPerUser = 500

// DynamoMatchStore is the DynamoDB-backed MatchStore. The Matches table is
// keyed (userId, matchedUserId), so the unique-pair invariant holds by
// construction and conditional puts detect concurrent creators.
type DynamoMatchStore struct {
	Dynamo *DynamoService
}

func (ms *DynamoMatchStore) GetMatch(ctx context.Context, userID, matchedUserID string) (*models.Match, error) {
	item, err := ms.Dynamo.GetItem(ctx, models.MatchesTable,
		utils.PairKey("userId", userID, "matchedUserId", matchedUserID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch match: %w", err)
	}
	if item == nil {
		return nil, nil
	}

	var match models.Match
	if err := attributevalue.UnmarshalMap(item, &match); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}
	return &match, nil
}

func (ms *DynamoMatchStore) ListMatches(ctx context.Context, userID string) ([]models.Match, error) {
	items, err := ms.Dynamo.QueryItems(ctx, models.MatchesTable, "userId = :user",
		map[string]types.AttributeValue{
			":user": &types.AttributeValueMemberS{Value: userID},
		}, nil, maxMatchRowsPerUser)
	if err != nil {
		return nil, err
	}

	var matches []models.Match
	if err := attributevalue.UnmarshalListOfMaps(items, &matches); err != nil {
		return nil, fmt.Errorf("failed to unmarshal matches: %w", err)
	}
	return matches, nil
}

func (ms *DynamoMatchStore) PutMatchIfAbsent(ctx context.Context, match *models.Match) error {
	err := ms.Dynamo.PutItemWithCondition(ctx, models.MatchesTable, match,
		"attribute_not_exists(userId) AND attribute_not_exists(matchedUserId)", nil)
	if errors.Is(err, ErrConditionFailed) {
		return &models.DuplicatePairError{Resource: "match", From: match.UserID, To: match.MatchedUserID}
	}
	return err
}

func (ms *DynamoMatchStore) RefreshSuggestion(ctx context.Context, match *models.Match) error {
	breakdown, err := attributevalue.Marshal(match.ScoreBreakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal score breakdown: %w", err)
	}

	_, err = ms.Dynamo.UpdateItemWithCondition(ctx, models.MatchesTable,
		"SET compatibilityScore = :score, scoreBreakdown = :breakdown, insights = :insights, #st = :suggested, updatedAt = :now REMOVE passedAt",
		"attribute_exists(userId) AND (#st = :suggested OR #st = :passed)",
		utils.PairKey("userId", match.UserID, "matchedUserId", match.MatchedUserID),
		map[string]types.AttributeValue{
			":score":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", match.CompatibilityScore)},
			":breakdown": breakdown,
			":insights":  &types.AttributeValueMemberS{Value: match.Insights},
			":suggested": &types.AttributeValueMemberS{Value: models.MatchStatusSuggested},
			":passed":    &types.AttributeValueMemberS{Value: models.MatchStatusPassed},
			":now":       &types.AttributeValueMemberS{Value: match.UpdatedAt},
		},
		map[string]string{"#st": "status"},
	)
	return err
}

func (ms *DynamoMatchStore) UpdateStatusIf(ctx context.Context, userID, matchedUserID string, want []string, to string, passedAt string) error {
	values := map[string]types.AttributeValue{
		":to": &types.AttributeValueMemberS{Value: to},
	}

	var wantPlaceholders []string
	for i, status := range want {
		placeholder := fmt.Sprintf(":want%d", i)
		wantPlaceholders = append(wantPlaceholders, placeholder)
		values[placeholder] = &types.AttributeValueMemberS{Value: status}
	}
	condition := fmt.Sprintf("attribute_exists(userId) AND #st IN (%s)", strings.Join(wantPlaceholders, ", "))

	update := "SET #st = :to, updatedAt = :now REMOVE passedAt"
	if to == models.MatchStatusPassed {
		update = "SET #st = :to, updatedAt = :now, passedAt = :passedAt"
		values[":passedAt"] = &types.AttributeValueMemberS{Value: passedAt}
	}
	values[":now"] = &types.AttributeValueMemberS{Value: nowRFC3339()}

	_, err := ms.Dynamo.UpdateItemWithCondition(ctx, models.MatchesTable, update, condition,
		utils.PairKey("userId", userID, "matchedUserId", matchedUserID),
		values, map[string]string{"#st": "status"})
	return err
}

// PromotePairMutual flips both directional rows to mutual in one
// TransactWriteItems call. Each row must be interested or already mutual,
// so re-promoting a promoted pair is idempotent rather than a conflict.
func (ms *DynamoMatchStore) PromotePairMutual(ctx context.Context, userA, userB string) error {
	now := nowRFC3339()
	updates := make([]TransactUpdate, 0, 2)
	for _, pair := range [][2]string{{userA, userB}, {userB, userA}} {
		updates = append(updates, TransactUpdate{
			TableName:           models.MatchesTable,
			Key:                 utils.PairKey("userId", pair[0], "matchedUserId", pair[1]),
			UpdateExpression:    "SET #st = :mutual, updatedAt = :now",
			ConditionExpression: "attribute_exists(userId) AND #st IN (:interested, :mutual)",
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":mutual":     &types.AttributeValueMemberS{Value: models.MatchStatusMutual},
				":interested": &types.AttributeValueMemberS{Value: models.MatchStatusInterested},
				":now":        &types.AttributeValueMemberS{Value: now},
			},
			ExpressionAttributeNames: map[string]string{"#st": "status"},
		})
	}
	return ms.Dynamo.TransactUpdateItems(ctx, updates)
}

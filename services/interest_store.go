package services

import (
	"context"
	"errors"
	"fmt"

	"sangam_server/models"
	"sangam_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const maxInterestRowsPerUser = 200

// DynamoInterestStore is the DynamoDB-backed InterestStore. The Interests
// table is keyed (fromUserId, toUserId); the interestId GSI serves lookups
// when the recipient responds by row id.
type DynamoInterestStore struct {
	Dynamo *DynamoService
}

func (is *DynamoInterestStore) GetInterest(ctx context.Context, fromUserID, toUserID string) (*models.Interest, error) {
	item, err := is.Dynamo.GetItem(ctx, models.InterestsTable,
		utils.PairKey("fromUserId", fromUserID, "toUserId", toUserID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interest: %w", err)
	}
	if item == nil {
		return nil, nil
	}

	var interest models.Interest
	if err := attributevalue.UnmarshalMap(item, &interest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interest: %w", err)
	}
	return &interest, nil
}

func (is *DynamoInterestStore) GetInterestByID(ctx context.Context, interestID string) (*models.Interest, error) {
	items, err := is.Dynamo.QueryItemsWithIndex(ctx, models.InterestsTable, models.InterestIDIndex,
		"interestId = :id",
		map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: interestID},
		}, nil, 1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &models.NotFoundError{Resource: "interest", ID: interestID}
	}

	var interest models.Interest
	if err := attributevalue.UnmarshalMap(items[0], &interest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interest: %w", err)
	}
	return &interest, nil
}

func (is *DynamoInterestStore) ListSent(ctx context.Context, fromUserID string) ([]models.Interest, error) {
	items, err := is.Dynamo.QueryItems(ctx, models.InterestsTable, "fromUserId = :from",
		map[string]types.AttributeValue{
			":from": &types.AttributeValueMemberS{Value: fromUserID},
		}, nil, maxInterestRowsPerUser)
	if err != nil {
		return nil, err
	}
	return unmarshalInterests(items)
}

func (is *DynamoInterestStore) ListReceived(ctx context.Context, toUserID string) ([]models.Interest, error) {
	items, err := is.Dynamo.QueryItemsWithIndex(ctx, models.InterestsTable, models.ToUserIndex,
		"toUserId = :to",
		map[string]types.AttributeValue{
			":to": &types.AttributeValueMemberS{Value: toUserID},
		}, nil, maxInterestRowsPerUser)
	if err != nil {
		return nil, err
	}
	return unmarshalInterests(items)
}

func (is *DynamoInterestStore) PutInterestIfAbsent(ctx context.Context, interest *models.Interest) error {
	err := is.Dynamo.PutItemWithCondition(ctx, models.InterestsTable, interest,
		"attribute_not_exists(fromUserId) AND attribute_not_exists(toUserId)", nil)
	if errors.Is(err, ErrConditionFailed) {
		return &models.DuplicatePairError{Resource: "interest", From: interest.FromUserID, To: interest.ToUserID}
	}
	return err
}

func (is *DynamoInterestStore) UpdateStatusIf(ctx context.Context, fromUserID, toUserID, want, to string) error {
	_, err := is.Dynamo.UpdateItemWithCondition(ctx, models.InterestsTable,
		"SET #st = :to, updatedAt = :now",
		"attribute_exists(fromUserId) AND #st = :want",
		utils.PairKey("fromUserId", fromUserID, "toUserId", toUserID),
		map[string]types.AttributeValue{
			":to":   &types.AttributeValueMemberS{Value: to},
			":want": &types.AttributeValueMemberS{Value: want},
			":now":  &types.AttributeValueMemberS{Value: nowRFC3339()},
		},
		map[string]string{"#st": "status"},
	)
	return err
}

func (is *DynamoInterestStore) ReopenDeclined(ctx context.Context, fromUserID, toUserID, message string) (*models.Interest, error) {
	attrs, err := is.Dynamo.UpdateItemWithCondition(ctx, models.InterestsTable,
		"SET #st = :pending, message = :message, updatedAt = :now",
		"attribute_exists(fromUserId) AND #st = :declined",
		utils.PairKey("fromUserId", fromUserID, "toUserId", toUserID),
		map[string]types.AttributeValue{
			":pending":  &types.AttributeValueMemberS{Value: models.InterestStatusPending},
			":declined": &types.AttributeValueMemberS{Value: models.InterestStatusDeclined},
			":message":  &types.AttributeValueMemberS{Value: message},
			":now":      &types.AttributeValueMemberS{Value: nowRFC3339()},
		},
		map[string]string{"#st": "status"},
	)
	if err != nil {
		return nil, err
	}

	var interest models.Interest
	if err := attributevalue.UnmarshalMap(attrs, &interest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interest: %w", err)
	}
	return &interest, nil
}

func unmarshalInterests(items []map[string]types.AttributeValue) ([]models.Interest, error) {
	var interests []models.Interest
	if err := attributevalue.UnmarshalListOfMaps(items, &interests); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interests: %w", err)
	}
	return interests, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrConditionFailed is returned when a conditional write loses. Callers
// treat it as "row already exists (or changed), fetch and reconcile".
var ErrConditionFailed = errors.New("conditional check failed")

type DynamoService struct {
	Client *dynamodb.Client
}

// InitializeDynamoDBClient initializes the DynamoDB client
func InitializeDynamoDBClient() *dynamodb.Client {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	return dynamodb.NewFromConfig(cfg)
}

// PutItem writes an item unconditionally, overwriting any existing row.
func (ds *DynamoService) PutItem(ctx context.Context, tableName string, item interface{}) error {
	marshaledItem, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = ds.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &tableName,
		Item:      marshaledItem,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in table '%s': %w", tableName, err)
	}
	return nil
}

// PutItemWithCondition writes an item only if the condition expression
// holds, surfacing a lost race as ErrConditionFailed.
func (ds *DynamoService) PutItemWithCondition(
	ctx context.Context,
	tableName string,
	item interface{},
	conditionExpression string,
	expressionAttributeNames map[string]string,
) error {
	marshaledItem, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           &tableName,
		Item:                marshaledItem,
		ConditionExpression: &conditionExpression,
	}
	if len(expressionAttributeNames) > 0 {
		input.ExpressionAttributeNames = expressionAttributeNames
	}

	_, err = ds.Client.PutItem(ctx, input)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrConditionFailed
		}
		return fmt.Errorf("failed to put item in table '%s': %w", tableName, err)
	}
	return nil
}

// GetItem retrieves an item from DynamoDB. Returns (nil, nil) when the key
// does not exist so callers can distinguish absence from failure.
func (ds *DynamoService) GetItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	output, err := ds.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &tableName,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from table '%s': %w", tableName, err)
	}
	if output.Item == nil {
		return nil, nil
	}
	return output.Item, nil
}

// UpdateItem applies an update expression and returns the new attributes.
func (ds *DynamoService) UpdateItem(
	ctx context.Context,
	tableName string,
	updateExpression string,
	key map[string]types.AttributeValue,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
) (map[string]types.AttributeValue, error) {
	return ds.UpdateItemWithCondition(ctx, tableName, updateExpression, "", key, expressionAttributeValues, expressionAttributeNames)
}

// UpdateItemWithCondition applies an update expression guarded by an
// optional condition expression. A failed condition surfaces as
// ErrConditionFailed.
func (ds *DynamoService) UpdateItemWithCondition(
	ctx context.Context,
	tableName string,
	updateExpression string,
	conditionExpression string,
	key map[string]types.AttributeValue,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
) (map[string]types.AttributeValue, error) {
	if len(key) == 0 {
		return nil, errors.New("update failed: key cannot be empty")
	}
	if updateExpression == "" {
		return nil, errors.New("update failed: updateExpression cannot be empty")
	}

	input := &dynamodb.UpdateItemInput{
		TableName:        &tableName,
		Key:              key,
		UpdateExpression: &updateExpression,
		ReturnValues:     types.ReturnValueAllNew,
	}
	if conditionExpression != "" {
		input.ConditionExpression = &conditionExpression
	}
	if len(expressionAttributeValues) > 0 {
		input.ExpressionAttributeValues = expressionAttributeValues
	}
	if len(expressionAttributeNames) > 0 {
		input.ExpressionAttributeNames = expressionAttributeNames
	}

	output, err := ds.Client.UpdateItem(ctx, input)
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrConditionFailed
		}
		return nil, fmt.Errorf("failed to update item in table '%s': %w", tableName, err)
	}
	if output.Attributes == nil {
		return map[string]types.AttributeValue{}, nil
	}
	return output.Attributes, nil
}

// TransactUpdate describes one guarded update inside a transaction.
type TransactUpdate struct {
	TableName                 string
	Key                       map[string]types.AttributeValue
	UpdateExpression          string
	ConditionExpression       string
	ExpressionAttributeValues map[string]types.AttributeValue
	ExpressionAttributeNames  map[string]string
}

// TransactUpdateItems applies all updates or none of them. A cancelled
// transaction (any condition failed) surfaces as ErrConditionFailed.
func (ds *DynamoService) TransactUpdateItems(ctx context.Context, updates []TransactUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	items := make([]types.TransactWriteItem, 0, len(updates))
	for _, u := range updates {
		update := &types.Update{
			TableName:        aws.String(u.TableName),
			Key:              u.Key,
			UpdateExpression: aws.String(u.UpdateExpression),
		}
		if u.ConditionExpression != "" {
			update.ConditionExpression = aws.String(u.ConditionExpression)
		}
		if len(u.ExpressionAttributeValues) > 0 {
			update.ExpressionAttributeValues = u.ExpressionAttributeValues
		}
		if len(u.ExpressionAttributeNames) > 0 {
			update.ExpressionAttributeNames = u.ExpressionAttributeNames
		}
		items = append(items, types.TransactWriteItem{Update: update})
	}

	_, err := ds.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		var cancelled *types.TransactionCanceledException
		if errors.As(err, &cancelled) {
			return ErrConditionFailed
		}
		return fmt.Errorf("transactional update failed: %w", err)
	}
	return nil
}

// QueryItems queries items from DynamoDB using a KeyConditionExpression
func (ds *DynamoService) QueryItems(
	ctx context.Context,
	tableName string,
	keyConditionExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
	limit int32,
) ([]map[string]types.AttributeValue, error) {
	output, err := ds.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 &tableName,
		KeyConditionExpression:    &keyConditionExpression,
		ExpressionAttributeValues: expressionAttributeValues,
		ExpressionAttributeNames:  expressionAttributeNames,
		Limit:                     &limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query items from table '%s': %w", tableName, err)
	}
	return output.Items, nil
}

// QueryItemsWithIndex queries items using a Global Secondary Index (GSI)
func (ds *DynamoService) QueryItemsWithIndex(
	ctx context.Context,
	tableName string,
	indexName string,
	keyConditionExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
	limit int32,
) ([]map[string]types.AttributeValue, error) {
	output, err := ds.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 &tableName,
		IndexName:                 &indexName,
		KeyConditionExpression:    &keyConditionExpression,
		ExpressionAttributeValues: expressionAttributeValues,
		ExpressionAttributeNames:  expressionAttributeNames,
		Limit:                     &limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query GSI '%s': %w", indexName, err)
	}
	return output.Items, nil
}

// ScanPage scans one page of a table with an optional filter expression.
// Returns the raw items plus the LastEvaluatedKey for the next page (nil
// when the scan is exhausted).
func (ds *DynamoService) ScanPage(
	ctx context.Context,
	tableName string,
	filterExpression string,
	expressionAttributeValues map[string]types.AttributeValue,
	expressionAttributeNames map[string]string,
	limit int32,
	exclusiveStartKey map[string]types.AttributeValue,
) ([]map[string]types.AttributeValue, map[string]types.AttributeValue, error) {
	input := &dynamodb.ScanInput{
		TableName: &tableName,
		Limit:     &limit,
	}
	if filterExpression != "" {
		input.FilterExpression = &filterExpression
	}
	if len(expressionAttributeValues) > 0 {
		input.ExpressionAttributeValues = expressionAttributeValues
	}
	if len(expressionAttributeNames) > 0 {
		input.ExpressionAttributeNames = expressionAttributeNames
	}
	if len(exclusiveStartKey) > 0 {
		input.ExclusiveStartKey = exclusiveStartKey
	}

	output, err := ds.Client.Scan(ctx, input)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan table '%s': %w", tableName, err)
	}
	return output.Items, output.LastEvaluatedKey, nil
}

// DeleteItem removes an item from DynamoDB
func (ds *DynamoService) DeleteItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) error {
	_, err := ds.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &tableName,
		Key:       key,
	})
	if err != nil {
		return fmt.Errorf("failed to delete item from table '%s': %w", tableName, err)
	}
	return nil
}

// BuildFilterExpression joins individual filter clauses with AND.
func BuildFilterExpression(clauses []string) string {
	return strings.Join(clauses, " AND ")
}

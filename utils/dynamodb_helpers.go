package utils

import (
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ExtractString safely extracts a string from a DynamoDB attribute map
func ExtractString(item map[string]types.AttributeValue, field string) string {
	if attr, ok := item[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberS); ok {
			return v.Value
		}
	}
	return ""
}

// ExtractInt safely extracts an integer from a DynamoDB attribute map
func ExtractInt(item map[string]types.AttributeValue, field string) int {
	if attr, ok := item[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberN); ok {
			if n, err := strconv.Atoi(v.Value); err == nil {
				return n
			}
		}
	}
	return 0
}

// ExtractBool safely extracts a boolean from a DynamoDB attribute map
func ExtractBool(item map[string]types.AttributeValue, field string) bool {
	if attr, ok := item[field]; ok {
		if v, ok := attr.(*types.AttributeValueMemberBOOL); ok {
			return v.Value
		}
	}
	return false
}

// StringKey builds a single-attribute key map
func StringKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// PairKey builds a two-attribute key map for ordered-pair tables
func PairKey(pkName, pkValue, skName, skValue string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkName: &types.AttributeValueMemberS{Value: pkValue},
		skName: &types.AttributeValueMemberS{Value: skValue},
	}
}

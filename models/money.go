package models

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

// Money wraps a decimal amount so income survives DynamoDB round trips
// without floating point drift. Stored as a number attribute.
type Money struct {
	decimal.Decimal
}

// NewMoney builds a Money from a major/exponent pair, e.g. NewMoney(1200000, 0).
func NewMoney(value int64, exp int32) *Money {
	return &Money{decimal.New(value, exp)}
}

// MoneyFromString parses a decimal string such as "1250000.50".
func MoneyFromString(s string) (*Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return &Money{d}, nil
}

// MarshalDynamoDBAttributeValue implements attributevalue.Marshaler.
func (m Money) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: m.String()}, nil
}

// UnmarshalDynamoDBAttributeValue implements attributevalue.Unmarshaler.
func (m *Money) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return fmt.Errorf("money: expected number attribute, got %T", av)
	}
	d, err := decimal.NewFromString(n.Value)
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	m.Decimal = d
	return nil
}

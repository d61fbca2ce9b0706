package models

// Interest is a directional request from one user to another. The table key
// is the ordered pair (fromUserId, toUserId); the interestId GSI serves
// lookups by row id when the recipient responds.
type Interest struct {
	FromUserID string `dynamodbav:"fromUserId" json:"fromUserId"` // Partition key
	ToUserID   string `dynamodbav:"toUserId" json:"toUserId"`     // Sort key, also GSI partition key
	InterestID string `dynamodbav:"interestId" json:"interestId"` // GSI partition key
	Status     string `dynamodbav:"status" json:"status"`         // pending, accepted, declined
	Message    string `dynamodbav:"message,omitempty" json:"message,omitempty"`
	CreatedAt  string `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt  string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// InterestsTable is the DynamoDB table name for interest rows
const InterestsTable = "Interests"

// InterestIDIndex is the GSI used to fetch an interest by its row id
const InterestIDIndex = "interestId-index"

// ToUserIndex is the GSI used to list interests received by a user
const ToUserIndex = "toUserId-index"

package models

// Match is one directional edge of a compatibility pairing. The table key
// is the ordered pair (userId, matchedUserId), so at most one row can ever
// exist per direction. The reverse direction is an independent row that the
// match service keeps score-consistent.
type Match struct {
	UserID             string         `dynamodbav:"userId" json:"userId"`               // Partition key
	MatchedUserID      string         `dynamodbav:"matchedUserId" json:"matchedUserId"` // Sort key
	MatchID            string         `dynamodbav:"matchId" json:"matchId"`             // Stable row id, survives re-suggestion
	CompatibilityScore int            `dynamodbav:"compatibilityScore" json:"compatibilityScore"`
	ScoreBreakdown     map[string]int `dynamodbav:"scoreBreakdown" json:"scoreBreakdown"`
	Insights           string         `dynamodbav:"insights,omitempty" json:"insights,omitempty"`
	Status             string         `dynamodbav:"status" json:"status"` // suggested, interested, mutual, passed
	PassedAt           string         `dynamodbav:"passedAt,omitempty" json:"passedAt,omitempty"`
	CreatedAt          string         `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt          string         `dynamodbav:"updatedAt" json:"updatedAt"`
}

// MatchesTable is the DynamoDB table name for match rows
const MatchesTable = "Matches"

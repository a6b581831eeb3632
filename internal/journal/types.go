package journal

import "time"

// ReplyEvent is the payload sent API -> SQS -> worker after a reply was served.
type ReplyEvent struct {
	RequestID   string    `json:"request_id"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number,omitempty"`
	Mode        string    `json:"mode"`
	Status      string    `json:"status,omitempty"`
	Tracking    string    `json:"tracking,omitempty"`
	RepliedAt   time.Time `json:"replied_at"`
}

// Entry is the shape persisted in the journal DynamoDB table.
type Entry struct {
	RequestID   string    `dynamodbav:"request_id"` // PK
	OrderID     string    `dynamodbav:"order_id"`
	OrderNumber string    `dynamodbav:"order_number,omitempty"`
	Mode        string    `dynamodbav:"mode"`
	Status      string    `dynamodbav:"status,omitempty"`
	Tracking    string    `dynamodbav:"tracking,omitempty"`
	RepliedAt   time.Time `dynamodbav:"replied_at"`
	RecordedAt  time.Time `dynamodbav:"recorded_at"`
	ExpiresAt   int64     `dynamodbav:"expires_at"` // TTL epoch seconds
}

package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/shopify-support-api/internal/aws"
)

// ErrMissingRequestID rejects events that cannot be deduplicated.
var ErrMissingRequestID = errors.New("reply event has no request_id")

// Store writes reply events into the journal table, once per request id.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewStore returns a configured Store. ttlWindow sets expires_at; zero disables it.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// Record stores ev unless an entry with the same request id exists.
// Returns (true, nil) when written and (false, nil) for a duplicate delivery.
func (s *Store) Record(ctx context.Context, ev ReplyEvent) (bool, error) {
	if ev.RequestID == "" {
		return false, ErrMissingRequestID
	}

	now := s.nowFunc().UTC()
	entry := Entry{
		RequestID:   ev.RequestID,
		OrderID:     ev.OrderID,
		OrderNumber: ev.OrderNumber,
		Mode:        ev.Mode,
		Status:      ev.Status,
		Tracking:    ev.Tracking,
		RepliedAt:   ev.RepliedAt,
		RecordedAt:  now,
	}
	if s.ttlWindow > 0 {
		entry.ExpiresAt = now.Add(s.ttlWindow).Unix()
	}

	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return false, fmt.Errorf("marshal entry: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(request_id)"),
	})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException" {
			return false, nil
		}
		return false, fmt.Errorf("put item: %w", err)
	}
	return true, nil
}

// Get retrieves an entry by request id. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, requestID string) (*Entry, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"request_id": &types.AttributeValueMemberS{Value: requestID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var e Entry
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, fmt.Errorf("unmarshal entry: %w", err)
	}
	return &e, nil
}

func awsString(s string) *string { return &s }

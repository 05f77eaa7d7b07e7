package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dashboard/application/ports"
	pkgerrors "dashboard/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const snapshotSortKey = "SNAPSHOT"

// SnapshotStore implements ports.SnapshotStore on a single DynamoDB table
type SnapshotStore struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// NewSnapshotStore creates a new SnapshotStore
func NewSnapshotStore(client API, tableName string, logger *zap.Logger) *SnapshotStore {
	return &SnapshotStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// snapshotItem is the stored shape. The payload keeps the dehydrated state
// as JSON so the page is served byte-for-byte as it was generated.
type snapshotItem struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	EntityType    string `dynamodbav:"EntityType"`
	CategoryID    string `dynamodbav:"CategoryID"`
	Version       string `dynamodbav:"Version"`
	Trigger       string `dynamodbav:"Trigger,omitempty"`
	FailedQueries int    `dynamodbav:"FailedQueries"`
	GeneratedAt   string `dynamodbav:"GeneratedAt"`
	GeneratedNano int64  `dynamodbav:"GeneratedAtNanos"`
	Payload       string `dynamodbav:"Payload"`
}

func categoryKey(categoryID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "CATEGORY#" + categoryID},
		"SK": &types.AttributeValueMemberS{Value: snapshotSortKey},
	}
}

// Save stores the snapshot unless a newer one is already present
func (s *SnapshotStore) Save(ctx context.Context, snapshot *ports.CategorySnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return pkgerrors.NewStorageError("marshal snapshot", err)
	}

	generatedAt := snapshot.GeneratedAt.UTC()
	item := snapshotItem{
		PK:            "CATEGORY#" + snapshot.Category.ID,
		SK:            snapshotSortKey,
		EntityType:    "CATEGORY_SNAPSHOT",
		CategoryID:    snapshot.Category.ID,
		Version:       snapshot.Version,
		Trigger:       snapshot.Trigger,
		FailedQueries: snapshot.Failed,
		GeneratedAt:   generatedAt.Format(time.RFC3339Nano),
		GeneratedNano: generatedAt.UnixNano(),
		Payload:       string(payload),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewStorageError("marshal snapshot", err)
	}

	// RFC3339Nano trims trailing zeros so its text order is not time order;
	// ordering compares the numeric attribute.
	cond := expression.AttributeNotExists(expression.Name("PK")).
		Or(
			expression.AttributeNotExists(expression.Name("GeneratedAtNanos")),
			expression.Name("GeneratedAtNanos").LessThanEqual(expression.Value(item.GeneratedNano)),
		)
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return pkgerrors.NewStorageError("build condition", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			s.logger.Debug("Newer snapshot already stored, skipping write",
				zap.String("category", snapshot.Category.ID),
				zap.String("version", snapshot.Version),
			)
			return nil
		}
		return pkgerrors.NewStorageError("save snapshot", err)
	}

	s.logger.Debug("Snapshot saved",
		zap.String("category", snapshot.Category.ID),
		zap.String("version", snapshot.Version),
		zap.Int("payloadBytes", len(payload)),
	)
	return nil
}

// Get retrieves the current snapshot of a category
func (s *SnapshotStore) Get(ctx context.Context, categoryID string) (*ports.CategorySnapshot, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            categoryKey(categoryID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, pkgerrors.NewStorageError("get snapshot", err)
	}
	if len(out.Item) == 0 {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("snapshot for category %s", categoryID))
	}

	var item snapshotItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, pkgerrors.NewStorageError("unmarshal snapshot", err)
	}

	var snapshot ports.CategorySnapshot
	if err := json.Unmarshal([]byte(item.Payload), &snapshot); err != nil {
		return nil, pkgerrors.NewStorageError("decode snapshot payload", err)
	}
	return &snapshot, nil
}

// Delete removes the snapshot of a category
func (s *SnapshotStore) Delete(ctx context.Context, categoryID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       categoryKey(categoryID),
	})
	if err != nil {
		return pkgerrors.NewStorageError("delete snapshot", err)
	}
	return nil
}

// Package dynamodb is the server-dialect store: a single-table design
// (PK/SK) backed by AWS SDK v2 (spec §6). Nothing in cmd/ or internal/app
// constructs it; DATABASE_URL does not select it. Adapted from the teacher's generic
// BaseRepository[T]/QueryBuilder pair (internal/infrastructure/persistence/dynamodb),
// generalized from the node/edge domain to Neo Alexandria's entity set.
package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"neo-alexandria/internal/errorkit"
)

// EntityParser converts between DynamoDB items and the item type T,
// mirroring the teacher's EntityParser[T] interface.
type EntityParser[T any] interface {
	ToItem(entity T) (map[string]types.AttributeValue, error)
	FromItem(item map[string]types.AttributeValue) (T, error)
}

// BaseRepository provides generic CRUD over one single-table partition
// shape for entity type T.
type BaseRepository[T any] struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
	parser    EntityParser[T]

	maxRetries int
	batchSize  int
}

func NewBaseRepository[T DomainEntity](client *dynamodb.Client, tableName string, logger *zap.Logger, parser EntityParser[T]) *BaseRepository[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseRepository[T]{client: client, tableName: tableName, logger: logger, parser: parser, maxRetries: 3, batchSize: 25}
}

func (r *BaseRepository[T]) GetItem(ctx context.Context, key map[string]types.AttributeValue) (T, error) {
	var zero T
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: aws.String(r.tableName), Key: key})
	if err != nil {
		return zero, errorkit.Wrap(errorkit.Upstream, "dynamodb_get_item", "GetItem failed", err)
	}
	if out.Item == nil {
		return zero, errorkit.NotFoundf("item not found")
	}
	return r.parser.FromItem(out.Item)
}

func (r *BaseRepository[T]) PutItem(ctx context.Context, entity T) error {
	item, err := r.parser.ToItem(entity)
	if err != nil {
		return errorkit.Wrap(errorkit.Internal, "marshal_entity", "failed to marshal entity", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(r.tableName), Item: item})
	if err != nil {
		return errorkit.Wrap(errorkit.Upstream, "dynamodb_put_item", "PutItem failed", err).WithRetryable(true)
	}
	return nil
}

func (r *BaseRepository[T]) DeleteItem(ctx context.Context, key map[string]types.AttributeValue) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{TableName: aws.String(r.tableName), Key: key})
	if err != nil {
		return errorkit.Wrap(errorkit.Upstream, "dynamodb_delete_item", "DeleteItem failed", err)
	}
	return nil
}

// QueryItems performs a query with the given key condition and optional
// filter, auto-paginating until the result set is exhausted (bounded by
// limit if set).
func (r *BaseRepository[T]) QueryItems(ctx context.Context, keyCondition expression.KeyConditionBuilder, filterCondition *expression.ConditionBuilder, indexName string, limit int32) ([]T, error) {
	builder := expression.NewBuilder().WithKeyCondition(keyCondition)
	if filterCondition != nil {
		builder = builder.WithFilter(*filterCondition)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, errorkit.Wrap(errorkit.Internal, "build_expression", "failed to build expression", err)
	}

	var entities []T
	var lastKey map[string]types.AttributeValue
	for {
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		}
		if indexName != "" {
			input.IndexName = aws.String(indexName)
		}
		if filterCondition != nil {
			input.FilterExpression = expr.Filter()
		}
		if limit > 0 {
			input.Limit = aws.Int32(limit)
		}
		if lastKey != nil {
			input.ExclusiveStartKey = lastKey
		}

		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, errorkit.Wrap(errorkit.Upstream, "dynamodb_query", "Query failed", err)
		}
		for _, item := range out.Items {
			entity, err := r.parser.FromItem(item)
			if err != nil {
				r.logger.Warn("failed to parse item", zap.Error(err))
				continue
			}
			entities = append(entities, entity)
		}
		if out.LastEvaluatedKey == nil || (limit > 0 && int32(len(entities)) >= limit) {
			break
		}
		lastKey = out.LastEvaluatedKey
	}
	return entities, nil
}

// BatchWriteItems chunks requests into groups of 25 (the DynamoDB limit),
// retrying unprocessed items with capped exponential backoff.
func (r *BaseRepository[T]) BatchWriteItems(ctx context.Context, requests []types.WriteRequest) error {
	for i := 0; i < len(requests); i += r.batchSize {
		end := i + r.batchSize
		if end > len(requests) {
			end = len(requests)
		}
		if err := r.batchWriteChunk(ctx, requests[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *BaseRepository[T]) batchWriteChunk(ctx context.Context, requests []types.WriteRequest) error {
	input := &dynamodb.BatchWriteItemInput{RequestItems: map[string][]types.WriteRequest{r.tableName: requests}}
	for attempt := 0; ; attempt++ {
		out, err := r.client.BatchWriteItem(ctx, input)
		if err != nil {
			return errorkit.Wrap(errorkit.Upstream, "dynamodb_batch_write", "BatchWriteItem failed", err)
		}
		unprocessed := out.UnprocessedItems[r.tableName]
		if len(unprocessed) == 0 {
			return nil
		}
		if attempt >= r.maxRetries {
			return fmt.Errorf("failed to process all items after %d retries", r.maxRetries)
		}
		time.Sleep(time.Duration(1<<attempt) * 100 * time.Millisecond)
		input.RequestItems = map[string][]types.WriteRequest{r.tableName: unprocessed}
	}
}

func (r *BaseRepository[T]) TableName() string { return r.tableName }

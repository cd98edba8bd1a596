package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"neo-alexandria/internal/domain/collection"
	"neo-alexandria/internal/domain/shared"
)

type collectionItem struct {
	PK, SK      string
	EntityType  string
	ID          string
	Name        string
	Description string
	Visibility  string
	ParentID    string // "" when root
	Owner       string
	Members     []string
	Aggregate   []float32
	CreatedAt   int64
	UpdatedAt   int64
}

type collectionParser struct{}

func (collectionParser) ToItem(c *collection.Collection) (map[string]types.AttributeValue, error) {
	item := collectionItem{
		PK: collectionPK(c.ID().String()), SK: metaSK(), EntityType: entityTypeCollection,
		ID: c.ID().String(), Name: c.Name(), Description: c.Description(), Visibility: string(c.Visibility()),
		Owner: c.Owner(), Aggregate: c.AggregateEmbedding(), CreatedAt: c.CreatedAt().Unix(), UpdatedAt: c.UpdatedAt().Unix(),
	}
	if c.Parent() != nil {
		item.ParentID = c.Parent().String()
	}
	for _, m := range c.Members() {
		item.Members = append(item.Members, m.String())
	}
	return attributevalue.MarshalMap(item)
}

func (collectionParser) FromItem(av map[string]types.AttributeValue) (*collection.Collection, error) {
	var item collectionItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, err
	}
	var parent *shared.ID
	if item.ParentID != "" {
		id := shared.ID(item.ParentID)
		parent = &id
	}
	members := make([]shared.ID, 0, len(item.Members))
	for _, m := range item.Members {
		members = append(members, shared.ID(m))
	}
	return collection.Reconstruct(shared.ID(item.ID), item.Name, item.Description, collection.Visibility(item.Visibility),
		parent, item.Owner, members, item.Aggregate, time.Unix(item.CreatedAt, 0).UTC(), time.Unix(item.UpdatedAt, 0).UTC()), nil
}

type CollectionRepository struct{ base *BaseRepository[*collection.Collection] }

func NewCollectionRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *CollectionRepository {
	return &CollectionRepository{base: NewBaseRepository[*collection.Collection](client, tableName, logger, collectionParser{})}
}

var _ collection.Repository = (*CollectionRepository)(nil)

func (r *CollectionRepository) Save(ctx context.Context, c *collection.Collection) error {
	return r.base.PutItem(ctx, c)
}

func (r *CollectionRepository) FindByID(ctx context.Context, id shared.ID) (*collection.Collection, error) {
	return r.base.GetItem(ctx, itemKey(collectionPK(id.String()), metaSK()))
}

func (r *CollectionRepository) Delete(ctx context.Context, id shared.ID) error {
	return r.base.DeleteItem(ctx, itemKey(collectionPK(id.String()), metaSK()))
}

func (r *CollectionRepository) ListByOwner(ctx context.Context, owner string) ([]*collection.Collection, error) {
	keyCond := expression.Key("EntityType").Equal(expression.Value(entityTypeCollection))
	filter := expression.Name("Owner").Equal(expression.Value(owner))
	return r.base.QueryItems(ctx, keyCond, &filter, "EntityTypeIndex", 0)
}

func (r *CollectionRepository) ListContaining(ctx context.Context, resourceID shared.ID) ([]*collection.Collection, error) {
	keyCond := expression.Key("EntityType").Equal(expression.Value(entityTypeCollection))
	filter := expression.Name("Members").Contains(resourceID.String())
	return r.base.QueryItems(ctx, keyCond, &filter, "EntityTypeIndex", 0)
}

package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"neo-alexandria/internal/domain/citation"
	"neo-alexandria/internal/domain/shared"
)

type citationItem struct {
	PK, SK                       string
	EntityType                   string
	ID, SourceResourceID         string
	TargetURL                    string
	TargetResourceID             string // "" when unresolved
	Type                         string
	ContextSnippet               string
	Position                     int
	Importance                   float64
	HasImportance                bool
	CreatedAt                    int64
}

type citationParser struct{}

func (citationParser) ToItem(c *citation.Citation) (map[string]types.AttributeValue, error) {
	item := citationItem{
		PK: resourcePK(c.SourceResourceID().String()), SK: citationSK(c.ID().String()), EntityType: entityTypeCitation,
		ID: c.ID().String(), SourceResourceID: c.SourceResourceID().String(), TargetURL: c.TargetURL(),
		Type: string(c.Type()), ContextSnippet: c.ContextSnippet(), Position: c.Position(),
		CreatedAt: c.CreatedAt().Unix(),
	}
	if c.TargetResourceID() != nil {
		item.TargetResourceID = c.TargetResourceID().String()
	}
	if c.Importance() != nil {
		item.Importance = *c.Importance()
		item.HasImportance = true
	}
	return attributevalue.MarshalMap(item)
}

func (citationParser) FromItem(av map[string]types.AttributeValue) (*citation.Citation, error) {
	var item citationItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, err
	}
	var target *shared.ID
	if item.TargetResourceID != "" {
		id := shared.ID(item.TargetResourceID)
		target = &id
	}
	var importance *float64
	if item.HasImportance {
		importance = &item.Importance
	}
	return citation.Reconstruct(shared.ID(item.ID), shared.ID(item.SourceResourceID), item.TargetURL, target,
		citation.Type(item.Type), item.ContextSnippet, item.Position, importance, time.Unix(item.CreatedAt, 0).UTC()), nil
}

type CitationRepository struct{ base *BaseRepository[*citation.Citation] }

func NewCitationRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *CitationRepository {
	return &CitationRepository{base: NewBaseRepository[*citation.Citation](client, tableName, logger, citationParser{})}
}

var _ citation.Repository = (*CitationRepository)(nil)

func (r *CitationRepository) Save(ctx context.Context, c *citation.Citation) error {
	return r.base.PutItem(ctx, c)
}

func (r *CitationRepository) FindByID(ctx context.Context, id shared.ID) (*citation.Citation, error) {
	items, err := r.base.QueryItems(ctx, expression.Key("SK").Equal(expression.Value(citationSK(id.String()))), nil, "SKIndex", 1)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

func (r *CitationRepository) ListBySource(ctx context.Context, sourceResourceID shared.ID) ([]*citation.Citation, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(resourcePK(sourceResourceID.String()))).
		And(expression.Key("SK").BeginsWith("CITATION#"))
	return r.base.QueryItems(ctx, keyCond, nil, "", 0)
}

func (r *CitationRepository) ListByTarget(ctx context.Context, targetResourceID shared.ID) ([]*citation.Citation, error) {
	keyCond := expression.Key("EntityType").Equal(expression.Value(entityTypeCitation))
	filter := expression.Name("TargetResourceID").Equal(expression.Value(targetResourceID.String()))
	return r.base.QueryItems(ctx, keyCond, &filter, "EntityTypeIndex", 0)
}

func (r *CitationRepository) Unresolved(ctx context.Context) ([]*citation.Citation, error) {
	keyCond := expression.Key("EntityType").Equal(expression.Value(entityTypeCitation))
	filter := expression.Name("TargetResourceID").Equal(expression.Value(""))
	return r.base.QueryItems(ctx, keyCond, &filter, "EntityTypeIndex", 0)
}

func (r *CitationRepository) All(ctx context.Context) ([]*citation.Citation, error) {
	keyCond := expression.Key("EntityType").Equal(expression.Value(entityTypeCitation))
	return r.base.QueryItems(ctx, keyCond, nil, "EntityTypeIndex", 0)
}

func (r *CitationRepository) UnresolveByTarget(ctx context.Context, targetResourceID shared.ID) error {
	citations, err := r.ListByTarget(ctx, targetResourceID)
	if err != nil {
		return err
	}
	for _, c := range citations {
		c.Unresolve()
		if err := r.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *CitationRepository) DeleteBySource(ctx context.Context, sourceResourceID shared.ID) error {
	citations, err := r.ListBySource(ctx, sourceResourceID)
	if err != nil {
		return err
	}
	var requests []types.WriteRequest
	for _, c := range citations {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{Key: itemKey(resourcePK(sourceResourceID.String()), citationSK(c.ID().String()))},
		})
	}
	return r.base.BatchWriteItems(ctx, requests)
}

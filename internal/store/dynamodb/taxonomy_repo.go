package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/domain/taxonomy"
)

type taxonomyItem struct {
	PK, SK                 string
	EntityType             string
	ID, Name, Slug         string
	ParentID               string
	Path                   string
	Level                  int
	Keywords               []string
	AllowResources         bool
	CreatedAt, UpdatedAt   int64
}

type taxonomyParser struct{}

func (taxonomyParser) ToItem(n *taxonomy.Node) (map[string]types.AttributeValue, error) {
	item := taxonomyItem{
		PK: taxonomyPK(n.ID().String()), SK: metaSK(), EntityType: entityTypeTaxonomy,
		ID: n.ID().String(), Name: n.Name(), Slug: n.Slug(), Path: n.Path(), Level: n.Level(),
		Keywords: n.Keywords(), AllowResources: n.AllowResources(),
		CreatedAt: n.CreatedAt().Unix(), UpdatedAt: n.UpdatedAt().Unix(),
	}
	if n.ParentID() != nil {
		item.ParentID = n.ParentID().String()
	}
	return attributevalue.MarshalMap(item)
}

func (taxonomyParser) FromItem(av map[string]types.AttributeValue) (*taxonomy.Node, error) {
	var item taxonomyItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, err
	}
	var parent *shared.ID
	if item.ParentID != "" {
		id := shared.ID(item.ParentID)
		parent = &id
	}
	return taxonomy.Reconstruct(shared.ID(item.ID), item.Name, item.Slug, parent, item.Path, item.Level,
		item.Keywords, item.AllowResources, time.Unix(item.CreatedAt, 0).UTC(), time.Unix(item.UpdatedAt, 0).UTC()), nil
}

// assignmentItem stores a resource<->taxonomy-node link under the
// resource's partition, with an EntityType GSI for the by-node query.
type assignmentItem struct {
	PK, SK     string
	EntityType string
	ResourceID string
	NodeID     string
	Confidence float64
	Source     string
	CreatedAt  int64
}

type TaxonomyRepository struct {
	base     *BaseRepository[*taxonomy.Node]
	client   *dynamodb.Client
	table    string
	logger   *zap.Logger
}

func NewTaxonomyRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *TaxonomyRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaxonomyRepository{
		base:   NewBaseRepository[*taxonomy.Node](client, tableName, logger, taxonomyParser{}),
		client: client, table: tableName, logger: logger,
	}
}

var _ taxonomy.Repository = (*TaxonomyRepository)(nil)

func (r *TaxonomyRepository) Save(ctx context.Context, n *taxonomy.Node) error {
	return r.base.PutItem(ctx, n)
}

func (r *TaxonomyRepository) FindByID(ctx context.Context, id shared.ID) (*taxonomy.Node, error) {
	return r.base.GetItem(ctx, itemKey(taxonomyPK(id.String()), metaSK()))
}

func (r *TaxonomyRepository) FindBySlugAndParent(ctx context.Context, slug string, parentID *shared.ID) (*taxonomy.Node, error) {
	keyCond := expression.Key("EntityType").Equal(expression.Value(entityTypeTaxonomy))
	filter := expression.Name("Slug").Equal(expression.Value(slug))
	if parentID != nil {
		filter = filter.And(expression.Name("ParentID").Equal(expression.Value(parentID.String())))
	} else {
		filter = filter.And(expression.Name("ParentID").Equal(expression.Value("")))
	}
	items, err := r.base.QueryItems(ctx, keyCond, &filter, "EntityTypeIndex", 1)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

func (r *TaxonomyRepository) Descendants(ctx context.Context, pathPrefix string) ([]*taxonomy.Node, error) {
	keyCond := expression.Key("EntityType").Equal(expression.Value(entityTypeTaxonomy))
	filter := expression.Name("Path").Contains(pathPrefix)
	return r.base.QueryItems(ctx, keyCond, &filter, "EntityTypeIndex", 0)
}

func (r *TaxonomyRepository) Children(ctx context.Context, parentID shared.ID) ([]*taxonomy.Node, error) {
	keyCond := expression.Key("EntityType").Equal(expression.Value(entityTypeTaxonomy))
	filter := expression.Name("ParentID").Equal(expression.Value(parentID.String()))
	return r.base.QueryItems(ctx, keyCond, &filter, "EntityTypeIndex", 0)
}

func (r *TaxonomyRepository) Delete(ctx context.Context, id shared.ID) error {
	return r.base.DeleteItem(ctx, itemKey(taxonomyPK(id.String()), metaSK()))
}

func (r *TaxonomyRepository) Tree(ctx context.Context) ([]*taxonomy.Node, error) {
	keyCond := expression.Key("EntityType").Equal(expression.Value(entityTypeTaxonomy))
	return r.base.QueryItems(ctx, keyCond, nil, "EntityTypeIndex", 0)
}

func (r *TaxonomyRepository) SaveAssignment(ctx context.Context, a taxonomy.Assignment) error {
	item := assignmentItem{
		PK: resourcePK(a.ResourceID.String()), SK: assignmentSK(a.NodeID.String()), EntityType: entityTypeAssignment,
		ResourceID: a.ResourceID.String(), NodeID: a.NodeID.String(), Confidence: a.Confidence,
		Source: string(a.Source), CreatedAt: a.CreatedAt.Unix(),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: &r.table, Item: av})
	return err
}

func (r *TaxonomyRepository) AssignmentsForResource(ctx context.Context, resourceID shared.ID) ([]taxonomy.Assignment, error) {
	base := NewBaseRepository[taxonomy.Assignment](r.client, r.table, r.logger, assignmentParser{})
	keyCond := expression.Key("PK").Equal(expression.Value(resourcePK(resourceID.String()))).
		And(expression.Key("SK").BeginsWith("ASSIGNMENT#"))
	return base.QueryItems(ctx, keyCond, nil, "", 0)
}

func (r *TaxonomyRepository) AssignmentsForNode(ctx context.Context, nodeID shared.ID, sourceFilter *taxonomy.AssignmentSource) ([]taxonomy.Assignment, error) {
	base := NewBaseRepository[taxonomy.Assignment](r.client, r.table, r.logger, assignmentParser{})
	keyCond := expression.Key("EntityType").Equal(expression.Value(entityTypeAssignment))
	filter := expression.Name("NodeID").Equal(expression.Value(nodeID.String()))
	if sourceFilter != nil {
		filter = filter.And(expression.Name("Source").Equal(expression.Value(string(*sourceFilter))))
	}
	return base.QueryItems(ctx, keyCond, &filter, "EntityTypeIndex", 0)
}

func (r *TaxonomyRepository) DeleteAssignmentsForResource(ctx context.Context, resourceID shared.ID) error {
	assignments, err := r.AssignmentsForResource(ctx, resourceID)
	if err != nil {
		return err
	}
	var requests []types.WriteRequest
	for _, a := range assignments {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{Key: itemKey(resourcePK(resourceID.String()), assignmentSK(a.NodeID.String()))},
		})
	}
	return r.base.BatchWriteItems(ctx, requests)
}

func (r *TaxonomyRepository) HasAssignedResources(ctx context.Context, nodeID shared.ID) (bool, error) {
	assignments, err := r.AssignmentsForNode(ctx, nodeID, nil)
	if err != nil {
		return false, err
	}
	return len(assignments) > 0, nil
}

type assignmentParser struct{}

func (assignmentParser) ToItem(a taxonomy.Assignment) (map[string]types.AttributeValue, error) {
	item := assignmentItem{
		PK: resourcePK(a.ResourceID.String()), SK: assignmentSK(a.NodeID.String()), EntityType: entityTypeAssignment,
		ResourceID: a.ResourceID.String(), NodeID: a.NodeID.String(), Confidence: a.Confidence,
		Source: string(a.Source), CreatedAt: a.CreatedAt.Unix(),
	}
	return attributevalue.MarshalMap(item)
}

func (assignmentParser) FromItem(av map[string]types.AttributeValue) (taxonomy.Assignment, error) {
	var item assignmentItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return taxonomy.Assignment{}, err
	}
	return taxonomy.Assignment{
		ResourceID: shared.ID(item.ResourceID), NodeID: shared.ID(item.NodeID), Confidence: item.Confidence,
		Source: taxonomy.AssignmentSource(item.Source), CreatedAt: time.Unix(item.CreatedAt, 0).UTC(),
	}, nil
}

package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"neo-alexandria/internal/domain/resource"
	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/errorkit"
)

// resourceItem is the flat DynamoDB projection of a Resource, marshaled via
// attributevalue (generics-light compared to the teacher's manual
// AttributeValue construction, but the same base-repository/parser shape).
type resourceItem struct {
	PK, SK      string
	EntityType  string
	ID          string
	Title       string
	Description string
	Creator     string
	Publisher   string
	OriginURL   string
	Language    string
	Type        string
	Subjects    []string
	ClassCode   string
	ArchiveBlob string
	Status      string

	QualAccuracy, QualCompleteness, QualConsistency, QualTimeliness, QualRelevance, QualOverall float64
	QualComputedAt                                                                              int64

	EmbeddingModel, ClassifierModel, RerankerModel string
	HasDenseVector, HasSparseVector                bool

	CreatedAt int64
	UpdatedAt int64
	Version   int
}

type resourceParser struct{}

func (resourceParser) ToItem(r *resource.Resource) (map[string]types.AttributeValue, error) {
	q := r.Quality()
	m := r.Models()
	item := resourceItem{
		PK: resourcePK(r.ID().String()), SK: metaSK(), EntityType: entityTypeResource,
		ID: r.ID().String(), Title: r.Title(), Description: r.Description(), Creator: r.Creator(),
		Publisher: r.Publisher(), OriginURL: r.OriginURL(), Language: r.Language(), Type: r.Type(),
		Subjects: r.Subjects(), ClassCode: r.ClassificationCode(), ArchiveBlob: r.ArchiveBlob(),
		Status: string(r.Status()),
		QualAccuracy: q.Accuracy, QualCompleteness: q.Completeness, QualConsistency: q.Consistency,
		QualTimeliness: q.Timeliness, QualRelevance: q.Relevance, QualOverall: q.Overall,
		QualComputedAt:  q.ComputedAt.Unix(),
		EmbeddingModel:  m.EmbeddingModel, ClassifierModel: m.ClassifierModel, RerankerModel: m.RerankerModel,
		HasDenseVector: r.HasDenseVector(), HasSparseVector: r.HasSparseVector(),
		CreatedAt: r.CreatedAt().Unix(), UpdatedAt: r.UpdatedAt().Unix(), Version: r.Version(),
	}
	return attributevalue.MarshalMap(item)
}

func (resourceParser) FromItem(av map[string]types.AttributeValue) (*resource.Resource, error) {
	var item resourceItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, err
	}
	quality := resource.QualityDimensions{
		Accuracy: item.QualAccuracy, Completeness: item.QualCompleteness, Consistency: item.QualConsistency,
		Timeliness: item.QualTimeliness, Relevance: item.QualRelevance, Overall: item.QualOverall,
		ComputedAt: time.Unix(item.QualComputedAt, 0).UTC(),
	}
	models := resource.ModelVersions{EmbeddingModel: item.EmbeddingModel, ClassifierModel: item.ClassifierModel, RerankerModel: item.RerankerModel}
	return resource.Reconstruct(shared.ID(item.ID), item.Title, item.Description, item.Creator, item.Publisher,
		item.OriginURL, item.Language, item.Type, item.Subjects, item.ClassCode, item.ArchiveBlob,
		resource.Status(item.Status), quality, models, item.HasDenseVector, item.HasSparseVector,
		time.Unix(item.CreatedAt, 0).UTC(), time.Unix(item.UpdatedAt, 0).UTC(), item.Version), nil
}

// ResourceRepository is the server-dialect resource.Repository.
type ResourceRepository struct {
	base *BaseRepository[*resource.Resource]
}

func NewResourceRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *ResourceRepository {
	return &ResourceRepository{base: NewBaseRepository[*resource.Resource](client, tableName, logger, resourceParser{})}
}

var _ resource.Repository = (*ResourceRepository)(nil)

func (r *ResourceRepository) Save(ctx context.Context, res *resource.Resource) error {
	return r.base.PutItem(ctx, res)
}

func (r *ResourceRepository) FindByID(ctx context.Context, id shared.ID) (*resource.Resource, error) {
	return r.base.GetItem(ctx, itemKey(resourcePK(id.String()), metaSK()))
}

func (r *ResourceRepository) Delete(ctx context.Context, id shared.ID) error {
	return r.base.DeleteItem(ctx, itemKey(resourcePK(id.String()), metaSK()))
}

// List scans by EntityType via the EntityType GSI, applying the filter
// conditions given, since the partition key (resource id) offers no useful
// query axis for a cross-resource listing.
func (r *ResourceRepository) List(ctx context.Context, filter resource.ListFilter) ([]*resource.Resource, string, error) {
	keyCond := expression.Key("EntityType").Equal(expression.Value(entityTypeResource))
	var cond *expression.ConditionBuilder
	addFilter := func(c expression.ConditionBuilder) {
		if cond == nil {
			cond = &c
		} else {
			combined := cond.And(c)
			cond = &combined
		}
	}
	if filter.Status != nil {
		addFilter(expression.Name("Status").Equal(expression.Value(string(*filter.Status))))
	}
	if filter.ClassificationCode != "" {
		addFilter(expression.Name("ClassCode").Equal(expression.Value(filter.ClassificationCode)))
	}
	if filter.Subject != "" {
		addFilter(expression.Name("Subjects").Contains(filter.Subject))
	}

	limit := int32(filter.Limit)
	if limit <= 0 {
		limit = 50
	}
	items, err := r.base.QueryItems(ctx, keyCond, cond, "EntityTypeIndex", limit)
	if err != nil {
		return nil, "", errorkit.Wrap(errorkit.Upstream, "resource_list", "listing resources failed", err)
	}
	next := ""
	if int32(len(items)) >= limit {
		next = items[len(items)-1].ID().String()
	}
	return items, next, nil
}

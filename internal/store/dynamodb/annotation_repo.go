package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"neo-alexandria/internal/domain/annotation"
	"neo-alexandria/internal/domain/shared"
)

type annotationItem struct {
	PK, SK          string
	EntityType      string
	ID, ResourceID  string
	StartOffset     int
	EndOffset       int
	HighlightedText string
	Note            string
	Tags            []string
	Color           string
	NoteEmbedding   []float32
	Owner           string
	Shared          bool
	CreatedAt       int64
	UpdatedAt       int64
}

type annotationParser struct{}

func (annotationParser) ToItem(a *annotation.Annotation) (map[string]types.AttributeValue, error) {
	item := annotationItem{
		PK: resourcePK(a.ResourceID().String()), SK: annotationSK(a.ID().String()), EntityType: entityTypeAnnotation,
		ID: a.ID().String(), ResourceID: a.ResourceID().String(), StartOffset: a.StartOffset(), EndOffset: a.EndOffset(),
		HighlightedText: a.HighlightedText(), Note: a.Note(), Tags: a.Tags(), Color: a.Color(),
		NoteEmbedding: a.NoteEmbedding(), Owner: a.Owner(), Shared: a.Shared(),
		CreatedAt: a.CreatedAt().Unix(), UpdatedAt: a.UpdatedAt().Unix(),
	}
	return attributevalue.MarshalMap(item)
}

func (annotationParser) FromItem(av map[string]types.AttributeValue) (*annotation.Annotation, error) {
	var item annotationItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, err
	}
	return annotation.Reconstruct(shared.ID(item.ID), shared.ID(item.ResourceID), item.StartOffset, item.EndOffset,
		item.HighlightedText, item.Note, item.Tags, item.Color, item.NoteEmbedding, item.Owner, item.Shared,
		time.Unix(item.CreatedAt, 0).UTC(), time.Unix(item.UpdatedAt, 0).UTC()), nil
}

type AnnotationRepository struct{ base *BaseRepository[*annotation.Annotation] }

func NewAnnotationRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *AnnotationRepository {
	return &AnnotationRepository{base: NewBaseRepository[*annotation.Annotation](client, tableName, logger, annotationParser{})}
}

var _ annotation.Repository = (*AnnotationRepository)(nil)

func (r *AnnotationRepository) Save(ctx context.Context, a *annotation.Annotation) error {
	return r.base.PutItem(ctx, a)
}

func (r *AnnotationRepository) FindByID(ctx context.Context, id shared.ID) (*annotation.Annotation, error) {
	items, err := r.base.QueryItems(ctx, expression.Key("SK").Equal(expression.Value(annotationSK(id.String()))), nil, "SKIndex", 1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

func (r *AnnotationRepository) ListByResource(ctx context.Context, resourceID shared.ID) ([]*annotation.Annotation, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(resourcePK(resourceID.String()))).
		And(expression.Key("SK").BeginsWith("ANNOTATION#"))
	return r.base.QueryItems(ctx, keyCond, nil, "", 0)
}

func (r *AnnotationRepository) Delete(ctx context.Context, id shared.ID) error {
	a, err := r.FindByID(ctx, id)
	if err != nil || a == nil {
		return err
	}
	return r.base.DeleteItem(ctx, itemKey(resourcePK(a.ResourceID().String()), annotationSK(id.String())))
}

func (r *AnnotationRepository) DeleteByResource(ctx context.Context, resourceID shared.ID) error {
	annotations, err := r.ListByResource(ctx, resourceID)
	if err != nil {
		return err
	}
	var requests []types.WriteRequest
	for _, a := range annotations {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{Key: itemKey(resourcePK(resourceID.String()), annotationSK(a.ID().String()))},
		})
	}
	return r.base.BatchWriteItems(ctx, requests)
}

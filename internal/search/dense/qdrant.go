package dense

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/errorkit"
)

// QdrantIndex is the approximate-nearest-neighbor path for corpora beyond
// the exact-search threshold (spec §4.4: "above that, approximate nearest
// neighbor with recall≥0.95 at k=100"), grounded on the teacher pack's
// Qdrant vector-store client usage.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dimensions uint64
}

// NewQdrantIndex connects to host:port and creates the collection (cosine
// distance, dimensions-sized vectors) if it does not already exist.
func NewQdrantIndex(ctx context.Context, host string, port int, collection string, dimensions int) (*QdrantIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, errorkit.Wrap(errorkit.Upstream, "qdrant_connect", "failed to connect to qdrant", err)
	}
	idx := &QdrantIndex{client: client, collection: collection, dimensions: uint64(dimensions)}

	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, errorkit.Wrap(errorkit.Upstream, "qdrant_collection_exists", "failed to check collection", err)
	}
	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     idx.dimensions,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return nil, errorkit.Wrap(errorkit.Upstream, "qdrant_create_collection", "failed to create collection", err)
		}
	}
	return idx, nil
}

var _ Index = (*QdrantIndex)(nil)

func (idx *QdrantIndex) Upsert(ctx context.Context, id shared.ID, vector []float32) error {
	_, err := idx.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: idx.collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(id.String()),
			Vectors: qdrant.NewVectors(vector...),
		}},
	})
	if err != nil {
		return errorkit.Wrap(errorkit.Upstream, "qdrant_upsert", "failed to upsert point", err).WithRetryable(true)
	}
	return nil
}

func (idx *QdrantIndex) Delete(ctx context.Context, id shared.ID) error {
	_, err := idx.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: idx.collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewID(id.String())),
	})
	if err != nil {
		return errorkit.Wrap(errorkit.Upstream, "qdrant_delete", "failed to delete point", err)
	}
	return nil
}

func (idx *QdrantIndex) Get(ctx context.Context, id shared.ID) ([]float32, bool, error) {
	resp, err := idx.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: idx.collection,
		Ids:            []*qdrant.PointId{qdrant.NewID(id.String())},
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, false, errorkit.Wrap(errorkit.Upstream, "qdrant_get", "failed to retrieve point", err)
	}
	if len(resp) == 0 || resp[0].Vectors == nil {
		return nil, false, nil
	}
	dense := resp[0].Vectors.GetVector()
	if dense == nil {
		return nil, false, nil
	}
	return dense.GetData(), true, nil
}

func (idx *QdrantIndex) Search(ctx context.Context, query []float32, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	resp, err := idx.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: idx.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          ptrUint64(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(false),
	})
	if err != nil {
		return nil, errorkit.Wrap(errorkit.Upstream, "qdrant_search", "failed to query points", err)
	}

	results := make([]Result, 0, len(resp))
	for _, p := range resp {
		id, ok := pointIDString(p.Id)
		if !ok {
			continue
		}
		results = append(results, Result{ID: shared.ID(id), Score: float64(p.Score)})
	}
	return results, nil
}

func ptrUint64(v uint64) *uint64 { return &v }

func pointIDString(id *qdrant.PointId) (string, bool) {
	if id == nil {
		return "", false
	}
	switch v := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		return v.Uuid, true
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", v.Num), true
	default:
		return "", false
	}
}

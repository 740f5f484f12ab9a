package vectorindex

import (
	"context"
	"errors"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

type mockPoints struct {
	upserted   *pb.UpsertPoints
	upsertErr  error
	searched   *pb.SearchPoints
	searchResp *pb.SearchResponse
}

func (m *mockPoints) Upsert(_ context.Context, in *pb.UpsertPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	m.upserted = in
	return &pb.PointsOperationResponse{}, m.upsertErr
}

func (m *mockPoints) Search(_ context.Context, in *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	m.searched = in
	return m.searchResp, nil
}

type mockCollections struct {
	existing []string
	created  *pb.CreateCollection
}

func (m *mockCollections) List(context.Context, *pb.ListCollectionsRequest, ...grpc.CallOption) (*pb.ListCollectionsResponse, error) {
	resp := &pb.ListCollectionsResponse{}
	for _, name := range m.existing {
		resp.Collections = append(resp.Collections, &pb.CollectionDescription{Name: name})
	}
	return resp, nil
}

func (m *mockCollections) Create(_ context.Context, in *pb.CreateCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	m.created = in
	return &pb.CollectionOperationResponse{Result: true}, nil
}

// lengthEmbedder maps each text to a 2-d vector derived from its length.
type lengthEmbedder struct{ calls int }

func (e *lengthEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func newTestQdrant(points *mockPoints, cols *mockCollections, emb Embedder) *QdrantIndex {
	return &QdrantIndex{points: points, collections: cols, collection: "articles", dims: 2, embedder: emb}
}

func TestQdrantEnsureCollection(t *testing.T) {
	cols := &mockCollections{existing: []string{"articles"}}
	q := newTestQdrant(&mockPoints{}, cols, &lengthEmbedder{})
	if err := q.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if cols.created != nil {
		t.Fatalf("existing collection should not be recreated")
	}

	cols.existing = nil
	if err := q.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if cols.created == nil || cols.created.GetVectorsConfig().GetParams().GetSize() != 2 {
		t.Fatalf("collection not created with dims: %+v", cols.created)
	}
}

func TestQdrantAddAndQuery(t *testing.T) {
	points := &mockPoints{searchResp: &pb.SearchResponse{Result: []*pb.ScoredPoint{{
		Id:    &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: "id-1"}},
		Score: 0.9,
		Payload: map[string]*pb.Value{
			contentField: stringValue("Troops began to occupy the capital."),
			urlField:     stringValue("https://example.com/a"),
			MetaTitle:    stringValue("Occupation"),
		},
	}}}}
	q := newTestQdrant(points, &mockCollections{}, &lengthEmbedder{})

	d := Document{ID: "id-1", Content: "abc", URL: "https://example.com/a", Metadata: map[string]string{MetaTitle: "Occupation"}}
	if err := q.Add(context.Background(), []Document{d}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := len(points.upserted.GetPoints()); got != 1 {
		t.Fatalf("upserted %d points", got)
	}
	p := points.upserted.GetPoints()[0]
	if p.GetId().GetUuid() != "id-1" || p.GetPayload()[contentField].GetStringValue() != "abc" ||
		p.GetPayload()[urlField].GetStringValue() != "https://example.com/a" {
		t.Fatalf("unexpected point: %+v", p)
	}

	hits, err := q.Query(context.Background(), "capital", 3)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if points.searched.GetLimit() != 3 || points.searched.GetCollectionName() != "articles" {
		t.Fatalf("unexpected search request: %+v", points.searched)
	}
	if len(hits) != 1 || hits[0].Title() != "Occupation" || hits[0].Content == "" || hits[0].Rank != 1 {
		t.Fatalf("unexpected hits: %+v", hits)
	}
	if hits[0].URL != "https://example.com/a" || len(hits[0].Metadata) != 1 {
		t.Fatalf("url should come back as a field, not metadata: %+v", hits[0])
	}
}

func TestQdrantAddErrors(t *testing.T) {
	points := &mockPoints{upsertErr: errors.New("unavailable")}
	q := newTestQdrant(points, &mockCollections{}, &lengthEmbedder{})
	if err := q.Add(context.Background(), []Document{{ID: "x", Content: "y"}}); err == nil {
		t.Fatalf("expected upsert error")
	}
	emb := &lengthEmbedder{}
	q = newTestQdrant(&mockPoints{}, &mockCollections{}, emb)
	if err := q.Add(context.Background(), nil); err != nil || emb.calls != 0 {
		t.Fatalf("empty add should be a no-op")
	}
}

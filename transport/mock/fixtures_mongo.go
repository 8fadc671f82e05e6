package mock

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Fixture is a recorded request/response pair, keyed by an opaque name the
// caller chooses (typically the test case name), for replay across runs.
// Grounded on registry/store/mongo/mongo.go's one-collection,
// document-per-entity persistence shape.
type Fixture struct {
	Name       string `bson:"_id"`
	Method     string `bson:"method"`
	Path       string `bson:"path"`
	Status     int    `bson:"status"`
	Body       []byte `bson:"body"`
	ContentType string `bson:"content_type"`
}

// ErrFixtureNotFound is returned by FixtureStore.Load when name has no
// recorded fixture.
var ErrFixtureNotFound = errors.New("mock: fixture not found")

// FixtureStore persists Fixtures to a MongoDB collection so an integration
// suite can capture a request→response pair once and replay it on later
// runs without the real dependency available.
type FixtureStore struct {
	collection *mongo.Collection
}

// NewFixtureStore wraps collection, which should come from a connected
// MongoDB client.
func NewFixtureStore(collection *mongo.Collection) *FixtureStore {
	return &FixtureStore{collection: collection}
}

// Collection returns the underlying collection, for a caller that wants to
// open a second FixtureStore against the same backing store.
func (s *FixtureStore) Collection() *mongo.Collection { return s.collection }

// Save upserts f under its Name.
func (s *FixtureStore) Save(ctx context.Context, f Fixture) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": f.Name}, f, opts)
	if err != nil {
		return fmt.Errorf("mock: save fixture %q: %w", f.Name, err)
	}
	return nil
}

// Load retrieves the fixture recorded under name.
func (s *FixtureStore) Load(ctx context.Context, name string) (Fixture, error) {
	var f Fixture
	err := s.collection.FindOne(ctx, bson.M{"_id": name}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Fixture{}, ErrFixtureNotFound
	}
	if err != nil {
		return Fixture{}, fmt.Errorf("mock: load fixture %q: %w", name, err)
	}
	return f, nil
}

// RegisterFixture loads name from store and registers it on t as a
// MethodAndPath response, so a recorded run can be replayed without the
// original dependency.
func (t *Transport) RegisterFixture(ctx context.Context, store *FixtureStore, name string) error {
	f, err := store.Load(ctx, name)
	if err != nil {
		return err
	}
	t.RegisterResponse(MethodAndPath(f.Method, f.Path), fixtureResponse(f))
	return nil
}

func fixtureResponse(f Fixture) *http.Response {
	return &http.Response{
		StatusCode: f.Status,
		Proto:      "HTTP/1.1",
		Header:     http.Header{"Content-Type": {f.ContentType}},
		Body:       io.NopCloser(bytes.NewReader(f.Body)),
	}
}

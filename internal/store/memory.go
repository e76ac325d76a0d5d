package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process Store with the same observable semantics as
// the Mongo implementation: equality filters, $set patches, unique indexes
// and serialized transactions. Documents are kept as bson maps so that bson
// struct tags behave identically in both implementations.
type MemoryStore struct {
	mu     sync.Mutex
	docs   map[string][]bson.M
	unique map[string][]string

	// txMu serializes transactions so multi-document sequences cannot
	// interleave.
	txMu sync.Mutex
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		docs:   make(map[string][]bson.M),
		unique: make(map[string][]string),
	}
}

func (s *MemoryStore) Collection(name string) Collection {
	return &memoryCollection{store: s, name: name}
}

func (s *MemoryStore) EnsureUniqueIndex(_ context.Context, collection, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.unique[collection] {
		if f == field {
			return nil
		}
	}
	s.unique[collection] = append(s.unique[collection], field)
	return nil
}

func (s *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

type memoryCollection struct {
	store *MemoryStore
	name  string
}

func (c *memoryCollection) InsertOne(_ context.Context, doc interface{}) (string, error) {
	m, err := toDoc(doc)
	if err != nil {
		return "", err
	}
	if _, ok := m["_id"]; !ok {
		m["_id"] = primitive.NewObjectID()
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	for _, field := range c.store.unique[c.name] {
		v, ok := m[field]
		if !ok {
			continue
		}
		for _, existing := range c.store.docs[c.name] {
			if reflect.DeepEqual(existing[field], v) {
				return "", fmt.Errorf("%w: %s.%s", ErrDuplicateKey, c.name, field)
			}
		}
	}

	c.store.docs[c.name] = append(c.store.docs[c.name], m)
	if oid, ok := m["_id"].(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprintf("%v", m["_id"]), nil
}

func (c *memoryCollection) FindOne(_ context.Context, filter bson.M, out interface{}) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	for _, doc := range c.store.docs[c.name] {
		if matches(doc, filter) {
			return decodeDoc(doc, out)
		}
	}
	return ErrNoDocuments
}

func (c *memoryCollection) Find(_ context.Context, filter bson.M, sortSpec bson.D, out interface{}) error {
	c.store.mu.Lock()
	var matched []bson.M
	for _, doc := range c.store.docs[c.name] {
		if matches(doc, filter) {
			matched = append(matched, doc)
		}
	}
	c.store.mu.Unlock()

	if len(sortSpec) == 1 {
		field := sortSpec[0].Key
		desc := toInt(sortSpec[0].Value) < 0
		sort.SliceStable(matched, func(i, j int) bool {
			if desc {
				return less(matched[j][field], matched[i][field])
			}
			return less(matched[i][field], matched[j][field])
		})
	}

	slicePtr := reflect.ValueOf(out).Elem()
	elemType := slicePtr.Type().Elem()
	result := reflect.MakeSlice(slicePtr.Type(), 0, len(matched))
	for _, doc := range matched {
		ev := reflect.New(elemType)
		if err := decodeDoc(doc, ev.Interface()); err != nil {
			return err
		}
		result = reflect.Append(result, ev.Elem())
	}
	slicePtr.Set(result)
	return nil
}

func (c *memoryCollection) UpdateOne(_ context.Context, filter bson.M, set bson.M) (*UpdateResult, error) {
	patch, err := toDoc(set)
	if err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	for _, doc := range c.store.docs[c.name] {
		if matches(doc, filter) {
			for k, v := range patch {
				doc[k] = v
			}
			return &UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return &UpdateResult{}, nil
}

func (c *memoryCollection) DeleteOne(_ context.Context, filter bson.M) (int64, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	docs := c.store.docs[c.name]
	for i, doc := range docs {
		if matches(doc, filter) {
			c.store.docs[c.name] = append(docs[:i:i], docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// toDoc normalizes a document or patch through a bson round trip so stored
// values carry the same types the Mongo driver would produce.
func toDoc(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeDoc(m bson.M, out interface{}) error {
	raw, err := bson.Marshal(m)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

func matches(doc, filter bson.M) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(got, normalize(want)) {
			return false
		}
	}
	return true
}

// normalize maps filter values onto the types a bson round trip produces.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case int:
		return int32(t)
	default:
		return v
	}
}

func less(a, b interface{}) bool {
	switch av := a.(type) {
	case primitive.DateTime:
		bv, ok := b.(primitive.DateTime)
		return ok && av < bv
	case string:
		bv, ok := b.(string)
		return ok && av < bv
	case int32:
		return float64(av) < toFloat(b)
	case int64:
		return float64(av) < toFloat(b)
	case float64:
		return av < toFloat(b)
	}
	return false
}

func toFloat(v interface{}) float64 {
	switch t := v.(type) {
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case float64:
		return t
	}
	return 0
}

func toInt(v interface{}) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	}
	return 0
}

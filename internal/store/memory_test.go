package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type entry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	Amount    float64            `bson:"amount"`
	CreatedAt time.Time          `bson:"created_at"`
}

func TestMemoryInsertAndFindOne(t *testing.T) {
	ctx := context.Background()
	col := NewMemory().Collection("entries")

	id, err := col.InsertOne(ctx, &entry{Email: "a@x.com", Amount: 10})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	var got entry
	require.NoError(t, col.FindOne(ctx, bson.M{"email": "a@x.com"}, &got))
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, 10.0, got.Amount)
	assert.False(t, got.ID.IsZero())

	err = col.FindOne(ctx, bson.M{"email": "missing@x.com"}, &got)
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestMemoryFindOneByObjectID(t *testing.T) {
	ctx := context.Background()
	col := NewMemory().Collection("entries")

	doc := &entry{ID: primitive.NewObjectID(), Email: "a@x.com"}
	_, err := col.InsertOne(ctx, doc)
	require.NoError(t, err)

	var got entry
	require.NoError(t, col.FindOne(ctx, bson.M{"_id": doc.ID}, &got))
	assert.Equal(t, doc.ID, got.ID)
}

func TestMemoryUniqueIndex(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	require.NoError(t, st.EnsureUniqueIndex(ctx, "entries", "email"))
	col := st.Collection("entries")

	_, err := col.InsertOne(ctx, &entry{Email: "a@x.com"})
	require.NoError(t, err)

	_, err = col.InsertOne(ctx, &entry{Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	_, err = col.InsertOne(ctx, &entry{Email: "b@x.com"})
	assert.NoError(t, err)
}

func TestMemoryFindSortDescending(t *testing.T) {
	ctx := context.Background()
	col := NewMemory().Collection("entries")

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 3; i++ {
		_, err := col.InsertOne(ctx, &entry{Email: "a@x.com", Amount: float64(i), CreatedAt: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}

	var got []entry
	require.NoError(t, col.Find(ctx, bson.M{"email": "a@x.com"}, bson.D{{Key: "created_at", Value: -1}}, &got))
	require.Len(t, got, 3)
	assert.Equal(t, 2.0, got[0].Amount)
	assert.Equal(t, 0.0, got[2].Amount)
}

func TestMemoryUpdateOne(t *testing.T) {
	ctx := context.Background()
	col := NewMemory().Collection("entries")

	_, err := col.InsertOne(ctx, &entry{Email: "a@x.com", Amount: 1})
	require.NoError(t, err)

	res, err := col.UpdateOne(ctx, bson.M{"email": "a@x.com"}, bson.M{"amount": 2.0})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.MatchedCount)

	var got entry
	require.NoError(t, col.FindOne(ctx, bson.M{"email": "a@x.com"}, &got))
	assert.Equal(t, 2.0, got.Amount)

	res, err = col.UpdateOne(ctx, bson.M{"email": "missing@x.com"}, bson.M{"amount": 3.0})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.MatchedCount)
	assert.Equal(t, int64(0), res.ModifiedCount)
}

func TestMemoryDeleteOne(t *testing.T) {
	ctx := context.Background()
	col := NewMemory().Collection("entries")

	_, err := col.InsertOne(ctx, &entry{Email: "a@x.com"})
	require.NoError(t, err)

	n, err := col.DeleteOne(ctx, bson.M{"email": "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = col.DeleteOne(ctx, bson.M{"email": "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestMemoryWithTransaction(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	col := st.Collection("entries")

	err := st.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := col.InsertOne(ctx, &entry{Email: "a@x.com"})
		return err
	})
	require.NoError(t, err)

	var got entry
	assert.NoError(t, col.FindOne(ctx, bson.M{"email": "a@x.com"}, &got))
}

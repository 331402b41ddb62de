package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
)

// newTestStore returns a store whose clock advances one second per call.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(db.NewTestDB(t))
	clock := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func TestCreateAndGetItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item, err := s.Create(ctx, model.Item{Name: "Laptop", Description: null.StringFrom("Dell XPS 15"), Quantity: 2, Price: 999.99})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, "Laptop", item.Name)
	assert.Equal(t, null.StringFrom("Dell XPS 15"), item.Description)
	assert.Equal(t, int64(2), item.Quantity)
	assert.InDelta(t, 999.99, item.Price, 1e-9)
	assert.False(t, item.Photo.Valid)
	assert.True(t, item.CreatedAt.Equal(item.UpdatedAt), "created_at %v != updated_at %v", item.CreatedAt, item.UpdatedAt)

	got, err := s.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Name, got.Name)
	assert.True(t, got.CreatedAt.Equal(item.CreatedAt))
}

func TestCreateDefaults(t *testing.T) {
	s := newTestStore(t)

	item, err := s.Create(context.Background(), model.Item{Name: "Widget"})
	require.NoError(t, err)
	assert.Zero(t, item.Quantity)
	assert.Zero(t, item.Price)
	assert.False(t, item.Description.Valid)
	assert.False(t, item.Photo.Valid)
}

func TestCreateRequiresName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, model.Item{Name: ""})
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name", verr.Field)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "no row may be created")
}

func TestIDsAreNotReused(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _ := s.Create(ctx, model.Item{Name: "A"})
	require.NoError(t, s.Delete(ctx, a.ID))
	b, err := s.Create(ctx, model.Item{Name: "B"})
	require.NoError(t, err)
	assert.Greater(t, b.ID, a.ID)
}

func TestListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	a, _ := s.Create(ctx, model.Item{Name: "A"})
	b, _ := s.Create(ctx, model.Item{Name: "B"})

	items, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, b.ID, items[0].ID)
	assert.Equal(t, a.ID, items[1].ID)
}

func TestListSameTimestampFallsBackToID(t *testing.T) {
	s := New(db.NewTestDB(t))
	fixed := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return fixed }
	ctx := context.Background()

	a, _ := s.Create(ctx, model.Item{Name: "A"})
	b, _ := s.Create(ctx, model.Item{Name: "B"})

	items, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, b.ID, items[0].ID)
	assert.Equal(t, a.ID, items[1].ID)
}

func TestUpdateQuantityOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item, _ := s.Create(ctx, model.Item{Name: "Widget", Description: null.StringFrom("blue"), Quantity: 1, Price: 2.5})
	item, _ = s.SetPhoto(ctx, item.ID, "/uploads/1-widget.png")

	updated, err := s.Update(ctx, item.ID, model.ItemPatch{Quantity: null.Int64From(5)})
	require.NoError(t, err)
	assert.Equal(t, int64(5), updated.Quantity)
	assert.Equal(t, item.Name, updated.Name)
	assert.Equal(t, item.Description, updated.Description)
	assert.Equal(t, item.Price, updated.Price)
	assert.Equal(t, item.Photo, updated.Photo)
	assert.True(t, updated.CreatedAt.Equal(item.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(item.UpdatedAt), "updated_at must move forward")
}

func TestUpdateAllFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item, _ := s.Create(ctx, model.Item{Name: "Widget"})
	updated, err := s.Update(ctx, item.ID, model.ItemPatch{
		Name:        null.StringFrom("Gadget"),
		Description: null.StringFrom("red"),
		Quantity:    null.Int64From(4),
		Price:       null.Float64From(1.25),
	})
	require.NoError(t, err)
	assert.Equal(t, "Gadget", updated.Name)
	assert.Equal(t, null.StringFrom("red"), updated.Description)
	assert.Equal(t, int64(4), updated.Quantity)
	assert.InDelta(t, 1.25, updated.Price, 1e-9)
}

func TestUpdateRejectsInvalidPatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item, _ := s.Create(ctx, model.Item{Name: "Widget", Quantity: 3})
	_, err := s.Update(ctx, item.ID, model.ItemPatch{Quantity: null.Int64From(-1)})
	var verr *model.ValidationError
	assert.True(t, errors.As(err, &verr))

	got, _ := s.Get(ctx, item.ID)
	assert.Equal(t, int64(3), got.Quantity)
}

func TestSetPhotoOnlyTouchesPhoto(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item, _ := s.Create(ctx, model.Item{Name: "Photo Item", Quantity: 2})
	updated, err := s.SetPhoto(ctx, item.ID, "/uploads/2-photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, null.StringFrom("/uploads/2-photo.jpg"), updated.Photo)
	assert.Equal(t, item.Name, updated.Name)
	assert.Equal(t, item.Quantity, updated.Quantity)
	assert.True(t, updated.UpdatedAt.After(item.UpdatedAt))

	cleared, err := s.SetPhoto(ctx, item.ID, "")
	require.NoError(t, err)
	assert.False(t, cleared.Photo.Valid)
}

func TestDeleteItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item, _ := s.Create(ctx, model.Item{Name: "Delete Me"})
	require.NoError(t, s.Delete(ctx, item.ID))

	_, err := s.Get(ctx, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMissingIDIsNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	const missing = 4242

	_, err := s.Get(ctx, missing)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Update(ctx, missing, model.ItemPatch{Quantity: null.Int64From(1)})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.SetPhoto(ctx, missing, "/uploads/x.png")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, missing), ErrNotFound)
}

func TestPing(t *testing.T) {
	s := newTestStore(t)

	now, err := s.Ping(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, now)
}

func TestPingClosedDatabase(t *testing.T) {
	s := newTestStore(t)
	s.DB.Close()

	_, err := s.Ping(context.Background())
	assert.Error(t, err)
}

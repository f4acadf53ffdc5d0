package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwikikusuma/shopmesh/internal/cart/app"
	"github.com/dwikikusuma/shopmesh/internal/cart/domain"
	"github.com/dwikikusuma/shopmesh/internal/cart/infra/memory"
)

func TestAddItemMergesQuantity(t *testing.T) {
	ctx := context.Background()
	svc := app.NewService(memory.NewCartRepo())

	_, err := svc.AddItem(ctx, 1, 7, 3)
	require.NoError(t, err)
	c, err := svc.AddItem(ctx, 1, 7, 2)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(7), c.Items[0].ProductID)
	assert.Equal(t, int32(5), c.Items[0].Quantity)
	assert.Equal(t, int64(1), c.UserID)
}

func TestQuantityValidationLeavesStateAlone(t *testing.T) {
	ctx := context.Background()
	svc := app.NewService(memory.NewCartRepo())

	_, err := svc.AddItem(ctx, 1, 7, 2)
	require.NoError(t, err)

	for _, q := range []int32{0, -1} {
		_, err := svc.AddItem(ctx, 1, 7, q)
		assert.ErrorIs(t, err, app.ErrInvalidArgument)
		_, err = svc.UpdateItemQuantity(ctx, 1, 7, q)
		assert.ErrorIs(t, err, app.ErrInvalidArgument)
	}

	c, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, int32(2), c.Items[0].Quantity)
}

func TestUpdateItemQuantityReplaces(t *testing.T) {
	ctx := context.Background()
	svc := app.NewService(memory.NewCartRepo())

	_, err := svc.UpdateItemQuantity(ctx, 1, 7, 4)
	assert.ErrorIs(t, err, app.ErrNotFound)

	_, err = svc.AddItem(ctx, 1, 7, 2)
	require.NoError(t, err)
	c, err := svc.UpdateItemQuantity(ctx, 1, 7, 4)
	require.NoError(t, err)
	assert.Equal(t, int32(4), c.Items[0].Quantity)
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := app.NewService(memory.NewCartRepo())

	before, err := svc.AddItem(ctx, 1, 7, 1)
	require.NoError(t, err)

	after, err := svc.RemoveItem(ctx, 1, 99)
	require.NoError(t, err)
	assert.Equal(t, before.Items, after.Items)

	after, err = svc.RemoveItem(ctx, 1, 7)
	require.NoError(t, err)
	assert.Empty(t, after.Items)

	// a user with no cart yet gets an empty one
	c, err := svc.RemoveItem(ctx, 2, 7)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestClearAndDeleteCart(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCartRepo()
	svc := app.NewService(repo)

	_, err := svc.AddItem(ctx, 1, 7, 1)
	require.NoError(t, err)
	c, err := svc.AddItem(ctx, 1, 8, 1)
	require.NoError(t, err)

	cleared, err := svc.ClearCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, cleared.Items)
	assert.Equal(t, c.ID, cleared.ID)

	require.NoError(t, svc.DeleteCart(ctx, c.ID))
	_, err = svc.GetCartByID(ctx, c.ID)
	assert.ErrorIs(t, err, app.ErrNotFound)
	require.NoError(t, svc.DeleteCart(ctx, c.ID))
}

func TestReplaceItems(t *testing.T) {
	ctx := context.Background()
	svc := app.NewService(memory.NewCartRepo())

	c, err := svc.AddItem(ctx, 1, 7, 1)
	require.NoError(t, err)

	c, err = svc.ReplaceItems(ctx, c.ID, []domain.LineItem{{ProductID: 8, Quantity: 2}, {ProductID: 9, Quantity: 1}})
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	_, has7 := c.Item(7)
	assert.False(t, has7)

	_, err = svc.ReplaceItems(ctx, c.ID, []domain.LineItem{{ProductID: 8, Quantity: 1}, {ProductID: 8, Quantity: 1}})
	assert.ErrorIs(t, err, app.ErrInvalidArgument)

	_, err = svc.ReplaceItems(ctx, 999, nil)
	assert.ErrorIs(t, err, app.ErrNotFound)
}

// racingRepo makes another writer win the create race.
type racingRepo struct {
	*memory.CartRepo
	creates int
}

func (r *racingRepo) Create(ctx context.Context, userID int64) (domain.Cart, error) {
	r.creates++
	if _, err := r.CartRepo.Create(ctx, userID); err != nil {
		return domain.Cart{}, err
	}
	return domain.Cart{}, app.ErrConflict
}

func TestEnsureCartRereadsAfterConflict(t *testing.T) {
	ctx := context.Background()
	repo := &racingRepo{CartRepo: memory.NewCartRepo()}
	svc := app.NewService(repo)

	c, err := svc.EnsureCart(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), c.UserID)
	assert.NotZero(t, c.ID)
	assert.Equal(t, 1, repo.creates)

	_, err = svc.EnsureCart(ctx, 0)
	assert.ErrorIs(t, err, app.ErrInvalidArgument)
}

type stubStock struct {
	avail app.Availability
	err   error
	asked []int32
}

func (s *stubStock) CheckAvailability(ctx context.Context, productID int64, quantity int32) (app.Availability, error) {
	s.asked = append(s.asked, quantity)
	return s.avail, s.err
}

func TestStockCheckGuardsMutations(t *testing.T) {
	ctx := context.Background()

	t.Run("checks resulting quantity", func(t *testing.T) {
		stock := &stubStock{avail: app.Availability{Available: true}}
		svc := app.NewService(memory.NewCartRepo(), app.WithStockChecker(stock))

		_, err := svc.AddItem(ctx, 1, 7, 3)
		require.NoError(t, err)
		_, err = svc.AddItem(ctx, 1, 7, 2)
		require.NoError(t, err)
		assert.Equal(t, []int32{3, 5}, stock.asked)
	})

	t.Run("unavailable rejects without writing", func(t *testing.T) {
		stock := &stubStock{avail: app.Availability{Available: false, Message: "Not enough stock. Available: 1, requested: 3"}}
		svc := app.NewService(memory.NewCartRepo(), app.WithStockChecker(stock))

		_, err := svc.AddItem(ctx, 1, 7, 3)
		require.ErrorIs(t, err, app.ErrInsufficientStock)
		assert.Contains(t, err.Error(), "Available: 1")

		c, err := svc.GetCart(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, c.Items)
	})

	t.Run("transport failure is not a stock answer", func(t *testing.T) {
		stock := &stubStock{err: app.ErrDependencyUnavailable}
		svc := app.NewService(memory.NewCartRepo(), app.WithStockChecker(stock))

		_, err := svc.AddItem(ctx, 1, 7, 1)
		require.True(t, errors.Is(err, app.ErrDependencyUnavailable))
		assert.False(t, errors.Is(err, app.ErrInsufficientStock))
	})
}

package stock

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/posorder/internal/domain/errors"
	"github.com/polkiloo/posorder/internal/domain/model"
	"github.com/polkiloo/posorder/internal/test"
)

func newStore(t *testing.T) (*test.OrderStoreStub, int64) {
	t.Helper()
	store := test.NewOrderStoreStub()
	store.AddProduct(1, 7, "10.00")
	order, err := store.CreateOrder(context.Background(), "cust", "seller", decimal.Zero)
	require.NoError(t, err)
	// line holds 2 of 7 units, leaving 5 in stock
	line, err := store.CreateLine(context.Background(), order.ID, 1, 2)
	require.NoError(t, err)
	require.Equal(t, 5, store.Stock(1))
	return store, line.ID
}

func TestValidateBoundaries(t *testing.T) {
	store, lineID := newStore(t)
	v := NewValidator(store, store, DefaultCriticalThreshold, nil, nil)
	ctx := context.Background()

	res := v.Validate(ctx, model.StockRequest{ProductID: 1, Quantity: 5})
	assert.True(t, res.IsValid)
	assert.True(t, res.IsCritical)
	assert.Equal(t, 5, res.CurrentStock)
	assert.Equal(t, 5, res.AvailableStock)
	assert.Equal(t, model.StockReasonOK, res.Reason)
	assert.NoError(t, ResultError(res))

	res = v.Validate(ctx, model.StockRequest{ProductID: 1, Quantity: 6})
	assert.False(t, res.IsValid)
	assert.False(t, res.IsCritical)
	assert.Equal(t, model.StockReasonInsufficient, res.Reason)
	assert.Contains(t, res.Message, "only 5 units")
	assert.Equal(t, "reduce quantity to 5", res.RecommendedAction)
	assert.ErrorIs(t, ResultError(res), domainErrors.ErrInsufficientStock)

	res = v.Validate(ctx, model.StockRequest{ProductID: 1, Quantity: 7, ExistingLineID: &lineID})
	assert.True(t, res.IsValid)
	assert.Equal(t, 5, res.CurrentStock)
	assert.Equal(t, 7, res.AvailableStock)
	assert.True(t, res.IsCritical)

	res = v.Validate(ctx, model.StockRequest{ProductID: 1, Quantity: 8, ExistingLineID: &lineID})
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Message, "only 7 units")
}

func TestValidateNotCriticalAboveThreshold(t *testing.T) {
	v := NewValidator(test.CatalogStub{StockFn: func(context.Context, int64) (int, error) { return 10, nil }}, nil, 3, nil, nil)

	res := v.Validate(context.Background(), model.StockRequest{ProductID: 3, Quantity: 6})
	assert.True(t, res.IsValid)
	assert.False(t, res.IsCritical)
	assert.Empty(t, res.Message)

	res = v.Validate(context.Background(), model.StockRequest{ProductID: 3, Quantity: 7})
	assert.True(t, res.IsCritical)
}

func TestValidateDecreaseNeverRejected(t *testing.T) {
	store, lineID := newStore(t)
	store.AddProduct(1, 0, "10.00")
	v := NewValidator(store, store, DefaultCriticalThreshold, nil, nil)

	res := v.Validate(context.Background(), model.StockRequest{ProductID: 1, Quantity: 1, ExistingLineID: &lineID})
	assert.True(t, res.IsValid, "decrease to 1 of a line holding 2 must be valid: %+v", res)
}

func TestValidateUnknownAvailability(t *testing.T) {
	catalog := test.CatalogStub{StockFn: func(context.Context, int64) (int, error) {
		return 0, errors.New("dial tcp: connection refused")
	}}
	v := NewValidator(catalog, nil, 3, nil, nil)

	res := v.Validate(context.Background(), model.StockRequest{ProductID: 9, Quantity: 1})
	assert.False(t, res.IsValid)
	assert.Equal(t, model.StockReasonUnknownAvailability, res.Reason)
	assert.Equal(t, "retry later", res.RecommendedAction)

	err := ResultError(res)
	assert.ErrorIs(t, err, domainErrors.ErrUnknownAvailability)
	assert.True(t, domainErrors.IsRetryable(err))
}

func TestValidateLineLookupFailure(t *testing.T) {
	store, lineID := newStore(t)
	store.FailOnce["GetLine"] = errors.New("timeout")
	v := NewValidator(store, store, 3, nil, nil)

	res := v.Validate(context.Background(), model.StockRequest{ProductID: 1, Quantity: 1, ExistingLineID: &lineID})
	assert.False(t, res.IsValid)
	assert.Equal(t, model.StockReasonUnknownAvailability, res.Reason)
}

func TestValidateUnknownProductAndQuantity(t *testing.T) {
	store := test.NewOrderStoreStub()
	v := NewValidator(store, store, 3, nil, nil)

	res := v.Validate(context.Background(), model.StockRequest{ProductID: 404, Quantity: 1})
	assert.False(t, res.IsValid)
	assert.Equal(t, model.StockReasonUnknownProduct, res.Reason)
	assert.ErrorIs(t, ResultError(res), domainErrors.ErrNotFound)

	res = v.Validate(context.Background(), model.StockRequest{ProductID: 404, Quantity: 0})
	assert.False(t, res.IsValid)
	assert.Equal(t, model.StockReasonInvalidQuantity, res.Reason)
	assert.ErrorIs(t, ResultError(res), domainErrors.ErrInvalidQuantity)
}

func TestValidateZeroStockRecommendsRemoval(t *testing.T) {
	v := NewValidator(test.CatalogStub{StockFn: func(context.Context, int64) (int, error) { return 0, nil }}, nil, 3, nil, nil)

	res := v.Validate(context.Background(), model.StockRequest{ProductID: 2, Quantity: 1})
	assert.False(t, res.IsValid)
	assert.True(t, strings.HasPrefix(res.Message, "only 0 units"))
	assert.Equal(t, "remove the product from the order", res.RecommendedAction)
}

func TestValidateManyEvaluatesEveryRequest(t *testing.T) {
	var calls atomic.Int32
	catalog := test.CatalogStub{StockFn: func(_ context.Context, id int64) (int, error) {
		calls.Add(1)
		switch id {
		case 1:
			return 0, nil
		case 2:
			return 0, errors.New("catalog down")
		default:
			return 20, nil
		}
	}}
	v := NewValidator(catalog, nil, 3, nil, nil)

	batch := v.ValidateMany(context.Background(), []model.StockRequest{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 1},
		{ProductID: 3, Quantity: 4},
		{ProductID: 4, Quantity: 1},
	})

	assert.EqualValues(t, 4, calls.Load())
	assert.Len(t, batch.Results, 4)
	assert.Equal(t, 2, batch.TotalValid)
	assert.Equal(t, 2, batch.TotalInvalid)
	assert.False(t, batch.AllValid)
	assert.Equal(t, model.StockReasonInsufficient, batch.Results[1].Reason)
	assert.Equal(t, model.StockReasonUnknownAvailability, batch.Results[2].Reason)
	assert.True(t, batch.Results[3].IsValid)
}

func TestValidateManyMergesSameProduct(t *testing.T) {
	store, lineID := newStore(t)
	v := NewValidator(store, store, 3, nil, nil)

	batch := v.ValidateMany(context.Background(), []model.StockRequest{
		{ProductID: 1, Quantity: 2, ExistingLineID: &lineID},
		{ProductID: 1, Quantity: 5},
	})

	require.Len(t, batch.Results, 1)
	res := batch.Results[1]
	assert.Equal(t, 7, res.Requested)
	assert.Equal(t, 7, res.AvailableStock)
	assert.True(t, batch.AllValid)
}

func TestValidateManyEmpty(t *testing.T) {
	v := NewValidator(test.CatalogStub{}, nil, 3, nil, nil)
	batch := v.ValidateMany(context.Background(), nil)
	assert.True(t, batch.AllValid)
	assert.Empty(t, batch.Results)
}

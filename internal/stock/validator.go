// Package stock implements the best-effort stock pre-check run before cart mutations.
// The record store performs the authoritative decrement.
package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	domainErrors "github.com/polkiloo/posorder/internal/domain/errors"
	"github.com/polkiloo/posorder/internal/domain/model"
	"github.com/polkiloo/posorder/internal/domain/repository"
	"github.com/polkiloo/posorder/internal/metrics"
)

const (
	// DefaultCriticalThreshold is the remaining stock at or below which a valid request is critical.
	DefaultCriticalThreshold = 3
	defaultBatchConcurrency  = 8
)

// LineReader loads an existing order line so its held quantity can be added back.
type LineReader interface {
	GetLine(ctx context.Context, lineID int64) (*model.Line, error)
}

// Validator checks requested quantities against catalog stock.
type Validator struct {
	catalog     repository.Catalog
	lines       LineReader
	threshold   int
	concurrency int
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// NewValidator constructs a validator. A negative threshold falls back to the default.
func NewValidator(catalog repository.Catalog, lines LineReader, threshold int, logger *slog.Logger, m *metrics.Metrics) *Validator {
	if threshold < 0 {
		threshold = DefaultCriticalThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		catalog:     catalog,
		lines:       lines,
		threshold:   threshold,
		concurrency: defaultBatchConcurrency,
		logger:      logger,
		metrics:     m,
	}
}

// Validate checks a single request. It never fails: an unreachable catalog yields an invalid
// result with StockReasonUnknownAvailability.
func (v *Validator) Validate(ctx context.Context, req model.StockRequest) model.StockValidation {
	var held []int64
	if req.ExistingLineID != nil {
		held = []int64{*req.ExistingLineID}
	}
	return v.validate(ctx, req.ProductID, req.Quantity, held)
}

// ValidateMany checks every request concurrently and reports all results.
// Requests for the same product are merged: quantities are summed and every referenced
// line contributes its held quantity.
func (v *Validator) ValidateMany(ctx context.Context, reqs []model.StockRequest) model.BatchValidation {
	type group struct {
		productID int64
		quantity  int
		lineIDs   []int64
	}

	index := make(map[int64]int, len(reqs))
	groups := make([]*group, 0, len(reqs))
	for _, r := range reqs {
		i, ok := index[r.ProductID]
		if !ok {
			i = len(groups)
			index[r.ProductID] = i
			groups = append(groups, &group{productID: r.ProductID})
		}
		g := groups[i]
		g.quantity += r.Quantity
		if r.ExistingLineID != nil {
			g.lineIDs = append(g.lineIDs, *r.ExistingLineID)
		}
	}

	results := make([]model.StockValidation, len(groups))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(v.concurrency)
	for i, g := range groups {
		eg.Go(func() error {
			results[i] = v.validate(egCtx, g.productID, g.quantity, g.lineIDs)
			return nil
		})
	}
	_ = eg.Wait()

	batch := model.BatchValidation{
		Results:  make(map[int64]model.StockValidation, len(results)),
		AllValid: true,
	}
	for _, res := range results {
		batch.Results[res.ProductID] = res
		if res.IsValid {
			batch.TotalValid++
		} else {
			batch.TotalInvalid++
			batch.AllValid = false
		}
	}
	return batch
}

func (v *Validator) validate(ctx context.Context, productID int64, quantity int, lineIDs []int64) model.StockValidation {
	res := model.StockValidation{ProductID: productID, Requested: quantity}
	defer func() { v.metrics.StockValidated(string(res.Reason)) }()

	if quantity < 1 {
		res.Reason = model.StockReasonInvalidQuantity
		res.Message = fmt.Sprintf("quantity must be at least 1, got %d", quantity)
		res.RecommendedAction = "enter a positive quantity"
		return res
	}

	stock, err := v.catalog.ProductStock(ctx, productID)
	if err != nil {
		return v.failed(res, err)
	}

	held := 0
	for _, id := range lineIDs {
		line, err := v.lines.GetLine(ctx, id)
		if errors.Is(err, domainErrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return v.failed(res, err)
		}
		if line.ProductID == productID {
			held += line.Quantity
		}
	}

	available := stock + held
	if available < 0 {
		available = 0
	}
	res.CurrentStock = stock
	res.AvailableStock = available

	if quantity > available {
		res.Reason = model.StockReasonInsufficient
		res.Message = fmt.Sprintf("only %d units of product %d available, %d requested", available, productID, quantity)
		if available == 0 {
			res.RecommendedAction = "remove the product from the order"
		} else {
			res.RecommendedAction = fmt.Sprintf("reduce quantity to %d", available)
		}
		return res
	}

	res.IsValid = true
	res.Reason = model.StockReasonOK
	if remaining := available - quantity; remaining <= v.threshold {
		res.IsCritical = true
		res.Message = fmt.Sprintf("%d units of product %d left after this sale", remaining, productID)
		res.RecommendedAction = "request restock"
	}
	return res
}

func (v *Validator) failed(res model.StockValidation, err error) model.StockValidation {
	if errors.Is(err, domainErrors.ErrNotFound) {
		res.Reason = model.StockReasonUnknownProduct
		res.Message = fmt.Sprintf("product %d does not exist", res.ProductID)
		res.RecommendedAction = "check the product id"
		return res
	}

	v.logger.Warn("stock lookup failed",
		slog.Int64("product_id", res.ProductID),
		slog.String("error", err.Error()),
	)
	res.Reason = model.StockReasonUnknownAvailability
	res.Message = fmt.Sprintf("stock of product %d could not be checked", res.ProductID)
	res.RecommendedAction = "retry later"
	return res
}

// ResultError maps an invalid result to its error kind. Valid results map to nil.
func ResultError(res model.StockValidation) error {
	if res.IsValid {
		return nil
	}
	var kind error
	switch res.Reason {
	case model.StockReasonUnknownAvailability:
		kind = domainErrors.ErrUnknownAvailability
	case model.StockReasonUnknownProduct:
		kind = domainErrors.ErrNotFound
	case model.StockReasonInvalidQuantity:
		kind = domainErrors.ErrInvalidQuantity
	default:
		kind = domainErrors.ErrInsufficientStock
	}
	return fmt.Errorf("%s: %w", res.Message, kind)
}

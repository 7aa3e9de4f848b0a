package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/posorder/internal/cart"
	domainErrors "github.com/polkiloo/posorder/internal/domain/errors"
	"github.com/polkiloo/posorder/internal/server/http/dto"
)

const retryAfterSeconds = "1"

func statusFor(err error) int {
	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainErrors.ErrIllegalTransition),
		errors.Is(err, domainErrors.ErrInvalidStateForOperation),
		errors.Is(err, domainErrors.ErrOrderNotEditable),
		errors.Is(err, domainErrors.ErrStaleOrder),
		errors.Is(err, domainErrors.ErrMutationPending),
		errors.Is(err, domainErrors.ErrEmptyOrder):
		return http.StatusConflict
	case errors.Is(err, domainErrors.ErrDiscountOutOfRange),
		errors.Is(err, domainErrors.ErrInvalidQuantity),
		errors.Is(err, domainErrors.ErrInsufficientStock),
		errors.Is(err, domainErrors.ErrInvalidOrderNumber):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainErrors.ErrRecordStoreUnavailable),
		errors.Is(err, domainErrors.ErrUnknownAvailability),
		errors.Is(err, domainErrors.ErrRateLimited),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with the confirmed order and any stock report from out.
func writeError(c *gin.Context, err error, out *cart.Outcome) {
	status := statusFor(err)
	retryable := domainErrors.IsRetryable(err)
	if retryable {
		c.Header("Retry-After", retryAfterSeconds)
	}
	_ = c.Error(err)

	body := dto.ErrorResponse{Error: err.Error(), Retryable: retryable}
	if status == http.StatusInternalServerError {
		body.Error = http.StatusText(status)
	}
	if out != nil {
		if out.Order != nil {
			order := toOrderResponse(*out.Order)
			body.Order = &order
		}
		if out.Validation != nil {
			v := toStockValidationResponse(*out.Validation)
			body.Validation = &v
		}
		if out.Batch != nil {
			b := toBatchValidationResponse(*out.Batch)
			body.Batch = &b
		}
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg})
}

package httpapi

import (
	"errors"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/gofiber/fiber/v2"
)

// MapErrorToHTTP maps domain and service errors to an HTTP status code and a
// client facing message.
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrBidTooLow),
		errors.Is(err, domain.ErrAuctionClosed),
		errors.Is(err, domain.ErrSelfBid),
		errors.Is(err, domain.ErrUnknownUser),
		errors.Is(err, domain.ErrInvalidID):
		return fiber.StatusBadRequest, domain.PublicMessage(err)
	case errors.Is(err, domain.ErrAuctionNotFound), errors.Is(err, domain.ErrNoWinningBid):
		return fiber.StatusNotFound, domain.PublicMessage(err)
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, domain.PublicMessage(err)
	case errors.Is(err, domain.ErrTransient):
		return fiber.StatusServiceUnavailable, domain.PublicMessage(err)
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}

// ErrorResponse is the body of every rejected request.
type ErrorResponse struct {
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

func writeError(c *fiber.Ctx, err error) error {
	status, message := MapErrorToHTTP(err)
	return c.Status(status).JSON(ErrorResponse{
		Reason: domain.Reason(err),
		Error:  message,
	})
}

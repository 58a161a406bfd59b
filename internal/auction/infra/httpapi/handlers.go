// Package httpapi is the fiber binding of the auction module: REST endpoints
// for bids and per-user views plus the websocket upgrade route.
package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/cristianortiz/auctionEase/internal/auction/application"
	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	auctionws "github.com/cristianortiz/auctionEase/internal/auction/infra/websocket"
	"github.com/cristianortiz/auctionEase/internal/shared/auth"
	"github.com/cristianortiz/auctionEase/internal/shared/logger"
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// PlaceBidRequest is the body of POST /api/auctions/:id/bids. The amount is
// accepted as a JSON number or a decimal string.
type PlaceBidRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

// BidResponse is the accepted bid.
type BidResponse struct {
	ID        uuid.UUID       `json:"id"`
	AuctionID uuid.UUID       `json:"auction_id"`
	BidderID  uuid.UUID       `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	IsWinning bool            `json:"is_winning"`
	Timestamp string          `json:"timestamp"`
}

// AuctionHandler serves the auction REST endpoints.
type AuctionHandler struct {
	service application.AuctionService
}

func NewAuctionHandler(service application.AuctionService) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// RegisterRoutes mounts the auction endpoints on app. ws may be nil, in which
// case no websocket route is exposed.
func RegisterRoutes(app fiber.Router, h *AuctionHandler, jwt *auth.JWTManager, ws *auctionws.AuctionWSHandler) {
	requireAuth := auth.RequireAuth(jwt)

	api := app.Group("/api")
	api.Post("/auctions/:id/bids", requireAuth, h.PlaceBid)
	api.Get("/auctions/:id/winning-bid", h.GetWinningBid)
	api.Get("/auctions/:id/bids", h.GetBidHistory)
	api.Get("/auctions/:id", h.GetAuctionState)

	me := api.Group("/me", requireAuth)
	me.Get("/bids", h.ListBidded)
	me.Get("/winning", h.ListWinning)
	me.Get("/sold", h.ListSold)

	if ws != nil {
		app.Get("/ws/auctions/:id", requireAuth, upgrade, fiberws.New(ws.Serve))
	}
}

// upgrade hands the authenticated user to the websocket handler and refuses
// plain HTTP requests.
func upgrade(c *fiber.Ctx) error {
	if !fiberws.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	userID, ok := auth.UserID(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	c.Locals(auctionws.LocalsUserID, userID.String())
	return c.Next()
}

func auctionIDParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, domain.ErrInvalidID
	}
	return id, nil
}

// PlaceBid handles POST /api/auctions/:id/bids
func (h *AuctionHandler) PlaceBid(c *fiber.Ctx) error {
	auctionID, err := auctionIDParam(c)
	if err != nil {
		return writeError(c, err)
	}
	bidderID, ok := auth.UserID(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req PlaceBidRequest
	if err := c.BodyParser(&req); err != nil || req.Amount == nil {
		return writeError(c, domain.ErrInvalidAmount)
	}

	bid, err := h.service.PlaceBid(c.UserContext(), application.PlaceBidDTO{
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    *req.Amount,
	})
	if err != nil {
		logRejection("PlaceBid", auctionID, err)
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(BidResponse{
		ID:        bid.ID,
		AuctionID: bid.AuctionID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
		IsWinning: bid.IsWinning,
		Timestamp: bid.Timestamp.UTC().Format(time.RFC3339Nano),
	})
}

// GetWinningBid handles GET /api/auctions/:id/winning-bid
func (h *AuctionHandler) GetWinningBid(c *fiber.Ctx) error {
	auctionID, err := auctionIDParam(c)
	if err != nil {
		return writeError(c, err)
	}
	bid, err := h.service.GetWinningBid(c.UserContext(), auctionID)
	if err != nil {
		logRejection("GetWinningBid", auctionID, err)
		return writeError(c, err)
	}
	return c.JSON(bid)
}

// GetBidHistory handles GET /api/auctions/:id/bids
func (h *AuctionHandler) GetBidHistory(c *fiber.Ctx) error {
	auctionID, err := auctionIDParam(c)
	if err != nil {
		return writeError(c, err)
	}
	bids, err := h.service.GetBidHistory(c.UserContext(), auctionID)
	if err != nil {
		logRejection("GetBidHistory", auctionID, err)
		return writeError(c, err)
	}
	return c.JSON(bids)
}

// GetAuctionState handles GET /api/auctions/:id
func (h *AuctionHandler) GetAuctionState(c *fiber.Ctx) error {
	auctionID, err := auctionIDParam(c)
	if err != nil {
		return writeError(c, err)
	}
	state, err := h.service.GetAuctionState(c.UserContext(), auctionID)
	if err != nil {
		logRejection("GetAuctionState", auctionID, err)
		return writeError(c, err)
	}
	return c.JSON(state)
}

func (h *AuctionHandler) ListBidded(c *fiber.Ctx) error {
	return h.listForUser(c, h.service.ListBiddedAuctions)
}

func (h *AuctionHandler) ListWinning(c *fiber.Ctx) error {
	return h.listForUser(c, h.service.ListWinningAuctions)
}

func (h *AuctionHandler) ListSold(c *fiber.Ctx) error {
	return h.listForUser(c, h.service.ListSoldAuctions)
}

type userListFunc func(ctx context.Context, userID uuid.UUID) ([]application.AuctionSummaryDTO, error)

func (h *AuctionHandler) listForUser(c *fiber.Ctx, list userListFunc) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	auctions, err := list(c.UserContext(), userID)
	if err != nil {
		log.Error("failed to list user auctions",
			zap.String("path", c.Path()),
			zap.String("userID", userID.String()),
			zap.Error(err),
		)
		return writeError(c, err)
	}
	return c.JSON(auctions)
}

// logRejection keeps expected business rejections at debug level.
func logRejection(op string, auctionID uuid.UUID, err error) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("auctionID", auctionID.String()),
		zap.Error(err),
	}
	status, _ := MapErrorToHTTP(err)
	switch {
	case status >= fiber.StatusInternalServerError:
		log.Error("auction request failed", fields...)
	case errors.Is(err, domain.ErrConflict):
		log.Warn("auction request conflicted", fields...)
	default:
		log.Debug("auction request rejected", fields...)
	}
}

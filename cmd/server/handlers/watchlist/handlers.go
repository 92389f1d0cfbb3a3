package watchlist

import (
	"context"

	"crypto-pulse/cmd/server/handlers/handlerutil"
	"crypto-pulse/internal/services/watchlist"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service defines the interface for the watchlist service
type Service interface {
	List(ctx context.Context, userID bson.ObjectID) ([]watchlist.Coin, error)
	Add(ctx context.Context, userID bson.ObjectID, symbol string) (*watchlist.AddResponse, error)
	Remove(ctx context.Context, userID bson.ObjectID, symbol string) (*watchlist.RemoveResponse, error)
	Search(ctx context.Context, query string) ([]watchlist.Candidate, error)
}

// Handlers contains the watchlist HTTP handlers
type Handlers struct {
	service   Service
	validator *validator.Validate
}

// NewHandlers creates new watchlist handlers
func NewHandlers(service Service, validator *validator.Validate) *Handlers {
	return &Handlers{
		service:   service,
		validator: validator,
	}
}

// List returns market data for the caller's watchlist
// @Summary List watched coins with live market data
// @Description Coins are returned in watchlist order; an empty watchlist yields []
// @Tags watchlist
// @Produce json
// @Security Bearer
// @Success 200 {array} watchlist.Coin
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Router /cryptos [get]
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	coins, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return handlerutil.ServiceError(c, err, "List")
	}

	return c.JSON(coins)
}

// Add resolves a coin and appends it to the watchlist
// @Summary Add a coin by id, symbol or name
// @Tags watchlist
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body watchlist.AddRequest true "Coin id, symbol or name"
// @Success 200 {object} watchlist.AddResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Router /crypto/add [post]
func (h *Handlers) Add(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req watchlist.AddRequest
	if err := c.BodyParser(&req); err != nil {
		return handlerutil.ServiceError(c, watchlist.ErrSymbolRequired, "Add")
	}
	// A missing or blank symbol keeps the service's message.
	if err := h.validator.Struct(req); err != nil {
		return handlerutil.ServiceError(c, watchlist.ErrSymbolRequired, "Add")
	}

	resp, err := h.service.Add(c.UserContext(), userID, req.Symbol)
	if err != nil {
		return handlerutil.ServiceError(c, err, "Add")
	}

	return c.JSON(resp)
}

// Search looks up coins at the market-data provider
// @Summary Search coins
// @Description Returns at most 10 candidates; an empty query yields []
// @Tags watchlist
// @Produce json
// @Security Bearer
// @Param query query string false "Free-text query"
// @Success 200 {array} watchlist.Candidate
// @Failure 401 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Router /crypto/search [get]
func (h *Handlers) Search(c *fiber.Ctx) error {
	var req watchlist.SearchRequest
	if err := handlerutil.ParseAndValidateQuery(c, &req, h.validator, "Search"); err != nil {
		return err
	}

	results, err := h.service.Search(c.UserContext(), req.Query)
	if err != nil {
		return handlerutil.ServiceError(c, err, "Search")
	}

	return c.JSON(results)
}

// Delete removes a coin from the watchlist
// @Summary Remove a coin
// @Description Matching is case-insensitive against stored coin ids
// @Tags watchlist
// @Produce json
// @Security Bearer
// @Param symbol path string true "Stored coin id"
// @Success 200 {object} watchlist.RemoveResponse
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Router /crypto/delete/{symbol} [delete]
func (h *Handlers) Delete(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.service.Remove(c.UserContext(), userID, c.Params("symbol"))
	if err != nil {
		return handlerutil.ServiceError(c, err, "Delete")
	}

	return c.JSON(resp)
}

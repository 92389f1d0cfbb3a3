package watchlist

import (
	"context"

	"crypto-pulse/internal/services/auth"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MaxSearchResults caps the candidates returned by Search.
const MaxSearchResults = 10

// Coin is the market snapshot shown for a watched coin. Percentage fields
// are nil when the provider has no value for the window.
type Coin struct {
	ID                       string   `json:"id" example:"bitcoin"`
	Name                     string   `json:"name" example:"Bitcoin"`
	Symbol                   string   `json:"symbol" example:"btc"`
	Image                    string   `json:"image" example:"https://assets.coingecko.com/coins/images/1/large/bitcoin.png"`
	CurrentPrice             *float64 `json:"current_price" example:"67012.5"`
	PriceChangePercentage1h  *float64 `json:"price_change_percentage_1h_in_currency" example:"0.12"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h" example:"-1.8"`
	PriceChangePercentage7d  *float64 `json:"price_change_percentage_7d_in_currency" example:"4.5"`
}

// Candidate is a search hit that can be added to a watchlist.
type Candidate struct {
	ID     string `json:"id" example:"bitcoin"`
	Name   string `json:"name" example:"Bitcoin"`
	Symbol string `json:"symbol" example:"BTC"`
}

// CoinRef identifies the coin an add resolved to.
type CoinRef struct {
	ID     string `json:"id" example:"bitcoin"`
	Symbol string `json:"symbol" example:"btc"`
	Name   string `json:"name" example:"Bitcoin"`
}

// AddRequest is the body of POST /api/crypto/add.
type AddRequest struct {
	Symbol string `json:"symbol" validate:"required,max=100" example:"BTC"`
}

// SearchRequest holds the query string of GET /api/crypto/search.
type SearchRequest struct {
	Query string `query:"query" validate:"max=100" example:"sol"`
}

// AddResponse is returned by Add.
type AddResponse struct {
	Success bool    `json:"success" example:"true"`
	Message string  `json:"message" example:"Added Bitcoin (BTC)"`
	Data    CoinRef `json:"data"`
}

// RemoveResponse is returned by Remove.
type RemoveResponse struct {
	Success        bool     `json:"success" example:"true"`
	Message        string   `json:"message" example:"bitcoin removed successfully."`
	RemainingCoins []string `json:"remainingCoins" example:"ethereum,solana"`
}

// EventType names a watchlist change pushed to live subscribers.
type EventType string

const (
	EventAdded   EventType = "added"
	EventRemoved EventType = "removed"
)

// Event is a watchlist change for one user.
type Event struct {
	Type   EventType     `json:"type"`
	Coin   string        `json:"coin"`
	UserID bson.ObjectID `json:"-"`
}

// MarketData is the external price and search provider.
type MarketData interface {
	// Markets returns snapshots for the given ids; unknown ids are omitted.
	Markets(ctx context.Context, ids []string) ([]Coin, error)
	// Search returns provider candidates for a free-text query.
	Search(ctx context.Context, query string) ([]Candidate, error)
}

// Repository persists watchlists. Missing users yield auth.ErrUserNotFound.
type Repository interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*auth.User, error)
	// AddCrypto appends coinID if absent and reports whether it did.
	AddCrypto(ctx context.Context, id bson.ObjectID, coinID string) (bool, error)
	// RemoveCrypto deletes coinID and returns the remaining list.
	RemoveCrypto(ctx context.Context, id bson.ObjectID, coinID string) ([]string, error)
}

// Bus publishes watchlist changes.
type Bus interface {
	Broadcast(ctx context.Context, ev Event)
}

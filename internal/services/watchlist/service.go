package watchlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"crypto-pulse/internal/apperr"
	"crypto-pulse/internal/services/auth"
	"crypto-pulse/internal/utils/sanitize"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service manages per-user watchlists backed by a market-data provider.
type Service struct {
	repo   Repository
	market MarketData
	bus    Bus
	log    *slog.Logger
}

// NewService creates a watchlist service. bus may be nil.
func NewService(repo Repository, market MarketData, bus Bus, log *slog.Logger) *Service {
	return &Service{repo: repo, market: market, bus: bus, log: log}
}

// List returns market snapshots for the user's watchlist in list order.
func (s *Service) List(ctx context.Context, userID bson.ObjectID) ([]Coin, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Cryptos) == 0 {
		return []Coin{}, nil
	}

	markets, err := s.market.Markets(ctx, user.Cryptos)
	if err != nil {
		s.log.Error("market data fetch failed", "user_id", userID.Hex(), "error", err)
		return nil, ErrFetchMarkets.Wrap(err)
	}

	byID := make(map[string]Coin, len(markets))
	for _, m := range markets {
		byID[m.ID] = m
	}

	out := make([]Coin, 0, len(user.Cryptos))
	for _, id := range user.Cryptos {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Add resolves raw (id, symbol or name) to a canonical coin and appends it
// to the watchlist when absent.
func (s *Service) Add(ctx context.Context, userID bson.ObjectID, raw string) (*AddResponse, error) {
	query := sanitize.Term(raw)
	if query == "" {
		return nil, ErrSymbolRequired
	}

	coin, err := s.resolve(ctx, query, raw)
	if err != nil {
		return nil, err
	}

	added, err := s.repo.AddCrypto(ctx, userID, coin.ID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, apperr.Internal("failed to update watchlist", err)
	}

	if added {
		s.publish(ctx, Event{Type: EventAdded, Coin: coin.ID, UserID: userID})
		s.log.Info("coin added", "user_id", userID.Hex(), "coin", coin.ID)
	}

	return &AddResponse{
		Success: true,
		Message: fmt.Sprintf("Added %s (%s)", coin.Name, strings.ToUpper(coin.Symbol)),
		Data:    coin,
	}, nil
}

// resolve tries query as a provider id first, then as an exact symbol or
// name among search hits. raw is the input as the client sent it and only
// appears in the not-found message.
func (s *Service) resolve(ctx context.Context, query, raw string) (CoinRef, error) {
	markets, err := s.market.Markets(ctx, []string{query})
	if err != nil {
		s.log.Error("market lookup failed", "query", query, "error", err)
		return CoinRef{}, ErrResolveCoin.Wrap(err)
	}
	if len(markets) > 0 {
		return refOf(markets[0]), nil
	}

	candidates, err := s.market.Search(ctx, query)
	if err != nil {
		s.log.Error("coin search failed", "query", query, "error", err)
		return CoinRef{}, ErrResolveCoin.Wrap(err)
	}

	hit, ok := exactMatch(candidates, query)
	if !ok {
		return CoinRef{}, apperr.NotFound(fmt.Sprintf("Coin with ID %q not found.", raw)).
			WithDetails(map[string]any{"suggestions": addSuggestions})
	}

	markets, err = s.market.Markets(ctx, []string{hit.ID})
	if err != nil {
		return CoinRef{}, ErrResolveCoin.Wrap(err)
	}
	if len(markets) > 0 {
		return refOf(markets[0]), nil
	}
	return CoinRef{ID: hit.ID, Symbol: strings.ToLower(hit.Symbol), Name: hit.Name}, nil
}

// exactMatch prefers an id match, then symbol, then name; candidates keep
// the provider's ranking so the first hit of each kind wins.
func exactMatch(candidates []Candidate, query string) (Candidate, bool) {
	keys := []func(Candidate) string{
		func(c Candidate) string { return c.ID },
		func(c Candidate) string { return c.Symbol },
		func(c Candidate) string { return c.Name },
	}
	for _, key := range keys {
		for _, c := range candidates {
			if strings.EqualFold(key(c), query) {
				return c, true
			}
		}
	}
	return Candidate{}, false
}

func refOf(c Coin) CoinRef {
	return CoinRef{ID: c.ID, Symbol: c.Symbol, Name: c.Name}
}

// Remove deletes the entry matching symbol case-insensitively.
func (s *Service) Remove(ctx context.Context, userID bson.ObjectID, symbol string) (*RemoveResponse, error) {
	symbol = strings.TrimSpace(symbol)

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	match := ""
	for _, id := range user.Cryptos {
		if strings.EqualFold(id, symbol) {
			match = id
			break
		}
	}
	if match == "" {
		yours := user.Cryptos
		if yours == nil {
			yours = []string{}
		}
		return nil, apperr.NotFound(fmt.Sprintf("%q not found in your portfolio.", symbol)).
			WithDetails(map[string]any{"success": false, "yourCoins": yours, "suggestion": removeSuggestion})
	}

	remaining, err := s.repo.RemoveCrypto(ctx, userID, match)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, apperr.Internal("failed to update watchlist", err)
	}

	s.publish(ctx, Event{Type: EventRemoved, Coin: match, UserID: userID})
	s.log.Info("coin removed", "user_id", userID.Hex(), "coin", match)

	return &RemoveResponse{
		Success:        true,
		Message:        fmt.Sprintf("%s removed successfully.", symbol),
		RemainingCoins: remaining,
	}, nil
}

// Search returns up to MaxSearchResults candidates for query. A blank query
// returns an empty list without contacting the provider.
func (s *Service) Search(ctx context.Context, query string) ([]Candidate, error) {
	query = sanitize.Term(query)
	if query == "" {
		return []Candidate{}, nil
	}

	candidates, err := s.market.Search(ctx, query)
	if err != nil {
		s.log.Error("coin search failed", "query", query, "error", err)
		return nil, ErrSearchCoins.Wrap(err)
	}

	if len(candidates) > MaxSearchResults {
		candidates = candidates[:MaxSearchResults]
	}
	if candidates == nil {
		candidates = []Candidate{}
	}
	return candidates, nil
}

func (s *Service) findUser(ctx context.Context, userID bson.ObjectID) (*auth.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	return user, nil
}

func (s *Service) publish(ctx context.Context, ev Event) {
	if s.bus != nil {
		s.bus.Broadcast(ctx, ev)
	}
}

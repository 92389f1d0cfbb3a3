package watchlist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"crypto-pulse/internal/apperr"
	"crypto-pulse/internal/services/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var silentLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// MockRepo is a mock implementation of Repository
type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) FindByID(ctx context.Context, id bson.ObjectID) (*auth.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockRepo) AddCrypto(ctx context.Context, id bson.ObjectID, coinID string) (bool, error) {
	args := m.Called(ctx, id, coinID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepo) RemoveCrypto(ctx context.Context, id bson.ObjectID, coinID string) ([]string, error) {
	args := m.Called(ctx, id, coinID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockMarket is a mock implementation of MarketData
type MockMarket struct {
	mock.Mock
}

func (m *MockMarket) Markets(ctx context.Context, ids []string) ([]Coin, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Coin), args.Error(1)
}

func (m *MockMarket) Search(ctx context.Context, query string) ([]Candidate, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Candidate), args.Error(1)
}

// MockBus is a mock implementation of Bus
type MockBus struct {
	mock.Mock
}

func (m *MockBus) Broadcast(ctx context.Context, ev Event) {
	m.Called(ctx, ev)
}

// memRepo keeps one watchlist per user with set semantics on add.
type memRepo struct {
	lists map[bson.ObjectID][]string
}

func (r *memRepo) FindByID(_ context.Context, id bson.ObjectID) (*auth.User, error) {
	list, ok := r.lists[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return &auth.User{ID: id, Cryptos: append([]string(nil), list...)}, nil
}

func (r *memRepo) AddCrypto(_ context.Context, id bson.ObjectID, coinID string) (bool, error) {
	list, ok := r.lists[id]
	if !ok {
		return false, auth.ErrUserNotFound
	}
	for _, c := range list {
		if c == coinID {
			return false, nil
		}
	}
	r.lists[id] = append(list, coinID)
	return true, nil
}

func (r *memRepo) RemoveCrypto(_ context.Context, id bson.ObjectID, coinID string) ([]string, error) {
	list, ok := r.lists[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	out := []string{}
	for _, c := range list {
		if c != coinID {
			out = append(out, c)
		}
	}
	r.lists[id] = out
	return out, nil
}

func price(v float64) *float64 { return &v }

var (
	bitcoin  = Coin{ID: "bitcoin", Name: "Bitcoin", Symbol: "btc", CurrentPrice: price(67000)}
	ethereum = Coin{ID: "ethereum", Name: "Ethereum", Symbol: "eth", CurrentPrice: price(3500)}
	solana   = Coin{ID: "solana", Name: "Solana", Symbol: "sol", CurrentPrice: price(150)}
)

func TestService_List(t *testing.T) {
	userID := bson.NewObjectID()

	t.Run("ordered as the watchlist", func(t *testing.T) {
		repo := new(MockRepo)
		market := new(MockMarket)
		repo.On("FindByID", mock.Anything, userID).
			Return(&auth.User{ID: userID, Cryptos: []string{"solana", "bitcoin", "delisted"}}, nil)
		market.On("Markets", mock.Anything, []string{"solana", "bitcoin", "delisted"}).
			Return([]Coin{bitcoin, solana}, nil)

		svc := NewService(repo, market, nil, silentLogger)
		got, err := svc.List(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, []Coin{solana, bitcoin}, got)
	})

	t.Run("empty list skips provider", func(t *testing.T) {
		repo := new(MockRepo)
		market := new(MockMarket)
		repo.On("FindByID", mock.Anything, userID).Return(&auth.User{ID: userID}, nil)

		svc := NewService(repo, market, nil, silentLogger)
		got, err := svc.List(context.Background(), userID)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
		market.AssertNotCalled(t, "Markets", mock.Anything, mock.Anything)
	})

	t.Run("vanished user", func(t *testing.T) {
		repo := new(MockRepo)
		repo.On("FindByID", mock.Anything, userID).Return(nil, auth.ErrUserNotFound)

		svc := NewService(repo, new(MockMarket), nil, silentLogger)
		_, err := svc.List(context.Background(), userID)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("provider failure is upstream", func(t *testing.T) {
		repo := new(MockRepo)
		market := new(MockMarket)
		repo.On("FindByID", mock.Anything, userID).Return(&auth.User{ID: userID, Cryptos: []string{"bitcoin"}}, nil)
		market.On("Markets", mock.Anything, mock.Anything).Return(nil, errors.New("429 too many requests"))

		svc := NewService(repo, market, nil, silentLogger)
		_, err := svc.List(context.Background(), userID)
		assert.ErrorIs(t, err, ErrFetchMarkets)
		assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	})
}

func TestService_Add(t *testing.T) {
	userID := bson.NewObjectID()

	t.Run("by id", func(t *testing.T) {
		repo := new(MockRepo)
		market := new(MockMarket)
		bus := new(MockBus)
		market.On("Markets", mock.Anything, []string{"bitcoin"}).Return([]Coin{bitcoin}, nil)
		repo.On("AddCrypto", mock.Anything, userID, "bitcoin").Return(true, nil)
		bus.On("Broadcast", mock.Anything, Event{Type: EventAdded, Coin: "bitcoin", UserID: userID}).Return()

		svc := NewService(repo, market, bus, silentLogger)
		resp, err := svc.Add(context.Background(), userID, " Bitcoin ")
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, "Added Bitcoin (BTC)", resp.Message)
		assert.Equal(t, CoinRef{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"}, resp.Data)
		bus.AssertExpectations(t)
	})

	t.Run("by symbol through search", func(t *testing.T) {
		repo := new(MockRepo)
		market := new(MockMarket)
		market.On("Markets", mock.Anything, []string{"btc"}).Return([]Coin{}, nil)
		market.On("Search", mock.Anything, "btc").Return([]Candidate{
			{ID: "batcat", Name: "BatCat", Symbol: "BTCAT"},
			{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC"},
			{ID: "wrapped-bitcoin", Name: "Wrapped Bitcoin", Symbol: "WBTC"},
		}, nil)
		market.On("Markets", mock.Anything, []string{"bitcoin"}).Return([]Coin{bitcoin}, nil)
		repo.On("AddCrypto", mock.Anything, userID, "bitcoin").Return(true, nil)

		svc := NewService(repo, market, nil, silentLogger)
		resp, err := svc.Add(context.Background(), userID, "BTC")
		require.NoError(t, err)
		assert.Equal(t, "bitcoin", resp.Data.ID)
	})

	t.Run("already present does not broadcast", func(t *testing.T) {
		repo := new(MockRepo)
		market := new(MockMarket)
		bus := new(MockBus)
		market.On("Markets", mock.Anything, []string{"bitcoin"}).Return([]Coin{bitcoin}, nil)
		repo.On("AddCrypto", mock.Anything, userID, "bitcoin").Return(false, nil)

		svc := NewService(repo, market, bus, silentLogger)
		resp, err := svc.Add(context.Background(), userID, "bitcoin")
		require.NoError(t, err)
		assert.True(t, resp.Success)
		bus.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything)
	})

	t.Run("blank input", func(t *testing.T) {
		market := new(MockMarket)
		svc := NewService(new(MockRepo), market, nil, silentLogger)

		for _, raw := range []string{"", "   ", "<b></b>"} {
			_, err := svc.Add(context.Background(), userID, raw)
			assert.ErrorIs(t, err, ErrSymbolRequired)
		}
		market.AssertNotCalled(t, "Markets", mock.Anything, mock.Anything)
	})

	t.Run("unknown coin carries suggestions", func(t *testing.T) {
		repo := new(MockRepo)
		market := new(MockMarket)
		market.On("Markets", mock.Anything, []string{"notacoin"}).Return([]Coin{}, nil)
		market.On("Search", mock.Anything, "notacoin").Return([]Candidate{{ID: "notacoin-x", Name: "NotACoin X", Symbol: "NACX"}}, nil)

		svc := NewService(repo, market, nil, silentLogger)
		_, err := svc.Add(context.Background(), userID, "notacoin")

		e, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, apperr.KindNotFound, e.Kind)
		assert.Equal(t, `Coin with ID "notacoin" not found.`, e.Message)
		assert.Equal(t, addSuggestions, e.Details["suggestions"])
		repo.AssertNotCalled(t, "AddCrypto", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not found message quotes the input as sent", func(t *testing.T) {
		market := new(MockMarket)
		market.On("Markets", mock.Anything, []string{"notacoin"}).Return([]Coin{}, nil)
		market.On("Search", mock.Anything, "notacoin").Return([]Candidate{}, nil)

		svc := NewService(new(MockRepo), market, nil, silentLogger)
		_, err := svc.Add(context.Background(), userID, "NotACoin")

		e, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, `Coin with ID "NotACoin" not found.`, e.Message)
	})

	t.Run("provider failure is upstream", func(t *testing.T) {
		market := new(MockMarket)
		market.On("Markets", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

		svc := NewService(new(MockRepo), market, nil, silentLogger)
		_, err := svc.Add(context.Background(), userID, "bitcoin")
		assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	})
}

func TestService_AddIsIdempotent(t *testing.T) {
	userID := bson.NewObjectID()
	repo := &memRepo{lists: map[bson.ObjectID][]string{userID: {"ethereum"}}}
	market := new(MockMarket)
	market.On("Markets", mock.Anything, []string{"btc"}).Return([]Coin{}, nil)
	market.On("Search", mock.Anything, "btc").Return([]Candidate{{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC"}}, nil)
	market.On("Markets", mock.Anything, []string{"bitcoin"}).Return([]Coin{bitcoin}, nil)
	market.On("Markets", mock.Anything, []string{"ethereum", "bitcoin"}).Return([]Coin{ethereum, bitcoin}, nil)

	hub := NewHub(4)
	svc := NewService(repo, market, hub, silentLogger)
	ctx := context.Background()

	_, err := svc.Add(ctx, userID, "BTC")
	require.NoError(t, err)
	_, err = svc.Add(ctx, userID, "bitcoin")
	require.NoError(t, err)

	assert.Equal(t, []string{"ethereum", "bitcoin"}, repo.lists[userID])

	coins, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, coins, 2)
	assert.Equal(t, "bitcoin", coins[1].ID)
}

func TestService_Remove(t *testing.T) {
	userID := bson.NewObjectID()

	t.Run("case-insensitive match", func(t *testing.T) {
		repo := &memRepo{lists: map[bson.ObjectID][]string{userID: {"bitcoin", "ethereum"}}}
		bus := new(MockBus)
		bus.On("Broadcast", mock.Anything, Event{Type: EventRemoved, Coin: "bitcoin", UserID: userID}).Return()

		svc := NewService(repo, new(MockMarket), bus, silentLogger)
		resp, err := svc.Remove(context.Background(), userID, "BITCOIN")
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, "BITCOIN removed successfully.", resp.Message)
		assert.Equal(t, []string{"ethereum"}, resp.RemainingCoins)
		bus.AssertExpectations(t)
	})

	t.Run("absent symbol leaves list unchanged", func(t *testing.T) {
		repo := &memRepo{lists: map[bson.ObjectID][]string{userID: {"bitcoin", "ethereum"}}}
		svc := NewService(repo, new(MockMarket), nil, silentLogger)

		_, err := svc.Remove(context.Background(), userID, "dogecoin")

		e, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, apperr.KindNotFound, e.Kind)
		assert.Equal(t, `"dogecoin" not found in your portfolio.`, e.Message)
		assert.Equal(t, []string{"bitcoin", "ethereum"}, e.Details["yourCoins"])
		assert.Equal(t, removeSuggestion, e.Details["suggestion"])
		assert.Equal(t, false, e.Details["success"])
		assert.Equal(t, []string{"bitcoin", "ethereum"}, repo.lists[userID])
	})

	t.Run("vanished user", func(t *testing.T) {
		svc := NewService(&memRepo{lists: map[bson.ObjectID][]string{}}, new(MockMarket), nil, silentLogger)
		_, err := svc.Remove(context.Background(), userID, "bitcoin")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})
}

func TestService_Search(t *testing.T) {
	t.Run("caps results", func(t *testing.T) {
		market := new(MockMarket)
		hits := make([]Candidate, 25)
		for i := range hits {
			hits[i] = Candidate{ID: "coin", Name: "Coin", Symbol: "C"}
		}
		market.On("Search", mock.Anything, "sol").Return(hits, nil)

		svc := NewService(new(MockRepo), market, nil, silentLogger)
		got, err := svc.Search(context.Background(), " SOL ")
		require.NoError(t, err)
		assert.Len(t, got, MaxSearchResults)
	})

	t.Run("empty query skips provider", func(t *testing.T) {
		market := new(MockMarket)
		svc := NewService(new(MockRepo), market, nil, silentLogger)

		got, err := svc.Search(context.Background(), "  ")
		require.NoError(t, err)
		assert.Equal(t, []Candidate{}, got)
		market.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	})

	t.Run("provider failure", func(t *testing.T) {
		market := new(MockMarket)
		market.On("Search", mock.Anything, "sol").Return(nil, errors.New("boom"))

		svc := NewService(new(MockRepo), market, nil, silentLogger)
		_, err := svc.Search(context.Background(), "sol")
		assert.ErrorIs(t, err, ErrSearchCoins)
	})
}

func TestExactMatchPrefersID(t *testing.T) {
	candidates := []Candidate{
		{ID: "sol-wormhole", Name: "Solana", Symbol: "SOL"},
		{ID: "solana", Name: "Solana", Symbol: "SOL"},
	}

	got, ok := exactMatch(candidates, "solana")
	require.True(t, ok)
	assert.Equal(t, "solana", got.ID)

	got, ok = exactMatch(candidates, "sol")
	require.True(t, ok)
	assert.Equal(t, "sol-wormhole", got.ID, "first ranked symbol hit wins")

	_, ok = exactMatch(candidates, "so")
	assert.False(t, ok)
}

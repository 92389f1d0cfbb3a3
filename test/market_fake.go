//go:build e2e

package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// fakeMarket serves the two market-data endpoints the server calls.
type fakeMarket struct {
	srv   *httptest.Server
	calls atomic.Int64
	down  atomic.Bool
}

var fakeCoins = map[string]map[string]any{
	"bitcoin":  {"id": "bitcoin", "symbol": "btc", "name": "Bitcoin", "image": "", "current_price": 67000.5, "price_change_percentage_24h": 1.2},
	"ethereum": {"id": "ethereum", "symbol": "eth", "name": "Ethereum", "image": "", "current_price": 3500.0},
	"solana":   {"id": "solana", "symbol": "sol", "name": "Solana", "image": "", "current_price": 150.0},
	"cardano":  {"id": "cardano", "symbol": "ada", "name": "Cardano", "image": "", "current_price": 0.45},
	"tron":     {"id": "tron", "symbol": "trx", "name": "TRON", "image": "", "current_price": 0.12},
	"dogecoin": {"id": "dogecoin", "symbol": "doge", "name": "Dogecoin", "image": "", "current_price": 0.15},
}

func newFakeMarket(t *testing.T) *fakeMarket {
	t.Helper()
	m := &fakeMarket{}

	mux := http.NewServeMux()
	mux.HandleFunc("/coins/markets", func(w http.ResponseWriter, r *http.Request) {
		m.calls.Add(1)
		if m.down.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		out := []map[string]any{}
		for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
			if c, ok := fakeCoins[id]; ok {
				out = append(out, c)
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		m.calls.Add(1)
		if m.down.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		q := strings.ToLower(r.URL.Query().Get("query"))
		hits := []map[string]any{}
		for _, c := range fakeCoins {
			if strings.Contains(c["id"].(string), q) || c["symbol"] == q || strings.EqualFold(c["name"].(string), q) {
				hits = append(hits, map[string]any{
					"id": c["id"], "name": c["name"], "symbol": strings.ToUpper(c["symbol"].(string)),
				})
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"coins": hits})
	})

	m.srv = httptest.NewServer(mux)
	t.Cleanup(m.srv.Close)
	return m
}

func (m *fakeMarket) URL() string { return m.srv.URL }

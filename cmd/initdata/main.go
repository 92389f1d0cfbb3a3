// Command initdata seeds a demo account and a random watchlist through the
// public API, so it also smoke-tests a running server.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	baseURL = flag.String("url", env("API_BASE_URL", "http://localhost:3000"), "Server base URL")
	email   = flag.String("email", env("EMAIL", ""), "User e-mail (random when empty)")
	pass    = flag.String("pass", env("PASSWORD", "pw123456"), "User password")
	nCoins  = flag.Int("n", envInt("COUNT", 5), "How many extra coins to add")
)

// coinPool holds ids and tickers the resolver accepts.
var coinPool = []string{
	"dogecoin", "ripple", "litecoin", "polkadot", "chainlink", "stellar",
	"avalanche-2", "uniswap", "monero", "near", "XLM", "ATOM", "AAVE", "usd-coin",
}

var client = &http.Client{Timeout: 15 * time.Second}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if i, err := strconv.Atoi(os.Getenv(key)); err == nil && i > 0 {
		return i
	}
	return def
}

func send(method, path string, body any, token string) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, *baseURL+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return client.Do(req)
}

func readAll(body io.ReadCloser) []byte {
	defer body.Close()
	data, _ := io.ReadAll(body)
	return data
}

func main() {
	flag.Parse()
	if *email == "" {
		*email = gofakeit.Email()
	}

	fmt.Printf("Init account %s (extra coins=%d) on %s\n", *email, *nCoins, *baseURL)

	token, err := ensureUser()
	if err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}

	if err := addCoins(token, *nCoins); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}

	resp, err := send(http.MethodGet, "/api/cryptos", nil, token)
	if err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}
	var coins []struct {
		ID           string   `json:"id"`
		CurrentPrice *float64 `json:"current_price"`
	}
	_ = json.Unmarshal(readAll(resp.Body), &coins)
	for _, c := range coins {
		price := "n/a"
		if c.CurrentPrice != nil {
			price = strconv.FormatFloat(*c.CurrentPrice, 'f', 2, 64)
		}
		fmt.Printf("  %-16s %s\n", c.ID, price)
	}

	fmt.Println("done")
}

// ensureUser signs up, falling back to login for an existing account.
func ensureUser() (string, error) {
	payload := map[string]string{"email": *email, "password": *pass}
	var r struct {
		Token string `json:"token"`
	}

	if resp, err := send(http.MethodPost, "/api/signup", payload, ""); err == nil && resp.StatusCode == http.StatusCreated {
		_ = json.Unmarshal(readAll(resp.Body), &r)
		fmt.Println("• signed up new user")
		return r.Token, nil
	}

	resp, err := send(http.MethodPost, "/api/login", payload, "")
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed (%d): %s", resp.StatusCode, readAll(resp.Body))
	}
	_ = json.Unmarshal(readAll(resp.Body), &r)
	fmt.Println("• logged in existing user")
	return r.Token, nil
}

// addCoins adds up to n random coins. Unresolvable picks are reported and skipped.
func addCoins(token string, n int) error {
	for i := 1; i <= n; i++ {
		symbol := gofakeit.RandomString(coinPool)

		resp, err := send(http.MethodPost, "/api/crypto/add", map[string]string{"symbol": symbol}, token)
		if err != nil {
			return err
		}

		var body struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(readAll(resp.Body), &body)

		switch {
		case resp.StatusCode == http.StatusOK:
			fmt.Printf("  + %s\n", body.Message)
		case resp.StatusCode == http.StatusNotFound:
			fmt.Printf("  ? %s\n", body.Message)
		default:
			return fmt.Errorf("add %q failed (%d): %s", symbol, resp.StatusCode, body.Message)
		}
	}
	return nil
}

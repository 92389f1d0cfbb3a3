package watchlist

import "crypto-pulse/internal/apperr"

var (
	ErrSymbolRequired = apperr.Validation("Valid symbol is required")
	ErrFetchMarkets   = apperr.Upstream("Failed to fetch crypto data", nil)
	ErrSearchCoins    = apperr.Upstream("Failed to search coins", nil)
	ErrResolveCoin    = apperr.Upstream("Failed to add crypto", nil)
)

var addSuggestions = []string{
	`Use the official CoinGecko ID like "bitcoin", "solana", "usd-coin"`,
	"Use the popup search to find the correct ID",
}

const removeSuggestion = "Try using the exact symbol from your list."

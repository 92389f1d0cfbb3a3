// Package docs CryptoPulse API
//
// @title  CryptoPulse API
// @version 0.1.0
// @description Crypto watchlists with live market data.
// @host      localhost:3000
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package docs

import (
	_ "crypto-pulse/cmd/server/handlers/httperr"
	_ "crypto-pulse/internal/services/auth"
	_ "crypto-pulse/internal/services/watchlist"
)

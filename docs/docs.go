// Regenerate with: swag init -g docs/swagger.go -o docs --parseDependency

package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/signup": {"post": {"tags": ["auth"], "summary": "Register a new user", "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/auth.SignUpRequest"}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/auth.Response"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httperr.E"}}}}},
        "/login": {"post": {"tags": ["auth"], "summary": "Authenticate a user", "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/auth.SignInRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.Response"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httperr.E"}}}}},
        "/forgot-password": {"post": {"tags": ["auth"], "summary": "Request a password-reset OTP", "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/auth.ForgotPasswordRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.MessageResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httperr.E"}}}}},
        "/verify-otp": {"post": {"tags": ["auth"], "summary": "Verify OTP and set a new password", "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/auth.VerifyOTPRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.MessageResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httperr.E"}}}}},
        "/cryptos": {"get": {"security": [{"Bearer": []}], "tags": ["watchlist"], "summary": "List watched coins with live market data", "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/watchlist.Coin"}}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httperr.E"}}}}},
        "/crypto/add": {"post": {"security": [{"Bearer": []}], "tags": ["watchlist"], "summary": "Add a coin by id, symbol or name", "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/watchlist.AddRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/watchlist.AddResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httperr.E"}}}}},
        "/crypto/search": {"get": {"security": [{"Bearer": []}], "tags": ["watchlist"], "summary": "Search coins", "parameters": [{"in": "query", "name": "query", "type": "string"}], "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/watchlist.Candidate"}}}}}},
        "/crypto/delete/{symbol}": {"delete": {"security": [{"Bearer": []}], "tags": ["watchlist"], "summary": "Remove a coin", "parameters": [{"in": "path", "name": "symbol", "required": true, "type": "string"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/watchlist.RemoveResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httperr.E"}}}}},
        "/me": {"get": {"security": [{"Bearer": []}], "tags": ["auth"], "summary": "Get current user", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.User"}}}}}
    },
    "definitions": {
        "auth.SignUpRequest": {"type": "object", "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "auth.SignInRequest": {"type": "object", "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "auth.ForgotPasswordRequest": {"type": "object", "properties": {"email": {"type": "string"}}},
        "auth.VerifyOTPRequest": {"type": "object", "properties": {"email": {"type": "string"}, "otp": {"type": "string"}, "password": {"type": "string"}}},
        "auth.User": {"type": "object", "properties": {"id": {"type": "string"}, "email": {"type": "string"}, "cryptos": {"type": "array", "items": {"type": "string"}}, "created_at": {"type": "string"}, "updated_at": {"type": "string"}}},
        "auth.Response": {"type": "object", "properties": {"token": {"type": "string"}, "user": {"$ref": "#/definitions/auth.User"}}},
        "auth.MessageResponse": {"type": "object", "properties": {"msg": {"type": "string"}}},
        "watchlist.Coin": {"type": "object", "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "symbol": {"type": "string"}, "image": {"type": "string"}, "current_price": {"type": "number"}, "price_change_percentage_1h_in_currency": {"type": "number"}, "price_change_percentage_24h": {"type": "number"}, "price_change_percentage_7d_in_currency": {"type": "number"}}},
        "watchlist.Candidate": {"type": "object", "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "symbol": {"type": "string"}}},
        "watchlist.CoinRef": {"type": "object", "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "symbol": {"type": "string"}}},
        "watchlist.AddRequest": {"type": "object", "properties": {"symbol": {"type": "string"}}},
        "watchlist.AddResponse": {"type": "object", "properties": {"success": {"type": "boolean"}, "message": {"type": "string"}, "data": {"$ref": "#/definitions/watchlist.CoinRef"}}},
        "watchlist.RemoveResponse": {"type": "object", "properties": {"success": {"type": "boolean"}, "message": {"type": "string"}, "remainingCoins": {"type": "array", "items": {"type": "string"}}}},
        "httperr.E": {"type": "object", "properties": {"message": {"type": "string"}}}
    },
    "securityDefinitions": {
        "Bearer": {"description": "Type \"Bearer\" followed by a space and JWT token.", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:3000",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "CryptoPulse API",
	Description:      "Crypto watchlists with live market data.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ClaimUserID is the JWT claim carrying the user's hex ObjectID.
const ClaimUserID = "user_id"

// GenerateAccessToken signs a token for user that expires after
// ACCESS_TOKEN_MINUTES.
func (s *Service) GenerateAccessToken(user *User) (string, error) {
	method, err := s.signingMethod()
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := jwt.MapClaims{
		ClaimUserID: user.ID.Hex(),
		"iat":       now.Unix(),
		"exp":       now.Add(s.config.AccessTokenTTL()).Unix(),
	}

	return jwt.NewWithClaims(method, claims).SignedString([]byte(s.config.JWTSecret))
}

// ParseAccessToken validates raw and returns the user id it was issued for.
func (s *Service) ParseAccessToken(raw string) (bson.ObjectID, error) {
	method, err := s.signingMethod()
	if err != nil {
		return bson.NilObjectID, err
	}

	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return bson.NilObjectID, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return bson.NilObjectID, ErrInvalidToken
	}

	return UserIDFromClaims(claims)
}

// UserIDFromClaims extracts the user id claim.
func UserIDFromClaims(claims jwt.MapClaims) (bson.ObjectID, error) {
	hex, ok := claims[ClaimUserID].(string)
	if !ok {
		return bson.NilObjectID, ErrInvalidToken
	}
	id, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		return bson.NilObjectID, ErrInvalidToken
	}
	return id, nil
}

func (s *Service) signingMethod() (jwt.SigningMethod, error) {
	switch strings.ToUpper(s.config.JWTAlgorithm) {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	default:
		return nil, errors.New("unsupported JWT algorithm")
	}
}

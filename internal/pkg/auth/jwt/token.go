package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// RoomAccessExpiration is the lifetime of a room token.
	RoomAccessExpiration = 12 * time.Hour

	// TokenIssuer identifies the issuer of the token.
	TokenIssuer = "GMPro-Server"
)

var (
	ErrTokenExpired = errors.New("room token expired")
	ErrTokenInvalid = errors.New("room token invalid")
)

// GenerateToken signs payload with HS256 after stamping its standard claims.
func GenerateToken(payload *Payload, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload.StandardClaims = jwt.StandardClaims{
		ExpiresAt: now.Add(duration).Unix(),
		IssuedAt:  now.Unix(),
		Issuer:    TokenIssuer,
		Subject:   payload.ID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// Reissue signs a fresh room token for the member and meeting of payload. payload itself
// is left untouched.
func Reissue(payload *Payload, secretKey string) (string, *Payload, error) {
	next := NewPayload(payload.ID, payload.MeetID, payload.Nickname)
	token, err := GenerateToken(next, secretKey, RoomAccessExpiration)
	if err != nil {
		return "", nil, err
	}
	return token, next, nil
}

// ParseToken validates tokenString against secretKey and returns its payload. Failures
// wrap ErrTokenExpired or ErrTokenInvalid.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})

	var verr *jwt.ValidationError
	if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
		return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Issuer != TokenIssuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrTokenInvalid, claims.Issuer)
	}
	if claims.ID == "" || claims.MeetID == "" {
		return nil, fmt.Errorf("%w: missing member or meeting claims", ErrTokenInvalid)
	}

	return claims, nil
}

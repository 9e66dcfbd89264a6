package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const leeway = 60 * time.Second

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid claims")
	ErrEmptySecret   = errors.New("jwt secret is empty")
)

// Service verifies HS384 bearer tokens issued by the auth service. With an
// empty secret it signs nothing and rejects every token.
type Service struct {
	jwtSecret string
	issuer    string
}

func New(jwtSecret, issuer string) *Service { return &Service{jwtSecret: jwtSecret, issuer: issuer} }

type Claims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// GenerateJWT signs a token the way the auth service does. Only tests and
// local tooling need it.
func (s *Service) GenerateJWT(userID string, roles []string, expiresIn time.Duration) (string, error) {
	if s.jwtSecret == "" {
		return "", ErrEmptySecret
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS384, claims)

	return token.SignedString([]byte(s.jwtSecret))
}

func (s *Service) ValidateToken(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS384.Alg()}),
		jwt.WithLeeway(leeway),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if s.jwtSecret == "" {
			return nil, ErrEmptySecret
		}
		return []byte(s.jwtSecret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

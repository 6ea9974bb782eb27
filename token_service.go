package users

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// RecoveryTokenTTL is how long a freshly minted recovery token stays
// redeemable.
const RecoveryTokenTTL = 24 * time.Hour

// JWTTokenService signs and validates HMAC tokens carrying JWTClaims.
type JWTTokenService struct {
	signingKey      []byte
	tokenExpiration int
	logger          Logger
}

var _ TokenService = (*JWTTokenService)(nil)

// NewTokenService builds a token service. tokenExpiration is the
// access token lifetime in hours.
func NewTokenService(signingKey []byte, tokenExpiration int, logger Logger) *JWTTokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &JWTTokenService{
		signingKey:      signingKey,
		tokenExpiration: tokenExpiration,
		logger:          logger,
	}
}

// Generate mints an access token for an identity.
func (ts *JWTTokenService) Generate(identity Identity) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ts.tokenExpiration) * time.Hour)),
		},
		Email: identity.Email(),
		UID:   identity.ID(),
	}
	return ts.SignClaims(claims)
}

// GenerateRecovery mints a recovery token. Every token carries a fresh
// nonce, so two tokens minted in the same second still differ.
func (ts *JWTTokenService) GenerateRecovery(identity Identity, expiresAt time.Time) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:     identity.Email(),
		UID:       identity.ID(),
		Hash:      uuid.NewString(),
		TokenType: RecoveryTokenType,
	}
	return ts.SignClaims(claims)
}

// SignClaims signs an arbitrary claim set with the service key.
func (ts *JWTTokenService) SignClaims(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "unable to sign token")
	}
	return signed, nil
}

// Validate parses and verifies a token string. Expired tokens come
// back as ErrTokenExpired, every other failure as ErrTokenMalformed.
func (ts *JWTTokenService) Validate(tokenString string) (AuthClaims, error) {
	claims := &JWTClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected token signing method", errors.CategoryAuth)
		}
		return ts.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	if !token.Valid {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

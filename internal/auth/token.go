package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

var (
	// ErrMissingSecret means the signing secret was never configured.
	ErrMissingSecret = errors.New("token signing secret is not configured")
	// ErrTokenMissing means no token was presented.
	ErrTokenMissing = errors.New("token missing")
	// ErrTokenMalformed covers tokens that are not a JWT, are unsigned, use an
	// unexpected algorithm, or carry no subject.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenInvalid covers bad signatures and expired or not-yet-valid tokens.
	ErrTokenInvalid = errors.New("token invalid or expired")
)

var errUnexpectedMethod = errors.New("unexpected signing method")

// TokenService issues and validates HS256 bearer tokens whose subject is a user id.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenService fails when secret is empty. A zero ttl issues tokens without exp.
func NewTokenService(secret string, ttl time.Duration, issuer string) (*TokenService, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// Issue signs a token for userID.
func (s *TokenService) Issue(userID string) (string, error) {
	if s == nil || len(s.secret) == 0 {
		return "", ErrMissingSecret
	}
	if userID == "" {
		return "", errors.New("token subject is empty")
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:  userID,
		IssuedAt: jwt.NewNumericDate(now),
		Issuer:   s.issuer,
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Validate verifies tokenString and returns its subject. Errors are always one of
// ErrMissingSecret, ErrTokenMissing, ErrTokenMalformed or ErrTokenInvalid.
func (s *TokenService) Validate(tokenString string) (string, error) {
	if s == nil || len(s.secret) == 0 {
		return "", ErrMissingSecret
	}
	if tokenString == "" {
		return "", ErrTokenMissing
	}

	opts := []jwt.ParserOption{
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errUnexpectedMethod
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return "", classify(err)
	}
	if claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, errUnexpectedMethod):
		return errors.WithMessage(ErrTokenMalformed, err.Error())
	default:
		return errors.WithMessage(ErrTokenInvalid, err.Error())
	}
}

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tjfontaine/shopgate/internal/core/domain"
	"github.com/tjfontaine/shopgate/internal/core/ports"
)

// ErrInvalidToken is returned by VerifyToken for tokens that fail validation.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims issued by tokenCreate.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Authenticator resolves users from signed access tokens.
type Authenticator struct {
	users  ports.UserStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthenticator creates an authenticator signing HS256 tokens with secret.
func NewAuthenticator(users ports.UserStore, secret string, ttl time.Duration) (*Authenticator, error) {
	if users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Authenticator{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Authenticate returns the user carried by the request's access token, or
// nil when the request has no usable token. Only store failures are errors.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) (*domain.User, error) {
	token, ok := ExtractToken(r, "jwt", "bearer")
	if !ok {
		return nil, nil
	}

	user, err := a.VerifyToken(ctx, token)
	if errors.Is(err, ErrInvalidToken) {
		return nil, nil
	}
	return user, err
}

// VerifyToken validates token and loads its active user.
func (a *Authenticator) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	user, err := a.users.GetUser(ctx, claims.Subject)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", claims.Subject, err)
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}

	return user, nil
}

// IssueToken creates a signed access token for user.
func (a *Authenticator) IssueToken(user *domain.User) (string, error) {
	now := a.now()
	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Login checks an email/password pair and issues a token for the user.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := a.users.GetUserByEmail(ctx, email)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive || !CheckPassword(user.PasswordHash, password) {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := a.IssueToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// ExtractToken returns the credential of an Authorization header made of
// exactly two whitespace-separated parts whose scheme matches one of
// schemes, case-insensitively.
func ExtractToken(r *http.Request, schemes ...string) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 {
		return "", false
	}

	for _, scheme := range schemes {
		if strings.ToLower(parts[0]) == scheme {
			return parts[1], true
		}
	}
	return "", false
}

// HashToken creates a SHA-256 hash of an app token for storage and lookup.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

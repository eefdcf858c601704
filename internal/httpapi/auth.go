package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/domain"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/store"
)

const minPasswordLength = 6

var errInvalidCredentials = errors.New("invalid credentials")

// OwnerStore is the slice of the repository the auth flow needs.
type OwnerStore interface {
	CreateOwner(ctx context.Context, owner domain.Owner) (*domain.Owner, error)
	GetOwnerByID(ctx context.Context, id string) (*domain.Owner, error)
	GetOwnerByEmail(ctx context.Context, email string) (*domain.Owner, error)
}

type AuthManager struct {
	secret   []byte
	tokenTTL time.Duration
	owners   OwnerStore
	now      func() time.Time
}

type ownerClaims struct {
	jwtlib.RegisteredClaims
	Email string `json:"email"`
}

func NewAuthManager(secret string, tokenTTL time.Duration, owners OwnerStore) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		owners:   owners,
		now:      time.Now,
	}
}

func (a *AuthManager) Register(ctx context.Context, req domain.RegisterRequest) (domain.Owner, error) {
	name := strings.TrimSpace(req.Name)
	cafeName := strings.TrimSpace(req.CafeName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || cafeName == "" {
		return domain.Owner{}, fmt.Errorf("%w: name and cafeName are required", store.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.Owner{}, fmt.Errorf("%w: email is not valid", store.ErrInvalidInput)
	}
	if len(req.Password) < minPasswordLength {
		return domain.Owner{}, fmt.Errorf("%w: password must be at least %d characters", store.ErrInvalidInput, minPasswordLength)
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		return domain.Owner{}, fmt.Errorf("failed to hash password: %w", err)
	}

	owner, err := a.owners.CreateOwner(ctx, domain.Owner{
		Name:         name,
		CafeName:     cafeName,
		Email:        email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return domain.Owner{}, err
	}
	return *owner, nil
}

func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	owner, err := a.owners.GetOwnerByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.LoginResponse{}, errInvalidCredentials
		}
		return domain.LoginResponse{}, err
	}
	if !verifyPassword(owner.PasswordHash, req.Password) {
		return domain.LoginResponse{}, errInvalidCredentials
	}

	expiresAt := a.now().UTC().Add(a.tokenTTL)
	token, err := a.sign(*owner, expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		Owner:     *owner,
	}, nil
}

// ParseToken verifies a bearer token and resolves it to a session. Tokens
// for owners that no longer exist are refused.
func (a *AuthManager) ParseToken(ctx context.Context, tokenStr string) (domain.Session, error) {
	claims := &ownerClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return domain.Session{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Session{}, errors.New("invalid token subject")
	}

	if _, err := a.owners.GetOwnerByID(ctx, sub); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, errors.New("owner no longer exists")
		}
		return domain.Session{}, err
	}

	session := domain.Session{OwnerID: sub, Email: claims.Email}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

func (a *AuthManager) sign(owner domain.Owner, expiresAt time.Time) (string, error) {
	claims := ownerClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   owner.ID,
			IssuedAt:  jwtlib.NewNumericDate(a.now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "cafe-billing",
		},
		Email: owner.Email,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}

// Package session resolves user identity across render cycles without
// any server-held session state. Identity travels as an encrypted token
// persisted in a client cookie: the token wraps the user id in AES-GCM
// under a key derived from the configured secret, so it survives process
// restarts and is opaque to the client.
package session

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"

	"financeflow/internal/auth"
	"financeflow/internal/models"
)

const (
	// CookieName is the client-side slot holding the encrypted token.
	CookieName = "ff_session"

	// Tokens never expire on their own; the cookie outlives restarts
	// and dies only on explicit logout.
	cookieMaxAge = 365 * 24 * 60 * 60
)

// UserStore is the credential-store surface the service needs.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Service verifies credentials and mints/resolves session tokens.
type Service struct {
	users        UserStore
	aead         cipher.AEAD
	secureCookie bool
}

// NewService derives the token cipher from secret and returns a ready
// service. secret must not be empty.
func NewService(users UserStore, secret string, secureCookie bool) (*Service, error) {
	if secret == "" {
		return nil, errors.New("session secret must not be empty")
	}
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	return &Service{users: users, aead: aead, secureCookie: secureCookie}, nil
}

// Login verifies the credentials and mints a token for the user.
// Unknown usernames and wrong passwords both yield
// models.ErrInvalidCredentials; the two cases are indistinguishable to
// the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", models.ErrInvalidCredentials
		}
		return "", err
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", models.ErrInvalidCredentials
	}
	return s.mint(user.ID)
}

// Resolve decodes token and re-fetches the user it names. Any token
// problem — absent, malformed, tampered, or naming a user that no
// longer exists — fails soft to the anonymous identity (nil, nil).
// Only storage I/O failures surface as errors.
func (s *Service) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	id, ok := s.open(token)
	if !ok {
		return nil, nil
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) mint(userID int64) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	plain := binary.BigEndian.AppendUint64(nil, uint64(userID))
	sealed := s.aead.Seal(nonce, nonce, plain, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (s *Service) open(token string) (int64, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) < s.aead.NonceSize() {
		return 0, false
	}
	nonce, sealed := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, sealed, nil)
	if err != nil || len(plain) != 8 {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(plain)), true
}

// TokenFromRequest reads the persisted token, or "" when absent.
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// IssueCookie persists token on the client.
func (s *Service) IssueCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie destroys the persisted token. Idempotent: clearing an
// absent cookie is a no-op.
func (s *Service) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

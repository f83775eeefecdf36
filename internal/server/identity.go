package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"

	"github.com/floydverse/flappy-floyd/internal/store"
)

const (
	tokenExpiry    = 30 * 24 * time.Hour
	maxUsernameLen = 16
	secretSetting  = "jwt_secret"
)

var errInvalidClaims = errors.New("invalid token claims")

// Identity signs and verifies the tokens that let a player keep their
// username (and so their highscore) across reconnects.
type Identity struct {
	secret []byte
}

// NewIdentity creates an Identity with a fixed signing secret.
func NewIdentity(secret []byte) *Identity {
	return &Identity{secret: secret}
}

// LoadIdentity reads the signing secret from db, or generates and
// persists a new one. A nil db yields a secret valid for this process only.
func LoadIdentity(db *store.DB) (*Identity, error) {
	if db != nil {
		h, err := db.GetSetting(secretSetting)
		if err != nil {
			return nil, fmt.Errorf("read secret: %w", err)
		}
		if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
			return NewIdentity(b), nil
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	if db != nil {
		if err := db.SetSetting(secretSetting, hex.EncodeToString(secret)); err != nil {
			log.Warn("Could not persist token secret", "err", err)
		}
	}
	return NewIdentity(secret), nil
}

// Issue returns a signed token for username.
func (id *Identity) Issue(username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"usr": username,
		"exp": now.Add(tokenExpiry).Unix(),
		"iat": now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(id.secret)
}

// Parse validates a token and returns the username it carries.
func (id *Identity) Parse(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return id.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errInvalidClaims
	}
	username, ok := claims["usr"].(string)
	if !ok || username == "" {
		return "", errInvalidClaims
	}
	return username, nil
}

// sanitizeUsername trims a requested name and caps its length.
func sanitizeUsername(name string) string {
	name = strings.TrimSpace(name)
	if r := []rune(name); len(r) > maxUsernameLen {
		name = string(r[:maxUsernameLen])
	}
	return name
}

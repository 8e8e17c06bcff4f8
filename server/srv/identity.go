package srv

import (
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Players are anonymous but their seats are not: the token minted at join is
// the only proof of ownership of a durable id, so a restore cannot hijack
// someone else's in-progress seat.

type Signer struct {
	key []byte
}

func LoadSigner(dataDir string) (*Signer, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dataDir, "identity.key")
	key, err := os.ReadFile(path)
	if err == nil && len(key) >= 32 {
		return &Signer{key: key}, nil
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, err
	}
	return &Signer{key: key}, nil
}

type identityClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

func (s *Signer) Mint(durableID, name string) (string, error) {
	claims := identityClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  durableID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Verify returns the durable id the token was minted for.
func (s *Signer) Verify(token string) (string, error) {
	var claims identityClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.key, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

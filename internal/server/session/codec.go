package session

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/clientadmin/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the cookie payload: the session id in jti plus the flag.
type Claims struct {
	jwt.RegisteredClaims
	Authenticated bool `json:"auth"`
}

// Codec signs sessions into HS256 tokens and back.
type Codec struct {
	secret []byte
}

func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret}
}

func (c *Codec) Encode(sess *Session) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ID: sess.ID},
		Authenticated:    sess.Authenticated,
	})

	s, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}

	return s, nil
}

// Decode verifies the signature and returns the session. Any problem with
// the token is ErrInvalidToken.
func (c *Codec) Decode(tokenString string) (*Session, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.ID == "" {
		return nil, errors.Join(common.ErrInvalidToken, errors.New("missing session id"))
	}

	return &Session{ID: claims.ID, Authenticated: claims.Authenticated}, nil
}

package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
)

const (
	claimRole = "role"
	claimSub  = "sub"
)

type PasetoToken struct {
	parser paseto.Parser
	key    paseto.V4SymmetricKey
}

// New builds a token service from a hex encoded v4 local key. An empty key
// generates a random one, so issued tokens die with the process.
func New(keyHex string) (*PasetoToken, error) {
	key := paseto.NewV4SymmetricKey()
	if keyHex != "" {
		var err error
		key, err = paseto.V4SymmetricKeyFromHex(keyHex)
		if err != nil {
			return nil, fmt.Errorf("bad auth key: %w", err)
		}
	}

	return &PasetoToken{
		parser: paseto.NewParser(),
		key:    key,
	}, nil
}

var _ port.TokenService = (*PasetoToken)(nil)

func (p *PasetoToken) KeyHex() string {
	return p.key.ExportHex()
}

func (p *PasetoToken) CreateToken(payload port.TokenPayload, ttl time.Duration) (string, error) {
	token := paseto.NewToken()
	now := time.Now()
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(ttl))
	token.SetSubject(payload.Subject)
	if err := token.Set(claimRole, payload.Role); err != nil {
		return "", domain.ErrTokenCreation
	}

	return token.V4Encrypt(p.key, nil), nil
}

func (p *PasetoToken) VerifyToken(token string) (*port.TokenPayload, error) {
	parsedToken, err := p.parser.ParseV4Local(p.key, token, nil)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	payload := port.TokenPayload{}
	payload.Subject, err = parsedToken.GetString(claimSub)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	err = parsedToken.Get(claimRole, &payload.Role)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	return &payload, nil
}

package port

import "time"

const RoleAdmin = "admin"

type TokenPayload struct {
	Subject string
	Role    string
}

//go:generate mockgen -source=auth.go -destination=mock/auth.go -package=mock
type TokenService interface {
	CreateToken(payload TokenPayload, ttl time.Duration) (string, error)
	VerifyToken(token string) (*TokenPayload, error)
}

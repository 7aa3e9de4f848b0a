package auth

import "time"

// Claims identify the staff member behind a request.
type Claims struct {
	StaffID   string
	Role      string
	ExpiresAt time.Time
}

// Strategy verifies staff tokens. Tokens are issued by the authentication service.
type Strategy interface {
	ParseToken(token string) (Claims, error)
}

type Options struct {
	TTL time.Duration
}

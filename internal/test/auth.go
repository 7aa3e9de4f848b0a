package test

import (
	pkgAuth "github.com/polkiloo/posorder/internal/pkg/auth"
)

// TokenParserStub implements middleware token parsing contract.
type TokenParserStub struct {
	StaffID string
	Role    string
	Err     error
}

// ParseToken returns the configured claims or error.
func (s TokenParserStub) ParseToken(token string) (pkgAuth.Claims, error) {
	if s.Err != nil {
		return pkgAuth.Claims{}, s.Err
	}
	return pkgAuth.Claims{StaffID: s.StaffID, Role: s.Role}, nil
}

var _ pkgAuth.Strategy = TokenParserStub{}

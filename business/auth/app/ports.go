// Package app runs the challenge/sign/login flow and caches the resulting
// session token.
package app

import (
	"context"

	"github.com/fd1az/trading-sdk/business/auth/domain"
)

// Signer proves control of a wallet. Bitcoin PSBT signers and hardware
// wallets live behind the same port.
type Signer interface {
	Address() string
	SignMessage(ctx context.Context, message string) (string, error)
}

// Gateway is the backend's auth surface.
type Gateway interface {
	Challenge(ctx context.Context, address, network string) (*domain.Challenge, error)
	Login(ctx context.Context, req domain.LoginRequest) (*domain.Session, error)
}

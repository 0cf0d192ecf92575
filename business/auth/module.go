// Package auth implements the wallet login bounded context.
package auth

import (
	"context"

	"github.com/fd1az/trading-sdk/business/auth/app"
	authDI "github.com/fd1az/trading-sdk/business/auth/di"
	"github.com/fd1az/trading-sdk/business/auth/infra/api"
	"github.com/fd1az/trading-sdk/business/auth/infra/evm"
	"github.com/fd1az/trading-sdk/internal/config"
	"github.com/fd1az/trading-sdk/internal/di"
	"github.com/fd1az/trading-sdk/internal/logger"
	"github.com/fd1az/trading-sdk/internal/monolith"
)

// Module implements the auth bounded context.
type Module struct{}

// RegisterServices registers all auth services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, authDI.Gateway, func(sr di.ServiceRegistry) app.Gateway {
		cfg := sr.Get("config").(*config.Config)

		gw, err := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
		if err != nil {
			panic("failed to create auth gateway: " + err.Error())
		}
		return gw
	})

	// Only EVM keys are signed in-process; other networks plug in their own Signer.
	di.RegisterToken(c, authDI.Signer, func(sr di.ServiceRegistry) app.Signer {
		cfg := sr.Get("config").(*config.Config)
		if !cfg.Wallet.HasSigner() || cfg.Wallet.Network != "evm" {
			return nil
		}

		signer, err := evm.NewSigner(cfg.Wallet.PrivateKey)
		if err != nil {
			panic("failed to create signer: " + err.Error())
		}
		return signer
	})

	di.RegisterToken(c, authDI.AuthService, func(sr di.ServiceRegistry) *app.AuthService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		signer := authDI.GetSigner(sr)
		if signer == nil {
			return nil
		}
		svc, err := app.NewAuthService(authDI.GetGateway(sr), signer, cfg.Wallet.Network, log)
		if err != nil {
			panic("failed to create auth service: " + err.Error())
		}
		return svc
	})

	return nil
}

// Startup logs in eagerly so the first authenticated call does not pay for it.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	svc := authDI.GetAuthService(mono.Services())
	if svc == nil {
		log.Info(ctx, "no signing key configured, authenticated endpoints disabled")
		return nil
	}

	if _, err := svc.Login(ctx); err != nil {
		// Token() retries on first use.
		log.Warn(ctx, "initial login failed", "address", svc.Address(), "error", err)
	}

	log.Info(ctx, "auth module started", "address", svc.Address())
	return nil
}

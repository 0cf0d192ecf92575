// Package di contains dependency injection tokens for the auth context.
package di

import (
	"github.com/fd1az/trading-sdk/business/auth/app"
	"github.com/fd1az/trading-sdk/internal/di"
)

// Public service tokens - exposed to other modules
var (
	// AuthService resolves to nil when no signing key is configured.
	AuthService = di.NewToken[*app.AuthService]("auth.AuthService")
)

// Private dependency tokens - internal to auth module
var (
	Gateway = di.NewToken[app.Gateway]("auth:gateway")
	Signer  = di.NewToken[app.Signer]("auth:signer")
)

func GetAuthService(c di.ServiceRegistry) *app.AuthService {
	return di.GetToken(c, AuthService)
}

func GetGateway(c di.ServiceRegistry) app.Gateway {
	return di.GetToken(c, Gateway)
}

func GetSigner(c di.ServiceRegistry) app.Signer {
	return di.GetToken(c, Signer)
}

// Package api is the REST gateway for wallet login.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/fd1az/trading-sdk/business/auth/app"
	"github.com/fd1az/trading-sdk/business/auth/domain"
	"github.com/fd1az/trading-sdk/internal/apperror"
	"github.com/fd1az/trading-sdk/internal/httpclient"
)

var _ app.Gateway = (*Client)(nil)

const (
	challengePath = "/auth/challenge"
	loginPath     = "/auth/login"
)

type challengeRequest struct {
	Address string `json:"address"`
	Network string `json:"network"`
}

type challengeResponse struct {
	Message string `json:"message"`
	Nonce   string `json:"nonce"`
}

type loginRequest struct {
	Address   string `json:"address"`
	Network   string `json:"network"`
	Nonce     string `json:"nonce"`
	Signature string `json:"signature"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Client calls the auth endpoints. They are public, so no token is attached.
type Client struct {
	http httpclient.Client
}

// NewClient creates a gateway rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...httpclient.ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("auth: base url is required"))
	}
	clientOpts := []httpclient.ClientOption{
		httpclient.WithProviderName("trading-auth"),
		httpclient.WithBaseURL(baseURL),
	}
	if timeout > 0 {
		clientOpts = append(clientOpts, httpclient.WithRequestTimeout(timeout))
	}
	hc, err := httpclient.NewInstrumentedClient(append(clientOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return &Client{http: hc}, nil
}

// Challenge asks for a message to sign.
func (c *Client) Challenge(ctx context.Context, address, network string) (*domain.Challenge, error) {
	var resp challengeResponse
	_, err := c.http.NewRequest(
		httpclient.WithoutAuth(),
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "auth_challenge")),
	).
		SetBody(challengeRequest{Address: address, Network: network}).
		SetResult(&resp).
		Post(ctx, challengePath)
	if err != nil {
		return nil, err
	}
	if resp.Message == "" {
		return nil, apperror.New(apperror.CodeInvalidResponse, apperror.WithContext("challenge without message"))
	}
	return &domain.Challenge{Message: resp.Message, Nonce: resp.Nonce}, nil
}

// Login exchanges a signed challenge for a session token.
func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (*domain.Session, error) {
	var resp loginResponse
	_, err := c.http.NewRequest(
		httpclient.WithoutAuth(),
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "auth_login")),
	).
		SetBody(loginRequest{
			Address:   req.Address,
			Network:   req.Network,
			Nonce:     req.Nonce,
			Signature: req.Signature,
		}).
		SetResult(&resp).
		Post(ctx, loginPath)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, apperror.New(apperror.CodeInvalidResponse, apperror.WithContext("login without token"))
	}
	return &domain.Session{Token: resp.Token, Address: req.Address, ExpiresAt: resp.ExpiresAt}, nil
}

package app

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/fd1az/trading-sdk/business/auth/domain"
	"github.com/fd1az/trading-sdk/internal/apperror"
	"github.com/fd1az/trading-sdk/internal/httpclient"
	"github.com/fd1az/trading-sdk/internal/logger"
)

const (
	tracerName = "auth"

	// DefaultRefreshMargin renews a token this long before it expires.
	DefaultRefreshMargin = 30 * time.Second

	// DefaultLoginTimeout bounds one shared login exchange.
	DefaultLoginTimeout = 30 * time.Second
)

// AuthService logs a wallet in and hands out its bearer token.
type AuthService struct {
	gateway Gateway
	signer  Signer
	network string
	margin  time.Duration
	timeout time.Duration
	logger  logger.LoggerInterface

	mu      sync.Mutex
	session *domain.Session
	logins  singleflight.Group

	now    func() time.Time
	tracer trace.Tracer
}

// NewAuthService creates a service logging in as signer on network.
func NewAuthService(gateway Gateway, signer Signer, network string, log logger.LoggerInterface) (*AuthService, error) {
	if gateway == nil {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("auth: gateway is required"))
	}
	if signer == nil || signer.Address() == "" {
		return nil, apperror.New(apperror.CodeInvalidWallet, apperror.WithContext("auth: a signer with an address is required"))
	}
	return &AuthService{
		gateway: gateway,
		signer:  signer,
		network: network,
		margin:  DefaultRefreshMargin,
		timeout: DefaultLoginTimeout,
		logger:  log,
		now:     time.Now,
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// Address returns the wallet address being authenticated.
func (s *AuthService) Address() string {
	return s.signer.Address()
}

// Login runs the full challenge/sign/login exchange and caches the session.
// Concurrent callers share one exchange. The exchange is detached from any
// single caller's ctx and bounded by the login timeout instead; a caller
// whose ctx ends stops waiting without failing the others.
func (s *AuthService) Login(ctx context.Context) (*domain.Session, error) {
	ch := s.logins.DoChan("login", func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.login(lctx)
	})

	select {
	case <-ctx.Done():
		return nil, apperror.New(apperror.CodeAuthLoginFailed,
			apperror.WithCause(ctx.Err()),
			apperror.WithContext("gave up waiting for login"))
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug(ctx, "joined in-flight login", "address", s.signer.Address())
		}
		sess := *res.Val.(*domain.Session)
		return &sess, nil
	}
}

func (s *AuthService) login(ctx context.Context) (*domain.Session, error) {
	address := s.signer.Address()
	ctx, span := s.tracer.Start(ctx, "auth.login", trace.WithAttributes(
		attribute.String("wallet.address", address),
		attribute.String("wallet.network", s.network),
	))
	defer span.End()

	fail := func(err error) (*domain.Session, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn(ctx, "login failed", "address", address, "error", err)
		return nil, err
	}

	challenge, err := s.gateway.Challenge(ctx, address, s.network)
	if err != nil {
		return fail(apperror.New(apperror.CodeAuthChallengeFailed, apperror.WithCause(err)))
	}

	signature, err := s.signer.SignMessage(ctx, challenge.Message)
	if err != nil {
		return fail(apperror.New(apperror.CodeSigningFailed, apperror.WithCause(err)))
	}

	sess, err := s.gateway.Login(ctx, domain.LoginRequest{
		Address:   address,
		Network:   s.network,
		Nonce:     challenge.Nonce,
		Signature: signature,
	})
	if err != nil {
		return fail(apperror.New(apperror.CodeAuthLoginFailed, apperror.WithCause(err)))
	}
	if sess.Token == "" {
		return fail(apperror.New(apperror.CodeAuthLoginFailed, apperror.WithContext("empty token")))
	}
	if sess.Address == "" {
		sess.Address = address
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()

	s.logger.Info(ctx, "logged in", "address", address, "expires_at", sess.ExpiresAt)
	return sess, nil
}

// Token returns the cached bearer token, logging in again when it is missing
// or about to expire. It satisfies httpclient.TokenSource.
func (s *AuthService) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()

	if sess.ValidAt(s.now(), s.margin) {
		return sess.Token, nil
	}

	sess, err := s.Login(ctx)
	if err != nil {
		return "", err
	}
	return sess.Token, nil
}

// TokenSource adapts Token for the HTTP client.
func (s *AuthService) TokenSource() httpclient.TokenSource {
	return s.Token
}

// Invalidate drops the cached session, e.g. after a 401.
func (s *AuthService) Invalidate() {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
}

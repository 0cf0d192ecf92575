package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fd1az/trading-sdk/business/auth/app"
	"github.com/fd1az/trading-sdk/business/auth/domain"
	"github.com/fd1az/trading-sdk/business/auth/infra/evm"
	"github.com/fd1az/trading-sdk/internal/apperror"
	"github.com/fd1az/trading-sdk/internal/logger"
)

const devKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// authServer issues a token only for a signature that recovers to the
// address that asked for the challenge.
func authServer(t *testing.T, logins *atomic.Int32) *httptest.Server {
	t.Helper()
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/challenge", func(w http.ResponseWriter, r *http.Request) {
		var req challengeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Address == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("challenge should not carry a token")
		}
		json.NewEncoder(w).Encode(challengeResponse{
			Message: "Sign in as " + req.Address + " on " + req.Network,
			Nonce:   "n-1",
		})
	})

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		msg := "Sign in as " + req.Address + " on " + req.Network
		addr, err := evm.RecoverAddress(msg, req.Signature)
		if err != nil || addr.Hex() != req.Address || req.Nonce != "n-1" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"bad signature"}`))
			return
		}
		logins.Add(1)
		json.NewEncoder(w).Encode(loginResponse{Token: "session-token", ExpiresAt: expires})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginFlow(t *testing.T) {
	var logins atomic.Int32
	srv := authServer(t, &logins)

	gw, err := NewClient(srv.URL, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := evm.NewSigner(devKey)
	if err != nil {
		t.Fatal(err)
	}
	svc, err := app.NewAuthService(gw, signer, "evm", logger.Discard())
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	sess, err := svc.Login(ctx)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if sess.Token != "session-token" || sess.Address != signer.Address() {
		t.Errorf("session = %+v", sess)
	}
	if sess.ExpiresAt.Year() != 2030 {
		t.Errorf("ExpiresAt = %v", sess.ExpiresAt)
	}

	for range 3 {
		tok, err := svc.Token(ctx)
		if err != nil || tok != "session-token" {
			t.Fatalf("Token() = %q, %v", tok, err)
		}
	}
	if got := logins.Load(); got != 1 {
		t.Errorf("logins = %d, want 1", got)
	}
}

func TestLoginFlow_WrongSignature(t *testing.T) {
	var logins atomic.Int32
	srv := authServer(t, &logins)
	gw, _ := NewClient(srv.URL, time.Second)

	_, err := gw.Login(context.Background(), loginReq("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", "0x00"))
	if apperror.GetCode(err) != apperror.CodeAPIUnauthorized {
		t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodeAPIUnauthorized)
	}
}

func TestClient_RejectsEmptyResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	gw, _ := NewClient(srv.URL, 0)
	ctx := context.Background()

	if _, err := gw.Challenge(ctx, "0xabc", "evm"); apperror.GetCode(err) != apperror.CodeInvalidResponse {
		t.Errorf("Challenge code = %v, want %v", apperror.GetCode(err), apperror.CodeInvalidResponse)
	}
	if _, err := gw.Login(ctx, loginReq("0xabc", "0x00")); apperror.GetCode(err) != apperror.CodeInvalidResponse {
		t.Errorf("Login code = %v, want %v", apperror.GetCode(err), apperror.CodeInvalidResponse)
	}
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient("", 0); apperror.GetCode(err) != apperror.CodeConfigurationError {
		t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodeConfigurationError)
	}
}

func loginReq(address, signature string) domain.LoginRequest {
	return domain.LoginRequest{Address: address, Network: "evm", Nonce: "n-1", Signature: signature}
}

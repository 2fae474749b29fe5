// Package google signs a user in with Google from a terminal.
//
// It runs the OAuth2 authorization-code flow with PKCE against a loopback
// redirect: a short-lived HTTP listener on 127.0.0.1 receives the callback,
// the code is exchanged for tokens, and the ID token is verified before it is
// handed back to be exchanged with the food rescue backend.
package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"foodrescue/internal/federated"
	"foodrescue/internal/platform/httpserver"
)

const (
	// DefaultIssuer is Google's OpenID Connect issuer.
	DefaultIssuer = "https://accounts.google.com"

	callbackPath      = "/callback"
	defaultListenAddr = "127.0.0.1:0"
)

// Config holds the OAuth client registration.
type Config struct {
	ClientID     string
	ClientSecret string
	// Issuer defaults to DefaultIssuer.
	Issuer string
	// ListenAddr is where the loopback callback listens. Defaults to an
	// ephemeral port on 127.0.0.1.
	ListenAddr string
}

// Provider implements federated.Provider for Google.
type Provider struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	browse     func(ctx context.Context, authURL string) error
}

type Option func(*Provider)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithHTTPClient sets the client used for discovery, key fetches and the
// code exchange.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithBrowser sets how the authorization URL reaches the user.
func WithBrowser(fn func(ctx context.Context, authURL string) error) Option {
	return func(p *Provider) {
		p.browse = fn
	}
}

// PrintURL returns a browser func that asks the user to open the URL.
func PrintURL(w io.Writer) func(context.Context, string) error {
	return func(_ context.Context, authURL string) error {
		_, err := fmt.Fprintf(w, "Open this link to sign in with Google:\n\n  %s\n\n", authURL)
		return err
	}
}

// New returns a provider, or federated.ErrNotConfigured when the client
// credentials are missing.
func New(cfg Config, opts ...Option) (*Provider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, federated.ErrNotConfigured
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	p := &Provider{
		cfg:        cfg,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
		browse:     PrintURL(os.Stderr),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type callbackResult struct {
	code string
	err  error
}

// IDToken runs the interactive flow and returns the verified raw ID token.
// Cancelling ctx abandons the flow with a CodeCancelled error.
func (p *Provider) IDToken(ctx context.Context) (string, error) {
	ctx = oidc.ClientContext(ctx, p.httpClient)

	issuer, err := oidc.NewProvider(ctx, p.cfg.Issuer)
	if err != nil {
		return "", classify(ctx, federated.CodeNetwork, "could not reach Google", err)
	}

	ln, err := net.Listen("tcp", p.cfg.ListenAddr)
	if err != nil {
		return "", federated.NewProviderError(federated.CodeNetwork, "could not open the sign-in callback listener", err)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		RedirectURL:  "http://" + ln.Addr().String() + callbackPath,
		Endpoint:     issuer.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	stop := httpserver.Start(ctx, ln, httpserver.New(callbackRouter(state, results)), p.logger)
	defer stop()

	authURL := oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
	if err := p.browse(ctx, authURL); err != nil {
		return "", federated.NewProviderError(federated.CodeCancelled, "could not start the sign-in", err)
	}
	p.logger.DebugContext(ctx, "waiting for google callback", "redirect_url", oauthCfg.RedirectURL)

	var res callbackResult
	select {
	case <-ctx.Done():
		return "", federated.NewProviderError(federated.CodeCancelled, "sign-in was cancelled", ctx.Err())
	case res = <-results:
	}
	if res.err != nil {
		return "", res.err
	}

	token, err := oauthCfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			msg := re.ErrorDescription
			if msg == "" {
				msg = re.ErrorCode
			}
			return "", federated.NewProviderError(federated.CodeExchangeFailed, msg, err)
		}
		return "", classify(ctx, federated.CodeNetwork, "token exchange failed", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", federated.NewProviderError(federated.CodeInvalidToken, "Google did not return an ID token", nil)
	}
	idToken, err := issuer.Verifier(&oidc.Config{ClientID: p.cfg.ClientID}).Verify(ctx, rawIDToken)
	if err != nil {
		return "", federated.NewProviderError(federated.CodeInvalidToken, "Google ID token could not be verified", err)
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil || claims.Email == "" {
		return "", federated.NewProviderError(federated.CodeInvalidToken, "Google ID token has no email", err)
	}

	p.logger.InfoContext(ctx, "google sign-in verified", "issuer", idToken.Issuer, "expiry_unix", idToken.Expiry.Unix())
	return rawIDToken, nil
}

func callbackRouter(state string, results chan<- callbackResult) http.Handler {
	r := chi.NewRouter()
	r.Get(callbackPath, func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		var res callbackResult
		switch {
		case q.Get("error") == "access_denied":
			res.err = federated.NewProviderError(federated.CodeCancelled, "sign-in was cancelled", nil)
		case q.Get("error") != "":
			msg := q.Get("error_description")
			if msg == "" {
				msg = q.Get("error")
			}
			res.err = federated.NewProviderError(federated.CodeAccessDenied, msg, nil)
		case q.Get("state") != state:
			res.err = federated.NewProviderError(federated.CodeInvalidState, "sign-in response did not match this request", nil)
		case q.Get("code") == "":
			res.err = federated.NewProviderError(federated.CodeAccessDenied, "sign-in response had no authorization code", nil)
		default:
			res.code = q.Get("code")
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if res.err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, "Sign-in failed. You can close this window and return to the terminal.\n")
		} else {
			_, _ = io.WriteString(w, "Signed in. You can close this window and return to the terminal.\n")
		}

		select {
		case results <- res:
		default:
			// A result is already pending; later callbacks are ignored.
		}
	})
	return r
}

// classify reports a cancelled context as a cancellation, anything else with
// the given code.
func classify(ctx context.Context, code, msg string, err error) error {
	if ctx.Err() != nil {
		return federated.NewProviderError(federated.CodeCancelled, "sign-in was cancelled", err)
	}
	return federated.NewProviderError(code, msg, err)
}

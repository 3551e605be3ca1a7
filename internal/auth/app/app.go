// Package app wires configuration, storage and services into a runnable
// server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	authhttp "github.com/aussiebroadwan/tenauth/internal/auth/http"
	"github.com/aussiebroadwan/tenauth/internal/auth/obs"
	"github.com/aussiebroadwan/tenauth/internal/auth/service"
	"github.com/aussiebroadwan/tenauth/internal/auth/store"
	"github.com/aussiebroadwan/tenauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tenauth/pkg/cryptox"
	"github.com/aussiebroadwan/tenauth/pkg/jwtx"
	"github.com/aussiebroadwan/tenauth/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

// App owns the process-level resources.
type App struct {
	cfg    Config
	store  store.Store
	redis  *redis.Client
	server *http.Server
}

// New builds the full dependency graph.
func New(cfg Config) (*App, error) {
	slogx.New(slogx.Config{
		Service: "tenauth",
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	obs.Init()

	cryptox.SetPepperPath(cfg.PepperFile)

	s, err := sqlite.NewStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := s.ApplyMigrations(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	cipher, err := cryptox.NewCipherFromFile(cfg.CipherKeyFile)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("load cipher key: %w", err)
	}

	signer, err := jwtx.GenerateSigner(cfg.JWTKeyID)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("generate signer: %w", err)
	}

	tokens := &service.TokenService{
		Store:      s,
		Signer:     signer,
		Issuer:     cfg.JWTIssuer,
		SessionTTL: cfg.SessionTTL,
	}
	authorities := &service.AuthorityResolver{Store: s}
	linkSecrets := &service.LinkSecrets{
		Redis:     rdb,
		Notifier:  service.LogNotifier{},
		Namespace: "tenauth",
		BizKey:    cfg.LinkBizKey,
		TTL:       cfg.LinkSecretTTL,
	}

	handler := &authhttp.Handler{
		Store:       s,
		Authorities: authorities,
		Verifier:    signer.Verifier(),
		SignIn: &service.SignInService{
			Store:       s,
			Passwords:   service.NewPasswordVerifier(),
			LinkSecrets: linkSecrets,
			Authorities: authorities,
			Tokens:      tokens,
		},
		Credentials: &service.SystemCredentialManager{
			Store:  s,
			Tokens: tokens,
			Cipher: cipher,
			Quota:  cfg.CredentialQuota,
		},
		Bootstrap: &service.Bootstrapper{
			Store: s,
			Token: cfg.BootstrapToken,
		},
		ReadyChecks: []func(ctx context.Context) error{
			func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	}

	return &App{
		cfg:   cfg,
		store: s,
		redis: rdb,
		server: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           handler.Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down cleanly.
func (a *App) Run(ctx context.Context) error {
	go a.housekeeping(ctx)

	errCh := make(chan error, 1)
	go func() {
		slogx.FromContext(ctx).Info("listening", "addr", a.cfg.HTTPAddr)
		if err := a.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

// housekeeping sweeps expired token grants periodically so revoked and
// lapsed bearers don't accumulate forever.
func (a *App) housekeeping(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.store.TokenGrants().DeleteExpiredTokenGrants(ctx); err != nil {
				slogx.FromContext(ctx).Warn("expired grant sweep failed", "err", err)
			}
		}
	}
}

// Close releases the process-level resources.
func (a *App) Close() error {
	err := a.store.Close()
	if cerr := a.redis.Close(); err == nil {
		err = cerr
	}
	return err
}

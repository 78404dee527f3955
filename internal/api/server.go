package api

import (
    "context"
    "net/http"
    "strings"

    "github.com/shash06sp/Project-LogiSwift/internal/auth"
    "github.com/shash06sp/Project-LogiSwift/internal/config"
    "github.com/shash06sp/Project-LogiSwift/internal/osrm"
    "github.com/shash06sp/Project-LogiSwift/internal/store"
    "github.com/shash06sp/Project-LogiSwift/internal/webhooks"
)

type Server struct {
    Cfg    config.Config
    Store  store.Store
    Pub    *webhooks.Publisher
    Auth   *auth.Verifier
    Broker EventBroker
    OSRM   *osrm.Client
}

// NewServer builds a Server from configuration. With no databaseUrl it runs
// on the in-memory store, which is enough for dev and tests.
func NewServer() (*Server, error) {
    cfg, err := config.Load()
    if err != nil {
        return nil, err
    }
    var s store.Store
    if strings.TrimSpace(cfg.DatabaseURL) == "" {
        s = store.NewMemory()
    } else {
        sp, err := store.NewPostgres(cfg.DatabaseURL)
        if err != nil {
            return nil, err
        }
        // Run migrations (dev helper)
        if cfg.Migrate {
            _ = sp.MigrateDir("db/migrations")
        }
        s = sp
    }
    // Broker selection
    var broker EventBroker
    if cfg.RedisURL != "" {
        if rb, err := NewRedisBroker(cfg.RedisURL); err == nil { broker = rb } else { broker = NewBroker() }
    } else {
        broker = NewBroker()
    }
    osrmClient := osrm.NewClient(cfg.OSRMBaseURL)
    return &Server{
        Cfg:    cfg,
        Store:  s,
        Pub:    webhooks.NewPublisher(s),
        Auth:   auth.NewVerifier(cfg.AuthMode, cfg.AuthHMACSecret),
        Broker: broker,
        OSRM:   osrmClient,
    }, nil
}

func (s *Server) withTenant(r *http.Request) (context.Context, string) {
    tenant := s.getPrincipal(r).Tenant
    ctx := context.WithValue(r.Context(), ctxKeyTenant{}, tenant)
    return ctx, tenant
}

type ctxKeyTenant struct{}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
    return webhooks.NewWorker(s.Store, s.Cfg.WebhookMaxAttempts)
}

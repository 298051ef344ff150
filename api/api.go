// Package api exposes the engine over a local REST surface for a
// wallet front-end: session lifecycle, deposit launch and tracking,
// and route-commitment verification.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/stellaprotocol/anchorflow/commit"
	"github.com/stellaprotocol/anchorflow/flow"
	"github.com/stellaprotocol/anchorflow/wallet"
)

//go:embed openapi.yaml
var openapiSpec []byte

// API holds the dependencies needed by the REST handlers.
type API struct {
	session      *wallet.Session
	orchestrator *flow.Orchestrator
	registry     *flow.Registry
	verifier     *commit.Verifier
	logger       *slog.Logger
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger. If not set, a default JSON
// logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithVerifier enables the route-commitment verification endpoint.
// Without it the endpoint reports the feature as unavailable.
func WithVerifier(v *commit.Verifier) Option {
	return func(a *API) {
		a.verifier = v
	}
}

// New creates a new API instance.
func New(session *wallet.Session, orchestrator *flow.Orchestrator, registry *flow.Registry, opts ...Option) *API {
	a := &API{
		session:      session,
		orchestrator: orchestrator,
		registry:     registry,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	a.logger = a.logger.With("component", "api")
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/redoc",
	}, nil))

	r.Get("/wallet", a.WalletStatus)
	r.Post("/wallet/connect", a.ConnectWallet)
	r.Post("/wallet/manual", a.SetManualKeys)
	r.Post("/wallet/disconnect", a.DisconnectWallet)

	r.Post("/deposits", a.LaunchDeposit)
	r.Get("/deposits", a.ListDeposits)
	r.Get("/deposits/{flowID}", a.GetDeposit)
	r.Delete("/deposits/{flowID}", a.DismissDeposit)

	r.Post("/commitments/verify", a.VerifyCommitment)

	return r
}

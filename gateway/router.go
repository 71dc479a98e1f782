package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"synthpool/gateway/middleware"
)

type RouterConfig struct {
	Observability *middleware.Observability
	RateLimiter   *middleware.RateLimiter
	CORS          middleware.CORSConfig
}

// NewRouter mounts the pool API, health check and metrics endpoint.
func NewRouter(svc *Service, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))

	obs := cfg.Observability
	if obs != nil {
		r.Use(obs.Middleware("root"))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(v1 chi.Router) {
		if cfg.RateLimiter != nil {
			v1.Use(cfg.RateLimiter.Middleware("synth"))
		}
		if obs != nil {
			v1.Use(obs.Middleware("synth"))
		}

		v1.Get("/pool", svc.handlePool)
		v1.Get("/cycles/{index}", svc.handleCycle)
		v1.Get("/positions/{address}", svc.handlePosition)
		v1.Get("/positions/{address}/health", svc.handleHealth)
		v1.Get("/requests/{address}", svc.handleRequest)
		v1.Get("/lps/{address}", svc.handleLP)

		v1.Post("/deposits", svc.handleDeposit)
		v1.Post("/redemptions", svc.handleRedeem)
		v1.Post("/liquidations", svc.handleLiquidate)
		v1.Post("/requests/cancel", svc.handleCancel)
		v1.Post("/claims/asset", svc.handleClaimAsset)
		v1.Post("/claims/reserve", svc.handleClaimReserve)
		v1.Post("/collateral/add", svc.handleAddCollateral)
		v1.Post("/collateral/reduce", svc.handleReduceCollateral)
		v1.Post("/exit", svc.handleExit)

		v1.Route("/lp", func(lp chi.Router) {
			lp.Post("/add", svc.handleAddLiquidity)
			lp.Post("/reduce", svc.handleReduceLiquidity)
			lp.Post("/cancel", svc.handleCancelLiquidity)
			lp.Post("/collateral/add", svc.handleLPCollateralDeposit)
			lp.Post("/collateral/withdraw", svc.handleLPCollateralWithdraw)
			lp.Post("/interest/claim", svc.handleClaimInterest)
			lp.Post("/liquidations", svc.handleLiquidateLP)
			lp.Post("/liquidations/claim", svc.handleClaimLPLiquidation)
			lp.Post("/remove", svc.handleRemoveLP)
		})

		v1.Route("/cycle", func(cy chi.Router) {
			cy.Post("/offchain", svc.handleOffchain)
			cy.Post("/onchain", svc.handleOnchain)
			cy.Post("/deviation", svc.handleDeviation)
			cy.Post("/rebalance", svc.handleRebalance)
			cy.Post("/force", svc.handleForceRebalance)
		})

		v1.Post("/fees/withdraw", svc.handleWithdrawFees)
	})

	if obs != nil {
		r.Handle("/metrics", obs.MetricsHandler())
	}

	return r
}

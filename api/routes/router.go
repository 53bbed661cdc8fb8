package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shoppingcart/api/controllers"
	cartcontrollers "github.com/angelmondragon/shoppingcart/api/controllers/cart"
	"github.com/angelmondragon/shoppingcart/api/middleware"
	"github.com/angelmondragon/shoppingcart/internal/cart"
	"github.com/angelmondragon/shoppingcart/pkg/config"
	"github.com/angelmondragon/shoppingcart/pkg/logger"
)

// Deps are the collaborators the router hands to controllers.
type Deps struct {
	Carts    cartcontrollers.Opener
	Catalog  cartcontrollers.Finder
	Coupons  cart.CouponValidator
	Buyables map[string]cart.BuyableResolver
	Pingers  map[string]controllers.Pinger
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.CartIdentity(cfg.JWT, logg))

		r.Get("/", cartcontrollers.CartFetch(deps.Carts, deps.Buyables, logg))
		r.Delete("/", cartcontrollers.CartClear(deps.Carts, logg))
		r.Post("/items", cartcontrollers.CartAddItem(deps.Carts, deps.Catalog, logg))
		r.Patch("/items/{itemID}", cartcontrollers.CartUpdateItem(deps.Carts, logg))
		r.Delete("/items/{itemID}", cartcontrollers.CartRemoveItem(deps.Carts, logg))
		r.Post("/coupon", cartcontrollers.CartApplyCoupon(deps.Carts, deps.Coupons, logg))
		r.Delete("/coupon", cartcontrollers.CartRemoveCoupon(deps.Carts, logg))
	})

	return r
}

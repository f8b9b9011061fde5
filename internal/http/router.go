package httpapi

import (
	"expvar"
	"net/http"
)

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(app *App) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/skus", app.skusHandler)
	mux.HandleFunc("/skus/", app.skuItemHandler)
	mux.HandleFunc("/denominations", app.denominationsHandler)
	mux.HandleFunc("/denominations/", app.denominationItemHandler)
	mux.HandleFunc("/coins", app.coinsHandler)
	mux.HandleFunc("/coins/restock", app.restockHandler)
	mux.HandleFunc("/coins/withdraw", app.withdrawHandler)
	mux.HandleFunc("/quotes", app.quotesHandler)
	mux.HandleFunc("/purchases", app.purchasesHandler)
	mux.HandleFunc("/sales", app.salesHandler)
	mux.HandleFunc("/healthz", app.healthHandler)
	mux.HandleFunc("/debug/metrics", app.metricsHandler)
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/openapi.yaml", app.openapiHandler)
	mux.HandleFunc("/docs", app.docsHandler)
	return WithRequestID(WithLogging(WithRecover(mux)))
}

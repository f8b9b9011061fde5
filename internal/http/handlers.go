package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fairyhunter13/vending-machine-service/internal/config"
	httpopenapi "github.com/fairyhunter13/vending-machine-service/internal/http/openapi"
	"github.com/fairyhunter13/vending-machine-service/internal/ledger"
	"github.com/fairyhunter13/vending-machine-service/internal/model"
	"github.com/fairyhunter13/vending-machine-service/internal/money"
	"github.com/fairyhunter13/vending-machine-service/internal/obs"
	"github.com/fairyhunter13/vending-machine-service/internal/vending"
)

type App struct {
	Cfg     config.Config
	Machine *vending.Machine
	Ledger  *ledger.Manager
	closing bool
	started time.Time
}

func NewApp(cfg config.Config, m *vending.Machine, lm *ledger.Manager) *App {
	return &App{Cfg: cfg, Machine: m, Ledger: lm, started: time.Now()}
}

func (a *App) StartShutdown() {
	a.closing = true
	if a.Ledger != nil {
		a.Ledger.CloseIntake()
	}
}

type addSKURequest struct {
	ID          string        `json:"id"`
	Price       *money.Amount `json:"price"`
	Count       uint32        `json:"count"`
	Description string        `json:"description"`
}

type updateSKURequest struct {
	Price       *money.Amount `json:"price"`
	Count       *uint32       `json:"count"`
	Description *string       `json:"description"`
}

type denominationRequest struct {
	Denomination model.Denomination `json:"denomination"`
}

type coinMoveRequest struct {
	Denomination model.Denomination `json:"denomination"`
	Count        uint32             `json:"count"`
}

type purchaseRequest struct {
	SKU   string           `json:"sku"`
	Coins model.CoinBucket `json:"coins"`
}

type quoteRequest struct {
	SKU      string        `json:"sku"`
	Tendered *money.Amount `json:"tendered"`
}

type purchaseAck struct {
	Status        string           `json:"status"`
	RequestID     string           `json:"request_id"`
	TransactionID string           `json:"transaction_id"`
	Sequence      uint64           `json:"sequence"`
	SKU           string           `json:"sku"`
	Paid          money.Amount     `json:"paid"`
	Change        money.Amount     `json:"change"`
	ChangeCoins   model.CoinBucket `json:"change_coins"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return false
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// skusHandler serves GET /skus (list) and POST /skus (admin add).
func (a *App) skusHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, a.Machine.Catalog().List())
	case http.MethodPost:
		var req addSKURequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.ID == "" {
			WriteJSONError(w, http.StatusBadRequest, "validation_error", "id is required")
			return
		}
		if req.Price == nil {
			WriteJSONError(w, http.StatusBadRequest, "validation_error", "price is required")
			return
		}
		if err := a.Machine.Catalog().Add(req.ID, *req.Price, req.Count, req.Description); err != nil {
			writeDomainError(w, err)
			return
		}
		sku, _ := a.Machine.Catalog().Get(req.ID)
		writeJSON(w, http.StatusCreated, sku)
		obs.Logger.Info("sku_added", "sku", req.ID, "price", req.Price.String(), "count", req.Count,
			"request_id", RequestIDFromContext(r.Context()))
	default:
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	}
}

// skuItemHandler serves /skus/{id} and /skus/sequence/{n}.
func (a *App) skuItemHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/skus/")
	if rest == "" {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	if n, ok := strings.CutPrefix(rest, "sequence/"); ok {
		a.skuBySequence(w, r, n)
		return
	}
	switch r.Method {
	case http.MethodGet:
		sku, ok := a.Machine.Catalog().Get(rest)
		if !ok {
			WriteJSONError(w, http.StatusNotFound, "not_found", "")
			return
		}
		writeJSON(w, http.StatusOK, sku)
	case http.MethodPatch:
		var req updateSKURequest
		if !decodeJSON(w, r, &req) {
			return
		}
		cat := a.Machine.Catalog()
		if req.Price != nil {
			if err := cat.UpdatePrice(rest, *req.Price); err != nil {
				writeDomainError(w, err)
				return
			}
		}
		if req.Count != nil {
			if err := cat.UpdateCount(rest, *req.Count); err != nil {
				writeDomainError(w, err)
				return
			}
		}
		if req.Description != nil {
			if err := cat.UpdateDescription(rest, *req.Description); err != nil {
				writeDomainError(w, err)
				return
			}
		}
		sku, ok := cat.Get(rest)
		if !ok {
			WriteJSONError(w, http.StatusNotFound, "not_found", "")
			return
		}
		writeJSON(w, http.StatusOK, sku)
	case http.MethodDelete:
		if err := a.Machine.Catalog().Remove(rest); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	}
}

func (a *App) skuBySequence(w http.ResponseWriter, r *http.Request, raw string) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "sequence must be a positive integer")
		return
	}
	id, err := a.Machine.Catalog().NameForSequence(n)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sequence": n, "id": id})
}

// denominationsHandler serves GET /denominations and POST /denominations.
func (a *App) denominationsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, a.Machine.Coins().Accepted())
	case http.MethodPost:
		var req denominationRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Denomination.Value() <= 0 {
			WriteJSONError(w, http.StatusBadRequest, "validation_error", "denomination must be positive")
			return
		}
		if !a.Machine.Coins().AddDenomination(req.Denomination) {
			WriteJSONError(w, http.StatusConflict, "already_exists", "denomination already accepted")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"denomination": req.Denomination})
		obs.Logger.Info("denomination_added", "denomination", req.Denomination.String(),
			"request_id", RequestIDFromContext(r.Context()))
	default:
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	}
}

// denominationItemHandler serves DELETE /denominations/{value}.
func (a *App) denominationItemHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/denominations/")
	v, err := money.Parse(raw)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "invalid denomination")
		return
	}
	if !a.Machine.Coins().RemoveDenomination(model.Denomination(v)) {
		WriteJSONError(w, http.StatusNotFound, "not_found", "denomination not accepted")
		return
	}
	w.WriteHeader(http.StatusNoContent)
	obs.Logger.Info("denomination_removed", "denomination", v.String(),
		"request_id", RequestIDFromContext(r.Context()))
}

// coinsHandler serves GET /coins (stock snapshot).
func (a *App) coinsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	writeJSON(w, http.StatusOK, a.Machine.Coins().Counts())
}

// restockHandler serves POST /coins/restock.
func (a *App) restockHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	var req coinMoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	total, err := a.Machine.Coins().Deposit(req.Denomination, req.Count)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"denomination": req.Denomination, "count": total})
	obs.Logger.Info("coins_restocked", "denomination", req.Denomination.String(), "added", req.Count, "count", total,
		"request_id", RequestIDFromContext(r.Context()))
}

// withdrawHandler serves POST /coins/withdraw.
func (a *App) withdrawHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	var req coinMoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	total, err := a.Machine.Coins().Withdraw(req.Denomination, req.Count)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"denomination": req.Denomination, "count": total})
	obs.Logger.Info("coins_withdrawn", "denomination", req.Denomination.String(), "removed", req.Count, "count", total,
		"request_id", RequestIDFromContext(r.Context()))
}

// quotesHandler serves POST /quotes (affordability check).
func (a *App) quotesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	var req quoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SKU == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "sku is required")
		return
	}
	var tendered money.Amount
	if req.Tendered != nil {
		tendered = *req.Tendered
	}
	q, err := a.Machine.Quote(req.SKU, tendered)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// purchasesHandler serves POST /purchases, the buying transaction.
func (a *App) purchasesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	if a.closing || (a.Ledger != nil && a.Ledger.IsShuttingDown()) {
		WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
		return
	}
	var req purchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SKU == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "sku is required")
		return
	}
	rcpt, err := a.Machine.Purchase(req.SKU, req.Coins)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	ack := purchaseAck{
		Status:        "success",
		RequestID:     RequestIDFromContext(r.Context()),
		TransactionID: rcpt.TransactionID,
		Sequence:      rcpt.Sequence,
		SKU:           rcpt.SKU,
		Paid:          rcpt.Paid,
		Change:        rcpt.Change,
		ChangeCoins:   rcpt.ChangeCoins,
	}
	writeJSON(w, http.StatusOK, ack)
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	m := map[string]any{
		"sku_count":  a.Machine.Catalog().Len(),
		"uptime_sec": time.Since(a.started).Seconds(),
	}
	if a.Ledger != nil {
		enq, proc, backlog, depth := a.Ledger.QueueMetrics()
		units, revenue := a.Ledger.Book().Totals()
		m["sales_enqueued"] = enq
		m["sales_recorded"] = proc
		m["backlog_size"] = backlog
		m["queue_depth"] = depth
		m["worker_count"] = a.Ledger.WorkerCount()
		m["units_sold"] = units
		m["revenue"] = revenue.String()
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *App) salesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	if a.Ledger == nil {
		WriteJSONError(w, http.StatusNotFound, "not_found", "no ledger attached")
		return
	}
	writeJSON(w, http.StatusOK, a.Ledger.Book().Snapshot())
}

func (a *App) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}

func (a *App) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
	_, _ = w.Write([]byte(html))
}

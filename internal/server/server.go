// Package server exposes the HTTP API orchestrating the token workflow.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"hivemint/internal/observability"
	"hivemint/internal/storage"
	"hivemint/internal/workflow"
)

// Server wires the workflow operations to HTTP endpoints.
type Server struct {
	workflow        *workflow.Service
	environment     string
	explorerBaseURL string
	allowedOrigins  map[string]bool
	logger          *log.Logger
}

// Options configures a Server.
type Options struct {
	Workflow        *workflow.Service
	Environment     string
	ExplorerBaseURL string
	AllowedOrigins  []string
	Logger          *log.Logger
}

// New creates a Server.
func New(opts Options) *Server {
	origins := make(map[string]bool, len(opts.AllowedOrigins))
	for _, o := range opts.AllowedOrigins {
		origins[o] = true
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		workflow:        opts.Workflow,
		environment:     opts.Environment,
		explorerBaseURL: opts.ExplorerBaseURL,
		allowedOrigins:  origins,
		logger:          logger,
	}
}

// Handler builds the routing table with CORS and metrics middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/create-token", s.handleCreateToken)
	mux.HandleFunc("POST /api/mint-nft", s.handleMintNFT)
	mux.HandleFunc("POST /api/buy-hive", s.handleBuyHive)
	mux.HandleFunc("GET /api/hive-status/{hiveId}", s.handleHiveStatus)
	mux.Handle("GET /metrics", observability.Handler())

	return s.cors(s.measure(mux))
}

// cors allows requests without an Origin header and requests whose Origin is
// on the allow-list; everything else is rejected.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if !s.allowedOrigins[origin] {
				writeJSON(w, http.StatusForbidden, errorBody("origin not allowed"))
				return
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// measure records request durations per path pattern and status.
func (s *Server) measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		observability.RecordRequest(r.URL.Path, strconv.Itoa(rec.status), time.Since(start).Seconds())
	})
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": s.environment,
	})
}

// handleCreateToken creates a new collection and returns both key pairs in
// cleartext. The service retains no key material.
func (s *Server) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	}
	// An empty body is fine: defaults apply.
	_ = json.NewDecoder(r.Body).Decode(&req)

	col, err := s.workflow.CreateCollection(r.Context(), req.Name, req.Symbol)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"tokenId":       col.CollectionID,
		"supplyKey":     col.SupplyKey,
		"adminKey":      col.AdminKey,
		"transactionId": col.TransactionID,
	})
}

// mintRequest is the POST /api/mint-nft body.
type mintRequest struct {
	TokenID     string  `json:"tokenId"`
	SupplyKey   string  `json:"supplyKey"`
	HiveID      string  `json:"hiveId"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Location    string  `json:"location"`
	Farmer      string  `json:"farmer"`
	Price       float64 `json:"price"`
}

// handleMintNFT mints a single token for the supplied hive attributes.
func (s *Server) handleMintNFT(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	out, err := s.workflow.MintHive(r.Context(), workflow.MintRequest{
		CollectionID: req.TokenID,
		SupplyKey:    req.SupplyKey,
		HiveID:       req.HiveID,
		Name:         req.Name,
		Description:  req.Description,
		Image:        req.Image,
		Location:     req.Location,
		Farmer:       req.Farmer,
		Price:        req.Price,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"serialNumber": out.SerialNumber,
		"tokenId":      out.CollectionID,
		"ipfsURL":      out.MetadataURI,
		"explorerUrl":  s.explorerBaseURL + "/token/" + out.CollectionID + "/" + strconv.FormatInt(out.SerialNumber, 10),
	})
}

// buyRequest is the POST /api/buy-hive body.
type buyRequest struct {
	HiveID            string `json:"hiveId"`
	InvestorAccountID string `json:"investorAccountId"`
	TokenID           string `json:"tokenId"`
	SupplyKey         string `json:"supplyKey"`
}

// handleBuyHive runs the full purchase workflow.
func (s *Server) handleBuyHive(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	out, err := s.workflow.Purchase(r.Context(), workflow.PurchaseRequest{
		HiveID:       req.HiveID,
		BuyerAccount: req.InvestorAccountID,
		CollectionID: req.TokenID,
		SupplyKey:    req.SupplyKey,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"serialNumber":  strconv.FormatInt(out.SerialNumber, 10),
		"tokenId":       out.CollectionID,
		"explorerUrl":   s.explorerBaseURL + "/transaction/" + out.TransactionID,
		"transactionId": out.TransactionID,
		"message":       "Hive purchased successfully",
	})
}

// handleHiveStatus reports the current state of one hive record.
func (s *Server) handleHiveStatus(w http.ResponseWriter, r *http.Request) {
	hive, err := s.workflow.Status(r.Context(), r.PathValue("hiveId"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"hiveId":       hive.ID,
		"status":       hive.Status,
		"isAvailable":  hive.Purchasable(),
		"owner":        hive.Owner,
		"serialNumber": hive.SerialNumber,
	})
}

// writeError converts workflow and storage errors to the uniform failure
// payload with a status reflecting the error class. Ledger messages pass
// through verbatim.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case workflow.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
		err = errors.New("Hive not found")
	case errors.Is(err, workflow.ErrAlreadySold):
		status = http.StatusBadRequest
	case errors.Is(err, workflow.ErrPurchasePending):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.logger.Printf("request failed: %v", err)
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func errorBody(msg string) map[string]any {
	return map[string]any{"success": false, "error": msg}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

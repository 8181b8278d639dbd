// Package server exposes the session store, allocation engine, and receipt
// parser as a JSON HTTP API.
package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tabsplit/internal/auth"
	"tabsplit/internal/receipt"
	"tabsplit/internal/session"
)

// ReceiptParser is the receipt-parsing collaborator boundary. Implemented
// by receipt.Client; stubbed in tests.
type ReceiptParser interface {
	ParseImage(ctx context.Context, dataURL string) (*receipt.Receipt, error)
}

// Server holds the handler dependencies.
type Server struct {
	store         *session.Store
	parser        ReceiptParser
	shares        *auth.ShareManager
	maxBodyBytes  int64
	maxImageBytes int64
}

// New creates a Server. maxImageBytes bounds the decoded size of uploaded
// receipt images; request bodies carrying them are capped a bit higher to
// leave room for base64 overhead.
func New(store *session.Store, parser ReceiptParser, shares *auth.ShareManager, maxImageBytes int64) *Server {
	return &Server{
		store:         store,
		parser:        parser,
		shares:        shares,
		maxBodyBytes:  1 << 16,
		maxImageBytes: maxImageBytes,
	}
}

// Handler returns the routed API handler. Cross-cutting middleware
// (logging, CORS, metrics) is layered on by the caller.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDeleteSession)

	mux.HandleFunc("POST /api/v1/sessions/{id}/people", s.handleAddPerson)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}/people/{personID}", s.handleRemovePerson)

	mux.HandleFunc("POST /api/v1/sessions/{id}/items", s.handleAddItem)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/items/{itemID}", s.handleUpdateItem)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}/items/{itemID}", s.handleRemoveItem)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/items/{itemID}/assignees", s.handleAssignItem)

	mux.HandleFunc("PUT /api/v1/sessions/{id}/tax", s.handleSetTax)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/tip", s.handleSetTip)
	mux.HandleFunc("GET /api/v1/sessions/{id}/summary", s.handleSummary)

	mux.HandleFunc("POST /api/v1/sessions/{id}/parse-receipt", s.handleParseReceipt)

	mux.HandleFunc("POST /api/v1/sessions/{id}/share", s.handleCreateShare)
	mux.HandleFunc("GET /api/v1/shared/{token}", s.handleGetShared)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

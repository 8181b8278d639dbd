package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"tabsplit/internal/calculator"
	"tabsplit/internal/models"
	"tabsplit/internal/receipt"
	"tabsplit/internal/session"
)

type sessionResponse struct {
	ID      string             `json:"id"`
	People  []models.Person    `json:"people"`
	Items   []models.BillItem  `json:"items"`
	Tax     float64            `json:"tax"`
	Tip     float64            `json:"tip"`
	Summary models.BillSummary `json:"summary"`
}

// sessionState snapshots a session and recomputes its summary. Every state
// change responds with this, mirroring the recompute-on-every-change flow.
func sessionState(sess *session.Session) sessionResponse {
	people, items, tax, tip := sess.Snapshot()
	return sessionResponse{
		ID:      sess.ID,
		People:  people,
		Items:   items,
		Tax:     tax,
		Tip:     tip,
		Summary: calculator.CalculateSplit(items, people, tax, tip),
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Create()
	slog.Info("Session created", "session_id", sess.ID)
	writeJSON(w, http.StatusCreated, sessionState(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, http.StatusOK, sessionState(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.store.Delete(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddPerson(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req, s.maxBodyBytes); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := sess.AddPerson(req.Name); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionState(sess))
}

func (s *Server) handleRemovePerson(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(w, r)
	if sess == nil {
		return
	}

	if err := sess.RemovePerson(r.PathValue("personID")); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionState(sess))
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	if err := decodeJSON(r, &req, s.maxBodyBytes); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := sess.AddItem(req.Name, req.Price); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionState(sess))
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	if err := decodeJSON(r, &req, s.maxBodyBytes); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := sess.UpdateItem(r.PathValue("itemID"), req.Name, req.Price); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionState(sess))
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(w, r)
	if sess == nil {
		return
	}

	if err := sess.RemoveItem(r.PathValue("itemID")); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionState(sess))
}

func (s *Server) handleAssignItem(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(w, r)
	if sess == nil {
		return
	}

	var req struct {
		PersonIDs []string `json:"personIds"`
	}
	if err := decodeJSON(r, &req, s.maxBodyBytes); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := sess.AssignItem(r.PathValue("itemID"), req.PersonIDs); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionState(sess))
}

func (s *Server) handleSetTax(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := decodeJSON(r, &req, s.maxBodyBytes); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Amount < 0 {
		writeError(w, http.StatusBadRequest, "tax cannot be negative")
		return
	}

	sess.SetTax(req.Amount)
	writeJSON(w, http.StatusOK, sessionState(sess))
}

func (s *Server) handleSetTip(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Amount  *float64 `json:"amount,omitempty"`
		Percent *float64 `json:"percent,omitempty"`
	}
	if err := decodeJSON(r, &req, s.maxBodyBytes); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case req.Amount != nil && req.Percent != nil:
		writeError(w, http.StatusBadRequest, "provide either amount or percent, not both")
	case req.Amount != nil:
		if *req.Amount < 0 {
			writeError(w, http.StatusBadRequest, "tip cannot be negative")
			return
		}
		sess.SetTip(*req.Amount)
		writeJSON(w, http.StatusOK, sessionState(sess))
	case req.Percent != nil:
		if *req.Percent < 0 {
			writeError(w, http.StatusBadRequest, "tip percent cannot be negative")
			return
		}
		_, items, tax, _ := sess.Snapshot()
		var subtotal float64
		for _, item := range items {
			subtotal += item.Price
		}
		sess.SetTip(calculator.TipFromPercent(subtotal, tax, *req.Percent))
		writeJSON(w, http.StatusOK, sessionState(sess))
	default:
		writeError(w, http.StatusBadRequest, "amount or percent required")
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, http.StatusOK, sess.Summary())
}

func (s *Server) handleParseReceipt(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(w, r)
	if sess == nil {
		return
	}

	var req struct {
		Image string `json:"image"`
	}
	// Base64 inflates the image by a third; cap the body accordingly.
	if err := decodeJSON(r, &req, s.maxImageBytes*2); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	parsed, err := s.parser.ParseImage(r.Context(), req.Image)
	if err != nil {
		switch {
		case errors.Is(err, receipt.ErrNoImage),
			errors.Is(err, receipt.ErrInvalidImage),
			errors.Is(err, receipt.ErrUnsupportedMedia):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("Receipt parsing failed", "session_id", sess.ID, "error", err)
			writeError(w, http.StatusBadGateway, "could not parse receipt, please enter items manually")
		}
		return
	}

	for _, item := range parsed.Items {
		// Parsed prices are already filtered and cent-rounded; items land
		// unassigned, i.e. split across everyone.
		if _, err := sess.AddItem(item.Name, item.Price); err != nil {
			slog.Warn("Skipping parsed item", "name", item.Name, "error", err)
		}
	}
	if parsed.Tax != nil && *parsed.Tax > 0 {
		if _, _, tax, _ := sess.Snapshot(); tax == 0 {
			sess.SetTax(*parsed.Tax)
		}
	}

	slog.Info("Receipt parsed", "session_id", sess.ID, "items", len(parsed.Items))
	writeJSON(w, http.StatusOK, struct {
		Receipt *receipt.Receipt `json:"receipt"`
		Session sessionResponse  `json:"session"`
	}{Receipt: parsed, Session: sessionState(sess)})
}

func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(w, r)
	if sess == nil {
		return
	}

	token, expiresAt, err := s.shares.Generate(sess.ID)
	if err != nil {
		slog.Error("Failed to generate share token", "session_id", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not create share link")
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}{Token: token, ExpiresAt: expiresAt})
}

func (s *Server) handleGetShared(w http.ResponseWriter, r *http.Request) {
	sessionID, err := s.shares.Validate(r.PathValue("token"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired share link")
		return
	}

	sess, err := s.store.Get(sessionID)
	if err != nil {
		// Token outlived the session.
		writeError(w, http.StatusNotFound, "this split is no longer available")
		return
	}

	people, _, _, _ := sess.Snapshot()
	writeJSON(w, http.StatusOK, struct {
		People  []models.Person    `json:"people"`
		Summary models.BillSummary `json:"summary"`
	}{People: people, Summary: sess.Summary()})
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tabsplit/internal/auth"
	"tabsplit/internal/receipt"
	"tabsplit/internal/session"
)

type fakeParser struct {
	receipt *receipt.Receipt
	err     error
}

func (f fakeParser) ParseImage(ctx context.Context, dataURL string) (*receipt.Receipt, error) {
	return f.receipt, f.err
}

func newTestServer(parser ReceiptParser) *Server {
	store := session.NewStore(time.Hour)
	shares := auth.NewShareManager("test-secret", time.Hour)
	return New(store, parser, shares, 4<<20)
}

// do runs a request through the routed handler and decodes the JSON reply.
func do(t *testing.T, h http.Handler, method, path, body string, wantStatus int) map[string]any {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != wantStatus {
		t.Fatalf("%s %s status = %d, want %d (body: %s)", method, path, rr.Code, wantStatus, rr.Body.String())
	}
	if rr.Body.Len() == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: invalid JSON response: %v", method, path, err)
	}
	return out
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	resp := do(t, h, http.MethodPost, "/api/v1/sessions", "", http.StatusCreated)
	id, _ := resp["id"].(string)
	if id == "" {
		t.Fatal("create session returned no id")
	}
	return id
}

func addPerson(t *testing.T, h http.Handler, sessionID, name string) string {
	t.Helper()
	resp := do(t, h, http.MethodPost, "/api/v1/sessions/"+sessionID+"/people",
		fmt.Sprintf(`{"name": %q}`, name), http.StatusCreated)
	people := resp["people"].([]any)
	last := people[len(people)-1].(map[string]any)
	return last["id"].(string)
}

func addItem(t *testing.T, h http.Handler, sessionID, name string, price float64) string {
	t.Helper()
	resp := do(t, h, http.MethodPost, "/api/v1/sessions/"+sessionID+"/items",
		fmt.Sprintf(`{"name": %q, "price": %v}`, name, price), http.StatusCreated)
	items := resp["items"].([]any)
	last := items[len(items)-1].(map[string]any)
	return last["id"].(string)
}

func TestSessionFlow(t *testing.T) {
	h := newTestServer(fakeParser{}).Handler()

	sessionID := createSession(t, h)
	alice := addPerson(t, h, sessionID, "Alice")
	bob := addPerson(t, h, sessionID, "Bob")

	addItem(t, h, sessionID, "Pizza", 30.0)
	burger := addItem(t, h, sessionID, "Burger", 10.0)

	// Burger is Bob's alone; pizza stays split across everyone.
	do(t, h, http.MethodPut,
		fmt.Sprintf("/api/v1/sessions/%s/items/%s/assignees", sessionID, burger),
		fmt.Sprintf(`{"personIds": [%q]}`, bob), http.StatusOK)

	do(t, h, http.MethodPut, "/api/v1/sessions/"+sessionID+"/tax",
		`{"amount": 4.0}`, http.StatusOK)
	// 20% of the 40.00 subtotal.
	do(t, h, http.MethodPut, "/api/v1/sessions/"+sessionID+"/tip",
		`{"percent": 20}`, http.StatusOK)

	summary := do(t, h, http.MethodGet, "/api/v1/sessions/"+sessionID+"/summary", "", http.StatusOK)

	if got := summary["totalBill"].(float64); math.Abs(got-52.0) > 1e-9 {
		t.Errorf("totalBill = %v, want 52.0", got)
	}
	if got := summary["tip"].(float64); math.Abs(got-8.0) > 1e-9 {
		t.Errorf("tip = %v, want 8.0 (20%% of subtotal)", got)
	}

	perPerson := summary["perPerson"].([]any)
	if len(perPerson) != 2 {
		t.Fatalf("perPerson has %d entries, want 2", len(perPerson))
	}
	byID := map[string]map[string]any{}
	for _, raw := range perPerson {
		p := raw.(map[string]any)
		byID[p["personId"].(string)] = p
	}
	// Alice: 15 (half pizza); Bob: 15 + 10.
	if got := byID[alice]["subtotal"].(float64); math.Abs(got-15.0) > 1e-9 {
		t.Errorf("Alice subtotal = %v, want 15.0", got)
	}
	if got := byID[bob]["subtotal"].(float64); math.Abs(got-25.0) > 1e-9 {
		t.Errorf("Bob subtotal = %v, want 25.0", got)
	}

	// Removing Bob scrubs his assignment; the burger reverts to everyone,
	// which is now Alice alone.
	do(t, h, http.MethodDelete,
		fmt.Sprintf("/api/v1/sessions/%s/people/%s", sessionID, bob), "", http.StatusOK)
	summary = do(t, h, http.MethodGet, "/api/v1/sessions/"+sessionID+"/summary", "", http.StatusOK)
	perPerson = summary["perPerson"].([]any)
	if len(perPerson) != 1 {
		t.Fatalf("perPerson has %d entries after removal, want 1", len(perPerson))
	}
	if got := perPerson[0].(map[string]any)["subtotal"].(float64); math.Abs(got-40.0) > 1e-9 {
		t.Errorf("Alice subtotal after removal = %v, want 40.0", got)
	}

	do(t, h, http.MethodDelete, "/api/v1/sessions/"+sessionID, "", http.StatusNoContent)
	do(t, h, http.MethodGet, "/api/v1/sessions/"+sessionID, "", http.StatusNotFound)
}

func TestValidationErrors(t *testing.T) {
	h := newTestServer(fakeParser{}).Handler()
	sessionID := createSession(t, h)

	do(t, h, http.MethodGet, "/api/v1/sessions/no-such-session", "", http.StatusNotFound)

	do(t, h, http.MethodPost, "/api/v1/sessions/"+sessionID+"/people",
		`{"name": "   "}`, http.StatusBadRequest)
	do(t, h, http.MethodPost, "/api/v1/sessions/"+sessionID+"/items",
		`{"name": "Pizza", "price": -5}`, http.StatusBadRequest)
	do(t, h, http.MethodPost, "/api/v1/sessions/"+sessionID+"/items",
		`not json`, http.StatusBadRequest)
	do(t, h, http.MethodPut, "/api/v1/sessions/"+sessionID+"/tax",
		`{"amount": -1}`, http.StatusBadRequest)
	do(t, h, http.MethodPut, "/api/v1/sessions/"+sessionID+"/tip",
		`{}`, http.StatusBadRequest)
	do(t, h, http.MethodPut, "/api/v1/sessions/"+sessionID+"/tip",
		`{"amount": 5, "percent": 20}`, http.StatusBadRequest)

	itemID := addItem(t, h, sessionID, "Pizza", 10)
	do(t, h, http.MethodPut,
		fmt.Sprintf("/api/v1/sessions/%s/items/%s/assignees", sessionID, itemID),
		`{"personIds": ["ghost"]}`, http.StatusNotFound)
	do(t, h, http.MethodDelete,
		"/api/v1/sessions/"+sessionID+"/items/no-such-item", "", http.StatusNotFound)
}

func TestParseReceiptEndpoint(t *testing.T) {
	tax := 4.5
	parsed := &receipt.Receipt{
		Items: []receipt.Item{
			{Name: "Pad Thai", Price: 13.38},
			{Name: "Curry", Price: 11.95},
		},
		Tax: &tax,
	}
	h := newTestServer(fakeParser{receipt: parsed}).Handler()
	sessionID := createSession(t, h)

	resp := do(t, h, http.MethodPost, "/api/v1/sessions/"+sessionID+"/parse-receipt",
		`{"image": "data:image/jpeg;base64,Zm9v"}`, http.StatusOK)

	sess := resp["session"].(map[string]any)
	items := sess["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("session has %d items, want 2", len(items))
	}
	// Parsed items land unassigned, i.e. split across everyone.
	first := items[0].(map[string]any)
	if assigned, ok := first["assignedTo"].([]any); ok && len(assigned) != 0 {
		t.Errorf("parsed item assignedTo = %v, want empty", assigned)
	}
	if got := sess["tax"].(float64); math.Abs(got-4.5) > 1e-9 {
		t.Errorf("session tax = %v, want parsed 4.5", got)
	}

	// A second parse must not overwrite a tax the user already set.
	do(t, h, http.MethodPut, "/api/v1/sessions/"+sessionID+"/tax",
		`{"amount": 9.99}`, http.StatusOK)
	resp = do(t, h, http.MethodPost, "/api/v1/sessions/"+sessionID+"/parse-receipt",
		`{"image": "data:image/jpeg;base64,Zm9v"}`, http.StatusOK)
	sess = resp["session"].(map[string]any)
	if got := sess["tax"].(float64); math.Abs(got-9.99) > 1e-9 {
		t.Errorf("session tax = %v, want kept 9.99", got)
	}
}

func TestParseReceiptErrors(t *testing.T) {
	badImage := newTestServer(fakeParser{err: receipt.ErrInvalidImage}).Handler()
	sessionID := createSession(t, badImage)
	do(t, badImage, http.MethodPost, "/api/v1/sessions/"+sessionID+"/parse-receipt",
		`{"image": "nope"}`, http.StatusBadRequest)

	upstream := newTestServer(fakeParser{err: receipt.ErrBadReply}).Handler()
	sessionID = createSession(t, upstream)
	do(t, upstream, http.MethodPost, "/api/v1/sessions/"+sessionID+"/parse-receipt",
		`{"image": "data:image/jpeg;base64,Zm9v"}`, http.StatusBadGateway)
}

func TestShareFlow(t *testing.T) {
	h := newTestServer(fakeParser{}).Handler()
	sessionID := createSession(t, h)
	addPerson(t, h, sessionID, "Alice")
	addItem(t, h, sessionID, "Pizza", 30)

	resp := do(t, h, http.MethodPost, "/api/v1/sessions/"+sessionID+"/share", "", http.StatusCreated)
	token := resp["token"].(string)
	if token == "" {
		t.Fatal("share returned empty token")
	}

	shared := do(t, h, http.MethodGet, "/api/v1/shared/"+token, "", http.StatusOK)
	summary := shared["summary"].(map[string]any)
	if got := summary["totalBill"].(float64); math.Abs(got-30.0) > 1e-9 {
		t.Errorf("shared totalBill = %v, want 30.0", got)
	}

	do(t, h, http.MethodGet, "/api/v1/shared/garbage-token", "", http.StatusUnauthorized)

	// Token outliving the session yields 404, not a stale summary.
	do(t, h, http.MethodDelete, "/api/v1/sessions/"+sessionID, "", http.StatusNoContent)
	do(t, h, http.MethodGet, "/api/v1/shared/"+token, "", http.StatusNotFound)
}

func TestHealthz(t *testing.T) {
	h := newTestServer(fakeParser{}).Handler()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rr.Code)
	}
}

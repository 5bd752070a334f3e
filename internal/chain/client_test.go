package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(Status{PeerCount: 4, BlockHeight: 100, UptimeSeconds: 3600})
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	status, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.PeerCount != 4 || status.BlockHeight != 100 {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestClient_Status_PeerGone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := c.Status(context.Background()); err != ErrPeerGone {
		t.Errorf("expected ErrPeerGone, got %v", err)
	}
}

func TestClient_Query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("kind") != "FindAllDomains" {
			t.Fatalf("unexpected kind %q", r.URL.Query().Get("kind"))
		}
		_ = json.NewEncoder(w).Encode(QueryResult{Items: []json.RawMessage{json.RawMessage(`{"name":"wonderland"}`)}, Total: 1})
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	result, err := c.Query(context.Background(), "FindAllDomains", nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if result.Total != 1 || len(result.Items) != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("expected error for missing base URL")
	}
}

func TestInstruction_JSONRoundTrip(t *testing.T) {
	raw := []byte(`{"Register":{"object":{"Domain":{"id":"wonderland"}}}}`)

	var inst Instruction
	if err := json.Unmarshal(raw, &inst); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if inst.Kind != "Register" {
		t.Errorf("kind = %q, want Register", inst.Kind)
	}

	out, err := json.Marshal(inst)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var reparsed Instruction
	if err := json.Unmarshal(out, &reparsed); err != nil {
		t.Fatalf("unmarshal round-trip: %v", err)
	}
	if reparsed.Kind != inst.Kind || string(reparsed.Payload) != string(inst.Payload) {
		t.Errorf("round-trip mismatch: %+v vs %+v", reparsed, inst)
	}
}

func TestInstruction_RejectsMultiKeyObject(t *testing.T) {
	var inst Instruction
	err := json.Unmarshal([]byte(`{"Register":{},"Mint":{}}`), &inst)
	if err == nil {
		t.Error("expected error for multi-key instruction object")
	}
}

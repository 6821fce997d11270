package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/create-checkout-session" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		if body["priceId"] != "price_pro" || body["userId"] != "u1" {
			t.Errorf("unexpected request body: %v", body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "cs_123"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	session, err := c.CreateCheckoutSession(context.Background(), "price_pro", "u1")
	if err != nil {
		t.Fatalf("create checkout session: %v", err)
	}
	if session.ID != "cs_123" {
		t.Fatalf("expected session id cs_123, got %q", session.ID)
	}
}

func TestCreatePortalSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/create-portal-session" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"url": "https://billing.example.com/portal/u1"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	session, err := c.CreatePortalSession(context.Background(), "u1")
	if err != nil {
		t.Fatalf("create portal session: %v", err)
	}
	if session.URL != "https://billing.example.com/portal/u1" {
		t.Fatalf("unexpected portal url %q", session.URL)
	}
}

func TestServerErrorWrapsErrService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.CreateCheckoutSession(context.Background(), "price_pro", "u1")
	if !errors.Is(err, ErrService) {
		t.Fatalf("expected ErrService, got %v", err)
	}
}

func TestEmptySessionRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.CreatePortalSession(context.Background(), "u1")
	if !errors.Is(err, ErrService) {
		t.Fatalf("expected ErrService for empty session, got %v", err)
	}
}

package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendLoginCode(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", WithAPIURL(server.URL))

	if err := client.SendLoginCode("worker@example.com", "042137"); err != nil {
		t.Fatalf("send login code: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "worker@example.com" {
		t.Errorf("To = %q, want %q", received.To, "worker@example.com")
	}
	if received.From != "noreply@example.com" {
		t.Errorf("From = %q, want %q", received.From, "noreply@example.com")
	}
	if !strings.Contains(received.TextBody, "042137") {
		t.Errorf("text body should contain the code, got %q", received.TextBody)
	}
}

func TestSendLoginCodeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", WithAPIURL(server.URL))
	if err := client.SendLoginCode("worker@example.com", "042137"); err == nil {
		t.Fatal("expected error for API failure")
	}
}

func TestSendLoginCodeNotConfigured(t *testing.T) {
	client := NewClient("", "noreply@example.com")

	if err := client.SendLoginCode("worker@example.com", "042137"); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}

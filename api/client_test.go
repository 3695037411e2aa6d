package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// staticToken is a TokenSource with a fixed value
type staticToken string

func (s staticToken) Token() string { return string(s) }

// newTestClient points a client at a test server
func newTestClient(t *testing.T, handler http.Handler, token string) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(server.URL, "http://img.example.com", 5*time.Second, staticToken(token))
	return client, server
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("42"))
	}), "jeton-test")

	if _, err := client.GetBalance(); err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if gotAuth != "Bearer jeton-test" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer jeton-test")
	}
}

func TestNoTokenNoHeader(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("[]"))
	}), "")

	if _, err := client.GetCategories(); err != nil {
		t.Fatalf("GetCategories: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("unauthenticated request carried Authorization header %q", gotAuth)
	}
}

func TestTransportFailureIsStatusZero(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // connection refused from now on
	client := NewClient(server.URL, "", time.Second, nil)

	_, err := client.GetBalance()
	apiErr, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if !apiErr.IsNetwork() {
		t.Errorf("expected network error (status 0), got status %d", apiErr.Status)
	}
}

func TestServerErrorCarriesExtractedMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"Annonce déjà approuvée"}`))
	}), "tok")

	_, err := client.ApproveAnnonce(7)
	apiErr, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Status != http.StatusConflict {
		t.Errorf("status = %d, want 409", apiErr.Status)
	}
	if apiErr.Message != "Annonce déjà approuvée" {
		t.Errorf("message = %q, want the server message unchanged", apiErr.Message)
	}
}

func TestResolveImageURL(t *testing.T) {
	client := NewClient("http://api.example.com/api", "http://img.example.com", time.Second, nil)

	cases := []struct{ in, want string }{
		{"", ""},
		{"https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"http://cdn.example.com/a.jpg", "http://cdn.example.com/a.jpg"},
		{"/uploads/a.jpg", "http://img.example.com/uploads/a.jpg"},
		{"uploads/a.jpg", "http://img.example.com/uploads/a.jpg"},
	}
	for _, tc := range cases {
		if got := client.ResolveImageURL(tc.in); got != tc.want {
			t.Errorf("ResolveImageURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

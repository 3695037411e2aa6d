package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"testing"
)

func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestUpdateTarifOmitsUnsetParams(t *testing.T) {
	var gotQuery url.Values
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"id":3,"typeName":"PREMIUM","price":600,"durationDays":30,"active":true}`))
	}), "tok")

	_, err := client.UpdateTarif(3, TarifUpdate{Price: intPtr(600)})
	if err != nil {
		t.Fatalf("UpdateTarif: %v", err)
	}
	if gotQuery.Get("price") != "600" {
		t.Errorf("price param = %q, want 600", gotQuery.Get("price"))
	}
	for _, absent := range []string{"durationDays", "active", "typeName"} {
		if _, present := gotQuery[absent]; present {
			t.Errorf("unset param %q was sent (%q); absent and zero mean different things only for set fields", absent, gotQuery.Get(absent))
		}
	}
}

func TestUpdateTarifNeverSendsNegativeDuration(t *testing.T) {
	var gotQuery url.Values
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"id":3,"typeName":"STANDARD","price":100,"durationDays":0,"active":true}`))
	}), "tok")

	updated, err := client.UpdateTarif(3, TarifUpdate{DurationDays: intPtr(-5)})
	if err != nil {
		t.Fatalf("UpdateTarif: %v", err)
	}
	if gotQuery.Get("durationDays") != "0" {
		t.Errorf("durationDays param = %q, want clamped to 0 (unlimited)", gotQuery.Get("durationDays"))
	}
	if updated.DurationDays != 0 {
		t.Errorf("read back durationDays = %d, want 0", updated.DurationDays)
	}
}

func TestUpdateTarifAllFields(t *testing.T) {
	var gotQuery url.Values
	var gotMethod, gotPath string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotMethod, gotPath = r.Method, r.URL.Path
		w.Write([]byte(`{"id":9,"typeName":"TOP_PUB","price":900,"durationDays":15,"active":false}`))
	}), "tok")

	_, err := client.UpdateTarif(9, TarifUpdate{
		Price:        intPtr(900),
		DurationDays: intPtr(15),
		Active:       boolPtr(false),
		TypeName:     strPtr("TOP_PUB"),
	})
	if err != nil {
		t.Fatalf("UpdateTarif: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/admin/tarifs/9" {
		t.Errorf("request = %s %s, want PUT /admin/tarifs/9", gotMethod, gotPath)
	}
	want := map[string]string{"price": "900", "durationDays": "15", "active": "false", "typeName": "TOP_PUB"}
	for key, value := range want {
		if gotQuery.Get(key) != value {
			t.Errorf("param %s = %q, want %q", key, gotQuery.Get(key), value)
		}
	}
}

func TestCreateTarifUnlimitedDurationOmitted(t *testing.T) {
	var gotBody map[string]json.RawMessage
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		w.Write([]byte(`{"id":1,"typeName":"STANDARD","price":100,"durationDays":0,"active":true}`))
	}), "tok")

	_, err := client.CreateTarif(TarifCreate{TypeName: "STANDARD", Price: 100, DurationDays: intPtr(0), Active: true})
	if err != nil {
		t.Fatalf("CreateTarif: %v", err)
	}
	if _, present := gotBody["durationDays"]; present {
		t.Error("durationDays <= 0 must be omitted, the backend reads absence as unlimited")
	}
}

func TestGetTarifsIdempotent(t *testing.T) {
	payload := `[{"id":1,"typeName":"STANDARD","price":100,"durationDays":30,"active":true},
	             {"id":2,"typeName":"PREMIUM","price":500,"durationDays":30,"active":true}]`
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}), "")

	first, err := client.GetTarifs()
	if err != nil {
		t.Fatalf("GetTarifs: %v", err)
	}
	second, err := client.GetTarifs()
	if err != nil {
		t.Fatalf("GetTarifs again: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("entry %d differs between identical fetches: %+v vs %+v", i, first[i], second[i])
		}
	}
}

package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tamsirfall/annonces-market-bot/api"
	"github.com/tamsirfall/annonces-market-bot/models"
)

type adminToken struct{}

func (adminToken) Token() string { return "admin-token" }

var moderationQueue = []models.Annonce{
	{ID: 1, Code: "ANN-001", Title: "Robe wax", SellerName: "Awa Diop", CategoryName: "Mode", Status: models.StatusPending, Location: "Dakar"},
	{ID: 2, Code: "ANN-002", Title: "Vélo tout terrain", SellerName: "Moussa Ba", CategoryName: "Sport", Status: models.StatusPending, Description: "VTT 26 pouces"},
	{ID: 3, Code: "ANN-003", Title: "Table basse", SellerName: "Awa Diop", CategoryName: "Maison", Status: models.StatusApproved, Location: "Thiès"},
}

// moderationServer fakes the admin endpoints. approveStatus lets a test force
// the transition to fail with a given status and message; approveDelay holds
// the transition open so calls can overlap.
type moderationServer struct {
	approveStatus  int
	approveMessage string
	approveDelay   time.Duration
	deleteCalls    int64
}

func (s *moderationServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/annonces", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Page[models.Annonce]{
			Content: moderationQueue, TotalElements: len(moderationQueue),
		})
	})
	mux.HandleFunc("POST /admin/annonces/{id}/approve", func(w http.ResponseWriter, r *http.Request) {
		if s.approveDelay > 0 {
			time.Sleep(s.approveDelay)
		}
		if s.approveStatus != 0 {
			w.WriteHeader(s.approveStatus)
			json.NewEncoder(w).Encode(map[string]string{"message": s.approveMessage})
			return
		}
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		for _, a := range moderationQueue {
			if a.ID == id {
				a.Status = models.StatusApproved
				json.NewEncoder(w).Encode(a)
				return
			}
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("POST /admin/annonces/{id}/reject", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		for _, a := range moderationQueue {
			if a.ID == id {
				a.Status = models.StatusRejected
				json.NewEncoder(w).Encode(a)
				return
			}
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("DELETE /admin/annonces/{id}", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.deleteCalls, 1)
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newConsoleFixture(t *testing.T, srv *moderationServer) *Console {
	t.Helper()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)
	client := api.NewClient(ts.URL, ts.URL, 5*time.Second, adminToken{})
	console := NewConsole(client)
	if err := console.LoadAnnonces(); err != nil {
		t.Fatalf("LoadAnnonces: %v", err)
	}
	return console
}

func TestSearchMatchesAcrossFields(t *testing.T) {
	console := newConsoleFixture(t, &moderationServer{})

	// substring match over title, code, seller, category, description and
	// location; case-insensitive, query trimmed
	cases := []struct {
		query string
		want  []int64
	}{
		{"", []int64{1, 2, 3}},
		{"robe", []int64{1}},
		{"ANN-002", []int64{2}},
		{"awa", []int64{1, 3}},
		{"sport", []int64{2}},
		{"26 pouces", []int64{2}},
		{"thiès", []int64{3}},
		{"  vélo  ", []int64{2}},
		{"introuvable", nil},
	}
	for _, tc := range cases {
		console.Search(tc.query)
		got := console.Annonces()
		if len(got) != len(tc.want) {
			t.Errorf("query %q: %d results, want %d", tc.query, len(got), len(tc.want))
			continue
		}
		for i, id := range tc.want {
			if got[i].ID != id {
				t.Errorf("query %q: result %d = annonce %d, want %d", tc.query, i, got[i].ID, id)
			}
		}
	}
}

func TestApprovePatchesLoadedList(t *testing.T) {
	console := newConsoleFixture(t, &moderationServer{})

	annonce, err := console.Approve(1)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if annonce.Status != models.StatusApproved {
		t.Errorf("status = %s, want APPROVED", annonce.Status)
	}

	console.Search("")
	list := console.Annonces()
	if list[0].ID != 1 || list[0].Status != models.StatusApproved {
		t.Errorf("list[0] = %+v, the loaded list must reflect the transition in place", list[0])
	}
	if list[1].ID != 2 || list[2].ID != 3 {
		t.Error("load order must be preserved")
	}
}

func TestApproveErrorLeavesListUntouched(t *testing.T) {
	srv := &moderationServer{
		approveStatus:  http.StatusConflict,
		approveMessage: "Cette annonce a déjà été traitée",
	}
	console := newConsoleFixture(t, srv)

	_, err := console.Approve(3)
	if err == nil {
		t.Fatal("want an error for a non-pending annonce")
	}
	apiErr, ok := api.AsError(err)
	if !ok {
		t.Fatalf("want *api.Error, got %T", err)
	}
	if apiErr.Message != "Cette annonce a déjà été traitée" {
		t.Errorf("message = %q, the server wording must come through unchanged", apiErr.Message)
	}

	list := console.Annonces()
	if len(list) != 3 {
		t.Fatalf("list length = %d, want 3", len(list))
	}
	if list[2].Status != models.StatusApproved {
		t.Errorf("list[2].Status = %s, a failed transition must not touch the list", list[2].Status)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	srv := &moderationServer{}
	console := newConsoleFixture(t, srv)

	if err := console.DeleteAnnonce(1, false); err != ErrConfirmationRequired {
		t.Fatalf("want ErrConfirmationRequired, got %v", err)
	}
	if n := atomic.LoadInt64(&srv.deleteCalls); n != 0 {
		t.Fatalf("delete calls = %d, nothing may fire before confirmation", n)
	}

	if err := console.DeleteAnnonce(1, true); err != nil {
		t.Fatalf("confirmed delete: %v", err)
	}
	if n := atomic.LoadInt64(&srv.deleteCalls); n != 1 {
		t.Errorf("delete calls = %d, want 1", n)
	}
	if len(console.Annonces()) != 2 {
		t.Errorf("list = %d entries after delete, want 2", len(console.Annonces()))
	}
}

func TestBusyLatchRejectsOverlappingCalls(t *testing.T) {
	console := newConsoleFixture(t, &moderationServer{})
	console.busy = true

	if _, err := console.Approve(1); err != ErrBusy {
		t.Errorf("Approve while busy = %v, want ErrBusy", err)
	}
	if _, err := console.Reject(1); err != ErrBusy {
		t.Errorf("Reject while busy = %v, want ErrBusy", err)
	}
	if err := console.DeleteAnnonce(1, true); err != ErrBusy {
		t.Errorf("DeleteAnnonce while busy = %v, want ErrBusy", err)
	}

	console.busy = false
	if _, err := console.Approve(1); err != nil {
		t.Errorf("Approve after release: %v", err)
	}
}

func TestOverlappingApprovalsAreSerialized(t *testing.T) {
	console := newConsoleFixture(t, &moderationServer{approveDelay: 50 * time.Millisecond})

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := console.Approve(1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes, busy := 0, 0
	for err := range results {
		switch err {
		case nil:
			successes++
		case ErrBusy:
			busy++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes < 1 {
		t.Error("at least one call must go through")
	}
	if successes+busy != 2 {
		t.Errorf("successes=%d busy=%d, every call must end as one or the other", successes, busy)
	}
}

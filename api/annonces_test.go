package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/tamsirfall/annonces-market-bot/models"
)

// fakeBackend remembers created annonces and their uploaded photos so tests
// can check round trips
type fakeBackend struct {
	mu       sync.Mutex
	nextID   int64
	annonces map[int64]*models.Annonce
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{nextID: 100, annonces: make(map[int64]*models.Annonce)}
}

func (f *fakeBackend) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /annonces", func(w http.ResponseWriter, r *http.Request) {
		var payload AnnonceCreate
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.nextID++
		annonce := &models.Annonce{
			ID:              f.nextID,
			Code:            fmt.Sprintf("ANN-%d", f.nextID),
			Title:           payload.Title,
			Price:           payload.Price,
			CategoryID:      payload.CategoryID,
			PublicationType: payload.PublicationType,
			Status:          models.StatusPending,
			Images:          []string{},
		}
		f.annonces[annonce.ID] = annonce
		f.mu.Unlock()
		json.NewEncoder(w).Encode(annonce)
	})

	mux.HandleFunc("POST /annonces/{id}/photos", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var id int64
		fmt.Sscanf(r.PathValue("id"), "%d", &id)
		f.mu.Lock()
		defer f.mu.Unlock()
		annonce, ok := f.annonces[id]
		if !ok {
			http.Error(w, `{"message":"annonce introuvable"}`, http.StatusNotFound)
			return
		}
		for _, fh := range r.MultipartForm.File["photos"] {
			annonce.Images = append(annonce.Images, "/uploads/"+fh.Filename)
		}
		json.NewEncoder(w).Encode(annonce)
	})

	mux.HandleFunc("GET /annonces/public/{id}", func(w http.ResponseWriter, r *http.Request) {
		var id int64
		fmt.Sscanf(r.PathValue("id"), "%d", &id)
		f.mu.Lock()
		defer f.mu.Unlock()
		annonce, ok := f.annonces[id]
		if !ok {
			http.Error(w, `{"message":"annonce introuvable"}`, http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(annonce)
	})

	return mux
}

func TestCreateAnnonceComesBackPending(t *testing.T) {
	backend := newFakeBackend()
	client, _ := newTestClient(t, backend.handler(t), "tok")

	created, err := client.CreateAnnonce(AnnonceCreate{
		Title: "Sac en cuir", Price: 15000, CategoryID: 1, PublicationType: "PREMIUM",
	})
	if err != nil {
		t.Fatalf("CreateAnnonce: %v", err)
	}
	if created.Status != models.StatusPending {
		t.Errorf("status = %s, want PENDING", created.Status)
	}
	if len(created.Images) != 0 {
		t.Errorf("a freshly created annonce must have no images, got %d", len(created.Images))
	}
}

func TestPhotoUploadRoundTripPreservesOrder(t *testing.T) {
	backend := newFakeBackend()
	client, _ := newTestClient(t, backend.handler(t), "tok")

	created, err := client.CreateAnnonce(AnnonceCreate{Title: "Chaussures", Price: 8000, CategoryID: 2, PublicationType: "STANDARD"})
	if err != nil {
		t.Fatalf("CreateAnnonce: %v", err)
	}

	names := []string{"face.jpg", "profil.png", "dos.webp"}
	uploads := make([]PhotoUpload, 0, len(names))
	for _, name := range names {
		uploads = append(uploads, PhotoUpload{
			FileName:    name,
			ContentType: "image/jpeg",
			Reader:      strings.NewReader("fake-bytes-" + name),
		})
	}
	if _, err := client.UploadAnnoncePhotos(created.ID, uploads); err != nil {
		t.Fatalf("UploadAnnoncePhotos: %v", err)
	}

	fetched, err := client.GetAnnonce(created.ID)
	if err != nil {
		t.Fatalf("GetAnnonce: %v", err)
	}
	if len(fetched.Images) != len(names) {
		t.Fatalf("image count = %d, want %d", len(fetched.Images), len(names))
	}
	for i, name := range names {
		if fetched.Images[i] != "/uploads/"+name {
			t.Errorf("image %d = %q, want %q (upload order must hold)", i, fetched.Images[i], "/uploads/"+name)
		}
	}
}

func TestUploadPhotosIsOneBatchedRequest(t *testing.T) {
	requests := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("not a multipart request: %v", err)
		}
		if got := len(r.MultipartForm.File["photos"]); got != 3 {
			t.Errorf("files under field %q = %d, want 3", "photos", got)
		}
		w.Write([]byte(`{"id":5,"images":["a","b","c"],"status":"PENDING"}`))
	}), "tok")

	uploads := []PhotoUpload{
		{FileName: "a.jpg", ContentType: "image/jpeg", Reader: strings.NewReader("a")},
		{FileName: "b.jpg", ContentType: "image/jpeg", Reader: strings.NewReader("b")},
		{FileName: "c.jpg", ContentType: "image/jpeg", Reader: strings.NewReader("c")},
	}
	if _, err := client.UploadAnnoncePhotos(5, uploads); err != nil {
		t.Fatalf("UploadAnnoncePhotos: %v", err)
	}
	if requests != 1 {
		t.Errorf("photo upload used %d requests, want a single batched one", requests)
	}
}

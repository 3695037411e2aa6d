package catalog

import (
	"log"
	"sync"

	"github.com/tamsirfall/annonces-market-bot/api"
	"github.com/tamsirfall/annonces-market-bot/models"
)

// adminPageSize matches what the admin screens load in one go
const adminPageSize = 100

// Store caches the reference data (categories and publication tarifs) used to
// seed wizard choices and admin screens. Reads return copies in fetch order,
// so two reads without a refresh in between are identical.
type Store struct {
	client *api.Client

	mu         sync.Mutex
	tarifs     []models.PublicationTarif
	categories []models.Category
}

// NewStore creates an empty reference-data cache
func NewStore(client *api.Client) *Store {
	return &Store{client: client}
}

// Refresh loads the public (active-only) categories and tarifs
func (s *Store) Refresh() error {
	tarifs, err := s.client.GetTarifs()
	if err != nil {
		return err
	}
	categories, err := s.client.GetCategories()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tarifs = tarifs
	s.categories = categories
	s.mu.Unlock()
	return nil
}

// RefreshAdmin loads the full tarif list, inactive entries included. When the
// admin endpoint rejects the call the public listing is used instead: admin
// screens degrade to active-only data rather than erroring out.
func (s *Store) RefreshAdmin() error {
	tarifs, err := s.adminTarifs()
	if err != nil {
		return err
	}
	categories, err := s.adminCategories()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tarifs = tarifs
	s.categories = categories
	s.mu.Unlock()
	return nil
}

func (s *Store) adminTarifs() ([]models.PublicationTarif, error) {
	page, err := s.client.GetAdminTarifs(0, adminPageSize)
	if err == nil {
		return page.Content, nil
	}
	log.Printf("Admin tarif listing failed, falling back to public endpoint: %v", err)
	return s.client.GetTarifs()
}

func (s *Store) adminCategories() ([]models.Category, error) {
	page, err := s.client.GetAdminCategories(0, adminPageSize)
	if err == nil {
		return page.Content, nil
	}
	log.Printf("Admin category listing failed, falling back to public endpoint: %v", err)
	return s.client.GetCategories()
}

// Tarifs returns the cached tarifs in fetch order
func (s *Store) Tarifs() []models.PublicationTarif {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PublicationTarif, len(s.tarifs))
	copy(out, s.tarifs)
	return out
}

// Categories returns the cached categories in fetch order
func (s *Store) Categories() []models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// ActiveTarifs returns the cached tarifs usable for new annonces
func (s *Store) ActiveTarifs() []models.PublicationTarif {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PublicationTarif
	for _, t := range s.tarifs {
		if t.Active {
			out = append(out, t)
		}
	}
	return out
}

// ActiveCategories returns the cached categories open for new annonces
func (s *Store) ActiveCategories() []models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Category
	for _, c := range s.categories {
		if c.Active {
			out = append(out, c)
		}
	}
	return out
}

// TarifByType finds an active tarif by its type name
func (s *Store) TarifByType(typeName string) (models.PublicationTarif, bool) {
	for _, t := range s.ActiveTarifs() {
		if t.TypeName == typeName {
			return t, true
		}
	}
	return models.PublicationTarif{}, false
}

// DefaultTarif returns the first active tarif, the wizard's pre-selection
func (s *Store) DefaultTarif() (models.PublicationTarif, bool) {
	active := s.ActiveTarifs()
	if len(active) == 0 {
		return models.PublicationTarif{}, false
	}
	return active[0], true
}

// DefaultCategory returns the first active category, the wizard's pre-selection
func (s *Store) DefaultCategory() (models.Category, bool) {
	active := s.ActiveCategories()
	if len(active) == 0 {
		return models.Category{}, false
	}
	return active[0], true
}

// ReplaceTarif patches one tarif in the cache after a successful admin update,
// keeping list order
func (s *Store) ReplaceTarif(updated models.PublicationTarif) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tarifs {
		if t.ID == updated.ID {
			s.tarifs[i] = updated
			return
		}
	}
}

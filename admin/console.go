// Package admin holds the moderation console state: the loaded annonce page,
// its client-side search filter, and the CRUD/transition operations over
// annonces, categories, tarifs and users.
package admin

import (
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/tamsirfall/annonces-market-bot/api"
	"github.com/tamsirfall/annonces-market-bot/models"
)

// consolePageSize matches what the admin screens load in one go
const consolePageSize = 100

// ErrConfirmationRequired guards destructive calls: the caller must collect
// an explicit confirmation before the request fires
var ErrConfirmationRequired = errors.New("confirmation requise avant suppression")

// ErrBusy rejects a mutating call while another one is outstanding
var ErrBusy = errors.New("une opération est déjà en cours")

// Console drives the admin moderation surface
type Console struct {
	client *api.Client

	annonces []models.Annonce
	query    string

	mu   sync.Mutex
	busy bool
}

// NewConsole creates a console bound to an authenticated API client
func NewConsole(client *api.Client) *Console {
	return &Console{client: client}
}

// guard is the double-submit latch around mutating calls. Safe to hit from
// concurrent callers: exactly one passes, the rest get ErrBusy.
func (c *Console) guard() (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return nil, ErrBusy
	}
	c.busy = true
	return func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}, nil
}

// LoadAnnonces fetches the admin annonce page and reapplies the filter
func (c *Console) LoadAnnonces() error {
	page, err := c.client.GetAdminAnnonces(0, consolePageSize)
	if err != nil {
		return err
	}
	c.annonces = page.Content
	return nil
}

// Search sets the filter query. Matching is recomputed on every keystroke.
func (c *Console) Search(query string) {
	c.query = query
}

// Annonces returns the loaded annonces matching the current query, in load
// order. Matching is a case-insensitive substring test across title, code,
// seller, category, description and location.
func (c *Console) Annonces() []models.Annonce {
	q := strings.ToLower(strings.TrimSpace(c.query))
	if q == "" {
		out := make([]models.Annonce, len(c.annonces))
		copy(out, c.annonces)
		return out
	}
	var out []models.Annonce
	for _, a := range c.annonces {
		if matchesQuery(a, q) {
			out = append(out, a)
		}
	}
	return out
}

func matchesQuery(a models.Annonce, q string) bool {
	fields := []string{
		a.Title,
		a.Code,
		a.SellerName,
		a.CategoryName,
		a.Description,
		a.Location,
	}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Approve asks the server to transition a PENDING annonce to APPROVED. The
// console never pre-validates the current status: the server decides, and a
// rejection is surfaced with the server's message unchanged while the loaded
// list stays as it was.
func (c *Console) Approve(id int64) (*models.Annonce, error) {
	release, err := c.guard()
	if err != nil {
		return nil, err
	}
	defer release()

	annonce, err := c.client.ApproveAnnonce(id)
	if err != nil {
		return nil, err
	}
	c.replaceAnnonce(*annonce)
	return annonce, nil
}

// Reject asks the server to transition a PENDING annonce to REJECTED
func (c *Console) Reject(id int64) (*models.Annonce, error) {
	release, err := c.guard()
	if err != nil {
		return nil, err
	}
	defer release()

	annonce, err := c.client.RejectAnnonce(id)
	if err != nil {
		return nil, err
	}
	c.replaceAnnonce(*annonce)
	return annonce, nil
}

// replaceAnnonce patches the loaded list after a successful transition
func (c *Console) replaceAnnonce(updated models.Annonce) {
	for i, a := range c.annonces {
		if a.ID == updated.ID {
			c.annonces[i] = updated
			return
		}
	}
}

// UpdateAnnonce updates an annonce and patches the loaded list
func (c *Console) UpdateAnnonce(id int64, data api.AnnonceUpdate) (*models.Annonce, error) {
	release, err := c.guard()
	if err != nil {
		return nil, err
	}
	defer release()

	annonce, err := c.client.UpdateAnnonce(id, data)
	if err != nil {
		return nil, err
	}
	c.replaceAnnonce(*annonce)
	return annonce, nil
}

// DeleteAnnonce deletes an annonce. The destructive call only fires once the
// caller passes confirmed=true, after an explicit user confirmation.
func (c *Console) DeleteAnnonce(id int64, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	release, err := c.guard()
	if err != nil {
		return err
	}
	defer release()

	if err := c.client.DeleteAnnonce(id); err != nil {
		return err
	}
	c.removeAnnonce(id)
	return nil
}

func (c *Console) removeAnnonce(id int64) {
	for i, a := range c.annonces {
		if a.ID == id {
			c.annonces = append(c.annonces[:i], c.annonces[i+1:]...)
			return
		}
	}
}

// DeleteCategory deletes a category after explicit confirmation
func (c *Console) DeleteCategory(id int64, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	release, err := c.guard()
	if err != nil {
		return err
	}
	defer release()
	return c.client.DeleteCategory(id)
}

// DeleteTarif deletes a tarif after explicit confirmation
func (c *Console) DeleteTarif(id int64, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	release, err := c.guard()
	if err != nil {
		return err
	}
	defer release()
	return c.client.DeleteTarif(id)
}

// DeleteUser deletes a user after explicit confirmation
func (c *Console) DeleteUser(id int64, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	release, err := c.guard()
	if err != nil {
		return err
	}
	defer release()
	return c.client.DeleteUser(id)
}

// Users returns a page of platform users
func (c *Console) Users(page, size int) (*models.Page[models.User], error) {
	return c.client.GetUsers(page, size)
}

// CreateUser creates a platform user
func (c *Console) CreateUser(user api.UserCreate) (*models.User, error) {
	release, err := c.guard()
	if err != nil {
		return nil, err
	}
	defer release()
	return c.client.CreateUser(user)
}

// ToggleUserEnabled flips a user's enabled flag
func (c *Console) ToggleUserEnabled(user models.User) (*models.User, error) {
	release, err := c.guard()
	if err != nil {
		return nil, err
	}
	defer release()

	enabled := !user.Enabled
	return c.client.UpdateUser(user.ID, api.UserUpdate{Enabled: &enabled})
}

// SetUserRole changes a user's role
func (c *Console) SetUserRole(id int64, role models.Role) (*models.User, error) {
	release, err := c.guard()
	if err != nil {
		return nil, err
	}
	defer release()
	return c.client.UpdateUser(id, api.UserUpdate{Role: string(role)})
}

// CreateTarif creates a publication tarif
func (c *Console) CreateTarif(tarif api.TarifCreate) (*models.PublicationTarif, error) {
	release, err := c.guard()
	if err != nil {
		return nil, err
	}
	defer release()
	return c.client.CreateTarif(tarif)
}

// UpdateTarif partially updates a tarif
func (c *Console) UpdateTarif(id int64, update api.TarifUpdate) (*models.PublicationTarif, error) {
	release, err := c.guard()
	if err != nil {
		return nil, err
	}
	defer release()
	return c.client.UpdateTarif(id, update)
}

// CreateCategory creates a category
func (c *Console) CreateCategory(category api.CategoryData) (*models.Category, error) {
	release, err := c.guard()
	if err != nil {
		return nil, err
	}
	defer release()
	return c.client.CreateCategory(category)
}

// UpdateCategory updates a category
func (c *Console) UpdateCategory(id int64, category api.CategoryData) (*models.Category, error) {
	release, err := c.guard()
	if err != nil {
		return nil, err
	}
	defer release()
	return c.client.UpdateCategory(id, category)
}

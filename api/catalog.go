package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tamsirfall/annonces-market-bot/models"
)

// GetCategories returns the active categories (public endpoint)
func (c *Client) GetCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := c.do(http.MethodGet, "/categories", nil, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// GetTarifs returns the active publication tarifs (public endpoint)
func (c *Client) GetTarifs() ([]models.PublicationTarif, error) {
	var tarifs []models.PublicationTarif
	if err := c.do(http.MethodGet, "/tarifs", nil, nil, &tarifs); err != nil {
		return nil, err
	}
	return tarifs, nil
}

// GetAdminTarifs returns all tarifs, inactive included (admin endpoint)
func (c *Client) GetAdminTarifs(page, size int) (*models.Page[models.PublicationTarif], error) {
	var result models.Page[models.PublicationTarif]
	if err := c.do(http.MethodGet, "/admin/tarifs", pageQuery(page, size), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TarifCreate is the payload for creating a tarif. A DurationDays of nil or
// <= 0 means unlimited publication.
type TarifCreate struct {
	TypeName     string `json:"typeName"`
	Price        int    `json:"price"`
	DurationDays *int   `json:"durationDays,omitempty"`
	Active       bool   `json:"active"`
}

// CreateTarif creates a publication tarif (admin)
func (c *Client) CreateTarif(tarif TarifCreate) (*models.PublicationTarif, error) {
	if tarif.DurationDays != nil && *tarif.DurationDays <= 0 {
		tarif.DurationDays = nil
	}
	var created models.PublicationTarif
	if err := c.do(http.MethodPost, "/admin/tarifs", nil, tarif, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// TarifUpdate carries the optional fields of a tarif update. Nil fields are
// omitted entirely: the backend treats an absent duration and a duration of 0
// identically as unlimited, and sentinel values must never be sent.
type TarifUpdate struct {
	Price        *int
	DurationDays *int
	Active       *bool
	TypeName     *string
}

// UpdateTarif partially updates a tarif (admin). Fields travel as query
// parameters, unset ones stay out of the request.
func (c *Client) UpdateTarif(id int64, update TarifUpdate) (*models.PublicationTarif, error) {
	params := url.Values{}
	if update.Price != nil {
		params.Set("price", strconv.Itoa(*update.Price))
	}
	if update.DurationDays != nil {
		days := *update.DurationDays
		if days < 0 {
			days = 0
		}
		params.Set("durationDays", strconv.Itoa(days))
	}
	if update.Active != nil {
		params.Set("active", strconv.FormatBool(*update.Active))
	}
	if update.TypeName != nil {
		params.Set("typeName", *update.TypeName)
	}

	var updated models.PublicationTarif
	path := fmt.Sprintf("/admin/tarifs/%d", id)
	if err := c.do(http.MethodPut, path, params, nil, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTarif deletes a tarif (admin)
func (c *Client) DeleteTarif(id int64) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/admin/tarifs/%d", id), nil, nil, nil)
}

// GetAdminCategories returns all categories, inactive included (admin)
func (c *Client) GetAdminCategories(page, size int) (*models.Page[models.Category], error) {
	var result models.Page[models.Category]
	if err := c.do(http.MethodGet, "/admin/categories", pageQuery(page, size), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CategoryData is the create/update payload for a category
type CategoryData struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Active      bool   `json:"active"`
}

// CreateCategory creates a category (admin)
func (c *Client) CreateCategory(category CategoryData) (*models.Category, error) {
	var created models.Category
	if err := c.do(http.MethodPost, "/admin/categories", nil, category, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateCategory updates a category (admin)
func (c *Client) UpdateCategory(id int64, category CategoryData) (*models.Category, error) {
	var updated models.Category
	path := fmt.Sprintf("/admin/categories/%d", id)
	if err := c.do(http.MethodPut, path, nil, category, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteCategory deletes a category (admin)
func (c *Client) DeleteCategory(id int64) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/admin/categories/%d", id), nil, nil, nil)
}

func pageQuery(page, size int) url.Values {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))
	return params
}

package api

import (
	"fmt"
	"net/http"

	"github.com/tamsirfall/annonces-market-bot/models"
)

// AnnonceCreate is the payload for creating an annonce. The listing comes
// back in PENDING status with no images; photos are uploaded separately.
type AnnonceCreate struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Price           float64  `json:"price"`
	CategoryID      int64    `json:"categoryId"`
	PublicationType string   `json:"publicationType"`
	Condition       string   `json:"condition,omitempty"`
	Size            string   `json:"size,omitempty"`
	Brand           string   `json:"brand,omitempty"`
	Color           string   `json:"color,omitempty"`
	Location        string   `json:"location,omitempty"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
}

// CreateAnnonce creates an annonce in PENDING status
func (c *Client) CreateAnnonce(annonce AnnonceCreate) (*models.Annonce, error) {
	var created models.Annonce
	if err := c.do(http.MethodPost, "/annonces", nil, annonce, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UploadAnnoncePhotos uploads photos for an annonce in one batched multipart
// request. Upload order is preserved by the backend.
func (c *Client) UploadAnnoncePhotos(annonceID int64, photos []PhotoUpload) (*models.Annonce, error) {
	var updated models.Annonce
	path := fmt.Sprintf("/annonces/%d/photos", annonceID)
	if err := c.uploadMultipart(path, "photos", photos, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetPublicAnnonces returns a page of approved annonces
func (c *Client) GetPublicAnnonces(page, size int) (*models.Page[models.Annonce], error) {
	var result models.Page[models.Annonce]
	if err := c.do(http.MethodGet, "/annonces/public", pageQuery(page, size), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetAnnonce returns a single annonce by id
func (c *Client) GetAnnonce(id int64) (*models.Annonce, error) {
	var annonce models.Annonce
	path := fmt.Sprintf("/annonces/public/%d", id)
	if err := c.do(http.MethodGet, path, nil, nil, &annonce); err != nil {
		return nil, err
	}
	return &annonce, nil
}

// GetMyAnnonces returns the authenticated user's own annonces
func (c *Client) GetMyAnnonces(page, size int) (*models.Page[models.Annonce], error) {
	var result models.Page[models.Annonce]
	if err := c.do(http.MethodGet, "/annonces/my-annonces", pageQuery(page, size), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetMyPurchases returns the annonces the authenticated user has bought
func (c *Client) GetMyPurchases(page, size int) (*models.Page[models.Annonce], error) {
	var result models.Page[models.Annonce]
	if err := c.do(http.MethodGet, "/annonces/my-purchases", pageQuery(page, size), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BuyAnnonce buys an annonce for the authenticated user
func (c *Client) BuyAnnonce(id int64) (*models.Annonce, error) {
	var bought models.Annonce
	path := fmt.Sprintf("/annonces/%d/buy", id)
	if err := c.do(http.MethodPost, path, nil, struct{}{}, &bought); err != nil {
		return nil, err
	}
	return &bought, nil
}

// GetAdminAnnonces returns a page of all annonces regardless of status (admin)
func (c *Client) GetAdminAnnonces(page, size int) (*models.Page[models.Annonce], error) {
	var result models.Page[models.Annonce]
	if err := c.do(http.MethodGet, "/admin/annonces", pageQuery(page, size), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ApproveAnnonce transitions a PENDING annonce to APPROVED (admin). The
// transition is server-authoritative; a rejection comes back as *Error.
func (c *Client) ApproveAnnonce(id int64) (*models.Annonce, error) {
	var annonce models.Annonce
	path := fmt.Sprintf("/admin/annonces/%d/approve", id)
	if err := c.do(http.MethodPost, path, nil, struct{}{}, &annonce); err != nil {
		return nil, err
	}
	return &annonce, nil
}

// RejectAnnonce transitions a PENDING annonce to REJECTED (admin)
func (c *Client) RejectAnnonce(id int64) (*models.Annonce, error) {
	var annonce models.Annonce
	path := fmt.Sprintf("/admin/annonces/%d/reject", id)
	if err := c.do(http.MethodPost, path, nil, struct{}{}, &annonce); err != nil {
		return nil, err
	}
	return &annonce, nil
}

// AnnonceUpdate is the admin update payload for an annonce
type AnnonceUpdate struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	CategoryID      int64   `json:"categoryId"`
	PublicationType string  `json:"publicationType"`
	Status          string  `json:"status"`
	Condition       string  `json:"condition,omitempty"`
	Size            string  `json:"size,omitempty"`
	Brand           string  `json:"brand,omitempty"`
	Color           string  `json:"color,omitempty"`
	Location        string  `json:"location,omitempty"`
	SellerID        *int64  `json:"sellerId,omitempty"`
}

// UpdateAnnonce updates an annonce (admin)
func (c *Client) UpdateAnnonce(id int64, annonce AnnonceUpdate) (*models.Annonce, error) {
	var updated models.Annonce
	path := fmt.Sprintf("/admin/annonces/%d", id)
	if err := c.do(http.MethodPut, path, nil, annonce, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteAnnonce deletes an annonce (admin)
func (c *Client) DeleteAnnonce(id int64) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/admin/annonces/%d", id), nil, nil, nil)
}

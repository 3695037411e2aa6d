package api

import (
	"fmt"
	"net/http"

	"github.com/tamsirfall/annonces-market-bot/models"
)

// GetUsers returns a page of platform users (admin)
func (c *Client) GetUsers(page, size int) (*models.Page[models.User], error) {
	var result models.Page[models.User]
	if err := c.do(http.MethodGet, "/admin/users", pageQuery(page, size), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetUser returns a single user by id (admin)
func (c *Client) GetUser(id int64) (*models.User, error) {
	var user models.User
	if err := c.do(http.MethodGet, fmt.Sprintf("/admin/users/%d", id), nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserCreate is the admin user creation payload
type UserCreate struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
	Whatsapp  string `json:"whatsapp,omitempty"`
	Role      string `json:"role"`
	Enabled   bool   `json:"enabled"`
}

// CreateUser creates a user (admin)
func (c *Client) CreateUser(user UserCreate) (*models.User, error) {
	var created models.User
	if err := c.do(http.MethodPost, "/admin/users", nil, user, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UserUpdate is the admin user update payload
type UserUpdate struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Whatsapp  string `json:"whatsapp,omitempty"`
	Role      string `json:"role,omitempty"`
	Enabled   *bool  `json:"enabled,omitempty"`
}

// UpdateUser updates a user (admin)
func (c *Client) UpdateUser(id int64, user UserUpdate) (*models.User, error) {
	var updated models.User
	if err := c.do(http.MethodPut, fmt.Sprintf("/admin/users/%d", id), nil, user, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteUser deletes a user (admin)
func (c *Client) DeleteUser(id int64) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/admin/users/%d", id), nil, nil, nil)
}

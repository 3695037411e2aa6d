package models

import "strconv"

// AnnonceStatus represents the moderation/lifecycle status of an annonce
type AnnonceStatus string

const (
	// StatusPending indicates an annonce waiting for moderation
	StatusPending AnnonceStatus = "PENDING"
	// StatusApproved indicates an annonce approved and visible
	StatusApproved AnnonceStatus = "APPROVED"
	// StatusRejected indicates an annonce rejected by a moderator
	StatusRejected AnnonceStatus = "REJECTED"
	// StatusSold indicates an annonce whose item has been sold
	StatusSold AnnonceStatus = "SOLD"
	// StatusExpired indicates an annonce past its publication duration
	StatusExpired AnnonceStatus = "EXPIRED"
)

// Role represents a platform user role
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleVendeur Role = "VENDEUR"
	RoleUser    Role = "USER"
)

// Annonce represents a single marketplace listing
type Annonce struct {
	ID              int64         `json:"id"`
	Code            string        `json:"code"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Price           float64       `json:"price"`
	CategoryID      int64         `json:"categoryId"`
	CategoryName    string        `json:"categoryName"`
	PublicationType string        `json:"publicationType"`
	Condition       string        `json:"condition,omitempty"`
	Size            string        `json:"size,omitempty"`
	Brand           string        `json:"brand,omitempty"`
	Color           string        `json:"color,omitempty"`
	Location        string        `json:"location,omitempty"`
	Latitude        *float64      `json:"latitude,omitempty"`
	Longitude       *float64      `json:"longitude,omitempty"`
	Images          []string      `json:"images"`
	SellerID        int64         `json:"sellerId"`
	SellerName      string        `json:"sellerName"`
	SellerPhone     string        `json:"sellerPhone,omitempty"`
	Status          AnnonceStatus `json:"status"`
	ViewCount       int           `json:"viewCount"`
	ContactCount    int           `json:"contactCount"`
	CreatedAt       string        `json:"createdAt"`
	PublishedAt     string        `json:"publishedAt,omitempty"`
	ExpiresAt       string        `json:"expiresAt,omitempty"`
}

// PublicationTarif is a priced publication tier, denominated in credits.
// DurationDays == 0 means unlimited publication.
type PublicationTarif struct {
	ID           int64  `json:"id"`
	TypeName     string `json:"typeName"`
	Price        int    `json:"price"`
	DurationDays int    `json:"durationDays"`
	Active       bool   `json:"active"`
}

// Category represents a listing category
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// User represents a platform user as seen by the admin console
type User struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Phone         string `json:"phone,omitempty"`
	Whatsapp      string `json:"whatsapp,omitempty"`
	Address       string `json:"address,omitempty"`
	Role          Role   `json:"role"`
	Enabled       bool   `json:"enabled"`
	EmailVerified bool   `json:"emailVerified"`
	AnnoncesCount int    `json:"annoncesCount,omitempty"`
	CreditBalance int    `json:"creditBalance,omitempty"`
}

// CreditConfig is the platform-wide credit pricing configuration
type CreditConfig struct {
	ID                 int64 `json:"id"`
	PricePerCreditFcfa int   `json:"pricePerCreditFcfa"`
}

// CreditPurchase is a pending credit purchase returned by the backend.
// The balance is only credited once the transaction is confirmed.
type CreditPurchase struct {
	TransactionID int64  `json:"transactionId"`
	Code          string `json:"code,omitempty"`
	ClientSecret  string `json:"clientSecret"`
	AmountFcfa    int    `json:"amountFcfa"`
	CreditsAdded  int    `json:"creditsAdded"`
	PaymentMethod string `json:"paymentMethod"`
}

// CreditTransaction is a historical credit purchase
type CreditTransaction struct {
	ID            int64  `json:"id"`
	Code          string `json:"code"`
	AmountFcfa    int    `json:"amountFcfa"`
	CreditsAdded  int    `json:"creditsAdded"`
	PaymentMethod string `json:"paymentMethod"`
	Status        string `json:"status"`
	CreatedAt     string `json:"createdAt"`
	PaidAt        string `json:"paidAt,omitempty"`
}

// Page is a paginated backend response
type Page[T any] struct {
	Content       []T `json:"content"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Size          int `json:"size"`
	Number        int `json:"number"`
}

// SessionUser is the authenticated user mirrored from the login response
type SessionUser struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      Role   `json:"role"`
}

// IsAdmin reports whether the session user has the admin role
func (u *SessionUser) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsVendeur reports whether the session user may publish annonces
func (u *SessionUser) IsVendeur() bool {
	return u != nil && (u.Role == RoleVendeur || u.Role == RoleAdmin)
}

// StatusLabel returns the French display label for an annonce status
func StatusLabel(status AnnonceStatus) string {
	labels := map[AnnonceStatus]string{
		StatusPending:  "En attente",
		StatusApproved: "Approuvée",
		StatusRejected: "Rejetée",
		StatusSold:     "Vendue",
		StatusExpired:  "Expirée",
	}
	if label, ok := labels[status]; ok {
		return label
	}
	return string(status)
}

// PublicationTypeLabel returns the French display label for a publication type
func PublicationTypeLabel(typeName string) string {
	labels := map[string]string{
		"STANDARD": "Standard - Visibilité normale",
		"PREMIUM":  "Premium - Visibilité prioritaire dans la catégorie",
		"TOP_PUB":  "Top Pub - Mise en avant sur la page d'accueil",
	}
	if label, ok := labels[typeName]; ok {
		return label
	}
	return typeName
}

// PaymentMethodLabel returns the French display label for a payment method
func PaymentMethodLabel(method string) string {
	labels := map[string]string{
		"STRIPE":       "Carte bancaire (Stripe)",
		"CARD":         "Carte bancaire",
		"ORANGE_MONEY": "Orange Money",
		"WAVE":         "Wave",
	}
	if label, ok := labels[method]; ok {
		return label
	}
	return method
}

// DurationLabel returns the French display label for a tarif duration
func DurationLabel(days int) string {
	if days <= 0 {
		return "Illimité"
	}
	if days == 1 {
		return "1 jour"
	}
	return strconv.Itoa(days) + " jours"
}

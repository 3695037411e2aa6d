package wizard

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// field length limits of the create form
const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
)

// ValidationErrors maps a field name to its French error message. It is built
// fresh on every navigation attempt; an empty map means the step is valid.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, v[field])
	}
	return strings.Join(parts, " ")
}

// validateDetails checks the step-1 rules
func (d *Draft) validateDetails() ValidationErrors {
	errs := ValidationErrors{}

	title := strings.TrimSpace(d.Details.Title)
	if title == "" {
		errs["title"] = "Le titre est obligatoire."
	} else if utf8.RuneCountInString(title) > maxTitleLength {
		errs["title"] = "Le titre ne doit pas dépasser 200 caractères."
	}

	if utf8.RuneCountInString(d.Details.Description) > maxDescriptionLength {
		errs["description"] = "La description ne doit pas dépasser 2000 caractères."
	}

	if d.Details.Price < 1 {
		errs["price"] = "Le prix doit être d'au moins 1 FCFA."
	}

	if !d.hasCategory {
		errs["category"] = "Choisissez une catégorie."
	}

	if !d.hasTarif {
		errs["publicationType"] = "Choisissez un type de publication."
	}

	return errs
}

// validatePhotos checks the step-2 rule: at least one photo attached
func (d *Draft) validatePhotos() ValidationErrors {
	errs := ValidationErrors{}
	if len(d.photos) == 0 {
		errs["photos"] = "Ajoutez au moins une photo."
	}
	return errs
}

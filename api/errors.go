package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Error is a backend error carrying the HTTP status and the message extracted
// from the response payload, verbatim. Status 0 means the server was never
// reached (connection refused, DNS failure, timeout).
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("server unreachable: %s", e.Message)
	}
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// IsNetwork reports whether the error is a transport failure rather than a
// server response
func (e *Error) IsNetwork() bool {
	return e.Status == 0
}

// AsError extracts an *Error from err, if it is one
func AsError(err error) (*Error, bool) {
	apiErr, ok := err.(*Error)
	return apiErr, ok
}

// fieldError is one entry of an array-shaped validation error payload
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// payload shapes the backend is known to produce for errors
type errorBody struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

// extractors are tried in order until one yields a non-empty string
var extractors = []func([]byte) string{
	extractObjectMessage,
	extractObjectError,
	extractFieldErrors,
	extractPlainString,
}

// ExtractMessage normalizes the free-form error payloads the backend produces
// (raw string, {message}, {error}, array of field errors) into one string.
// Returns an empty string when nothing usable is found.
func ExtractMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	for _, extract := range extractors {
		if msg := extract(body); msg != "" {
			return msg
		}
	}
	return trimmed
}

func extractObjectMessage(body []byte) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	return strings.TrimSpace(parsed.Message)
}

func extractObjectError(body []byte) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Error) == 0 {
		return ""
	}
	// {"error": "text"} or {"error": {"message": "text"}}
	var asString string
	if err := json.Unmarshal(parsed.Error, &asString); err == nil {
		return strings.TrimSpace(asString)
	}
	var nested errorBody
	if err := json.Unmarshal(parsed.Error, &nested); err == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}

func extractFieldErrors(body []byte) string {
	var fields []fieldError
	if err := json.Unmarshal(body, &fields); err == nil && len(fields) > 0 {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			if f.Message == "" {
				continue
			}
			if f.Field != "" {
				parts = append(parts, f.Field+" : "+f.Message)
			} else {
				parts = append(parts, f.Message)
			}
		}
		return strings.Join(parts, " ; ")
	}
	var messages []string
	if err := json.Unmarshal(body, &messages); err == nil && len(messages) > 0 {
		return strings.Join(messages, " ; ")
	}
	return ""
}

func extractPlainString(body []byte) string {
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return strings.TrimSpace(s)
	}
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return ""
	}
	return trimmed
}

const (
	// MsgServerUnreachable is shown for any transport failure (status 0)
	MsgServerUnreachable = "Impossible de se connecter au serveur. Vérifiez votre connexion et réessayez."
	// MsgGenericValidation is shown for unrecognized 400-class rejections
	MsgGenericValidation = "Vérifiez les informations saisies et réessayez."
	// MsgGenericError is the last-resort fallback
	MsgGenericError = "Erreur lors de l'opération. Veuillez réessayer."
)

// friendlyLookup maps known substrings of backend messages to user-actionable
// French text. Order matters: first match wins.
var friendlyLookup = []struct {
	Substring string
	Message   string
}{
	{"insufficient", "Solde de crédits insuffisant pour publier cette annonce. Achetez des crédits puis réessayez."},
	{"insuffisant", "Solde de crédits insuffisant pour publier cette annonce. Achetez des crédits puis réessayez."},
	{"categor", "Cette catégorie n'existe plus. Actualisez la liste et choisissez-en une autre."},
	{"catégor", "Cette catégorie n'existe plus. Actualisez la liste et choisissez-en une autre."},
	{"tarif", "Ce tarif de publication n'est plus disponible. Actualisez la liste et choisissez-en un autre."},
	{"forbidden", "Votre compte n'est pas autorisé à effectuer cette action."},
	{"interdit", "Votre compte n'est pas autorisé à effectuer cette action."},
	{"expir", "Votre session a expiré. Veuillez vous reconnecter."},
	{"unauthorized", "Votre session a expiré. Veuillez vous reconnecter."},
}

// FriendlyMessage maps any error from the client into French user-facing text
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	apiErr, ok := AsError(err)
	if !ok {
		return MsgGenericError
	}
	if apiErr.IsNetwork() {
		return MsgServerUnreachable
	}
	lower := strings.ToLower(apiErr.Message)
	for _, entry := range friendlyLookup {
		if strings.Contains(lower, entry.Substring) {
			return entry.Message
		}
	}
	if apiErr.Status >= 400 && apiErr.Status < 500 {
		return MsgGenericValidation
	}
	return MsgGenericError
}

package api

import (
	"strings"
	"testing"
)

func TestExtractMessage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"object message", `{"message":"Solde insuffisant"}`, "Solde insuffisant"},
		{"object error string", `{"error":"Tarif introuvable"}`, "Tarif introuvable"},
		{"object error nested", `{"error":{"message":"Accès interdit"}}`, "Accès interdit"},
		{"json string", `"Catégorie supprimée"`, "Catégorie supprimée"},
		{"plain text", `Bad credentials`, "Bad credentials"},
		{"field errors", `[{"field":"title","message":"obligatoire"},{"field":"price","message":"invalide"}]`, "title : obligatoire ; price : invalide"},
		{"string array", `["erreur une","erreur deux"]`, "erreur une ; erreur deux"},
		{"empty body", ``, ""},
		{"whitespace", `   `, ""},
		{"unusable object", `{"code":42}`, `{"code":42}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractMessage([]byte(tc.body))
			if got != tc.want {
				t.Errorf("ExtractMessage(%q) = %q, want %q", tc.body, got, tc.want)
			}
		})
	}
}

func TestFriendlyMessageLookup(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		contains string
	}{
		{"insufficient english", &Error{Status: 400, Message: "Insufficient credit balance"}, "insuffisant"},
		{"insufficient french", &Error{Status: 400, Message: "Solde insuffisant pour cette opération"}, "insuffisant"},
		{"stale category", &Error{Status: 400, Message: "Category not found"}, "catégorie"},
		{"stale tarif", &Error{Status: 400, Message: "Unknown tarif PREMIUM"}, "tarif"},
		{"forbidden role", &Error{Status: 403, Message: "Forbidden"}, "autorisé"},
		{"expired session", &Error{Status: 401, Message: "Token expired"}, "reconnecter"},
		{"network", &Error{Status: 0, Message: "connection refused"}, "connecter au serveur"},
		{"unknown 400", &Error{Status: 400, Message: "weird payload"}, MsgGenericValidation},
		{"server 500", &Error{Status: 500, Message: "boom"}, MsgGenericError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FriendlyMessage(tc.err)
			if !strings.Contains(strings.ToLower(got), strings.ToLower(tc.contains)) {
				t.Errorf("FriendlyMessage(%v) = %q, want it to contain %q", tc.err, got, tc.contains)
			}
		})
	}
}

func TestFriendlyMessageNeverConfusesNetworkWithBusiness(t *testing.T) {
	network := FriendlyMessage(&Error{Status: 0, Message: "dial tcp: connection refused"})
	business := FriendlyMessage(&Error{Status: 400, Message: "Insufficient credits"})
	if network == business {
		t.Fatal("network and business errors must map to distinct messages")
	}
	if network != MsgServerUnreachable {
		t.Errorf("network error mapped to %q, want %q", network, MsgServerUnreachable)
	}
}

package bot

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"gopkg.in/tucnak/telebot.v2"

	"github.com/tamsirfall/annonces-market-bot/api"
	"github.com/tamsirfall/annonces-market-bot/models"
)

// requireAdmin checks the session role before any admin surface
func (b *Bot) requireAdmin(m *telebot.Message) bool {
	if !b.store.IsAuthenticated() {
		b.teleBot.Send(m.Sender, "Connectez-vous d'abord avec /token <votre jeton>.")
		return false
	}
	if user := b.store.User(); user == nil || !user.IsAdmin() {
		b.teleBot.Send(m.Sender, "Cette commande est réservée aux administrateurs.")
		return false
	}
	return true
}

func (b *Bot) registerAdminHandlers() {
	b.teleBot.Handle("/admin_annonces", func(m *telebot.Message) { b.adminAnnonces(m) })
	b.teleBot.Handle("/annonce_maj", func(m *telebot.Message) { b.adminUpdateAnnonce(m) })
	b.teleBot.Handle("/admin_tarifs", func(m *telebot.Message) { b.adminTarifs(m) })
	b.teleBot.Handle("/tarif_maj", func(m *telebot.Message) { b.adminUpdateTarif(m) })
	b.teleBot.Handle("/tarif_ajout", func(m *telebot.Message) { b.adminCreateTarif(m) })
	b.teleBot.Handle("/tarif_suppr", func(m *telebot.Message) { b.askDelete(m, cbConfirmDelTarif, "ce tarif") })
	b.teleBot.Handle("/categorie_ajout", func(m *telebot.Message) { b.adminCreateCategory(m) })
	b.teleBot.Handle("/categorie_maj", func(m *telebot.Message) { b.adminUpdateCategory(m) })
	b.teleBot.Handle("/categorie_suppr", func(m *telebot.Message) { b.askDelete(m, cbConfirmDelCategory, "cette catégorie") })
	b.teleBot.Handle("/admin_users", func(m *telebot.Message) { b.adminUsers(m) })
	b.teleBot.Handle("/user_ajout", func(m *telebot.Message) { b.adminCreateUser(m) })
	b.teleBot.Handle("/user_actif", func(m *telebot.Message) { b.adminToggleUser(m) })
	b.teleBot.Handle("/user_role", func(m *telebot.Message) { b.adminSetUserRole(m) })
	b.teleBot.Handle("/user_suppr", func(m *telebot.Message) { b.askDelete(m, cbConfirmDelUser, "cet utilisateur") })
	b.teleBot.Handle("/admin_credits", func(m *telebot.Message) { b.adminCredits(m) })
}

// adminAnnonces lists the loaded annonces, filtered by the optional query
// (substring match over title, code, seller, category, description, location)
func (b *Bot) adminAnnonces(m *telebot.Message) {
	if !b.requireAdmin(m) {
		return
	}

	if err := b.console.LoadAnnonces(); err != nil {
		b.sendError(m, err)
		return
	}

	query := strings.TrimSpace(strings.TrimPrefix(m.Text, "/admin_annonces"))
	b.console.Search(query)

	annonces := b.console.Annonces()
	if len(annonces) == 0 {
		b.teleBot.Send(m.Sender, "Aucune annonce ne correspond.")
		return
	}

	b.teleBot.Send(m.Sender,
		fmt.Sprintf("🗂 *Modération* — %d annonce(s)", len(annonces)), telebot.ModeMarkdown)

	shown := 0
	for _, a := range annonces {
		if shown == 10 {
			b.teleBot.Send(m.Sender,
				fmt.Sprintf("Affichage des 10 premières. %d annonce(s) au total.", len(annonces)))
			break
		}
		shown++

		details := fmt.Sprintf(
			"*%s* — %s\n💰 %.0f FCFA — 👤 %s\n🏷 %s — Statut : %s",
			a.Code, a.Title, a.Price, a.SellerName, a.CategoryName, models.StatusLabel(a.Status))

		menu := &telebot.ReplyMarkup{}
		var row []telebot.InlineButton
		// approve/reject only make sense for a PENDING annonce; the server
		// still has the last word
		if a.Status == models.StatusPending {
			row = append(row,
				telebot.InlineButton{Text: "✅ Approuver", Unique: fmt.Sprintf("%s%d", cbApprove, a.ID)},
				telebot.InlineButton{Text: "🚫 Rejeter", Unique: fmt.Sprintf("%s%d", cbReject, a.ID)},
			)
		}
		row = append(row, telebot.InlineButton{Text: "🗑 Supprimer", Unique: fmt.Sprintf("%s%d", cbDelete, a.ID)})
		menu.InlineKeyboard = [][]telebot.InlineButton{row}

		b.teleBot.Send(m.Sender, details, menu, telebot.ModeMarkdown)
	}
}

// dispatchAdminCallback routes moderation button callbacks
func (b *Bot) dispatchAdminCallback(c *telebot.Callback, m *telebot.Message, data string) {
	if user := b.store.User(); user == nil || !user.IsAdmin() {
		b.teleBot.Respond(c, &telebot.CallbackResponse{Text: "Réservé aux administrateurs", ShowAlert: true})
		return
	}

	switch {
	case strings.HasPrefix(data, cbApprove):
		b.moderate(c, m, strings.TrimPrefix(data, cbApprove), true)
	case strings.HasPrefix(data, cbReject):
		b.moderate(c, m, strings.TrimPrefix(data, cbReject), false)
	case strings.HasPrefix(data, cbConfirmDelete):
		b.confirmDelete(c, m, strings.TrimPrefix(data, cbConfirmDelete))
	case strings.HasPrefix(data, cbDelete):
		b.askDeleteConfirmation(c, m, strings.TrimPrefix(data, cbDelete))
	case strings.HasPrefix(data, cbConfirmDelTarif):
		b.confirmTypedDelete(c, strings.TrimPrefix(data, cbConfirmDelTarif), b.console.DeleteTarif, "Tarif supprimé")
	case strings.HasPrefix(data, cbConfirmDelCategory):
		b.confirmTypedDelete(c, strings.TrimPrefix(data, cbConfirmDelCategory), b.console.DeleteCategory, "Catégorie supprimée")
	case strings.HasPrefix(data, cbConfirmDelUser):
		b.confirmTypedDelete(c, strings.TrimPrefix(data, cbConfirmDelUser), b.console.DeleteUser, "Utilisateur supprimé")
	}
}

// askDelete sends the confirmation button for a typed delete command
// (/tarif_suppr, /categorie_suppr, /user_suppr)
func (b *Bot) askDelete(m *telebot.Message, confirmPrefix, label string) {
	if !b.requireAdmin(m) {
		return
	}
	args := strings.Fields(m.Text)
	if len(args) != 2 {
		b.teleBot.Send(m.Sender, fmt.Sprintf("Utilisation : %s <id>", args[0]))
		return
	}
	if _, err := strconv.ParseInt(args[1], 10, 64); err != nil {
		b.teleBot.Send(m.Sender, "Identifiant invalide.")
		return
	}

	menu := &telebot.ReplyMarkup{}
	menu.InlineKeyboard = [][]telebot.InlineButton{{
		{Text: "Oui, supprimer", Unique: confirmPrefix + args[1]},
	}}
	b.teleBot.Send(m.Sender,
		fmt.Sprintf("⚠️ Supprimer %s (#%s) ? Cette action est irréversible.", label, args[1]), menu)
}

// confirmTypedDelete fires a confirmed tarif/category/user deletion
func (b *Bot) confirmTypedDelete(c *telebot.Callback, idStr string, del func(int64, bool) error, done string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		b.teleBot.Respond(c, &telebot.CallbackResponse{})
		return
	}
	if err := del(id, true); err != nil {
		b.teleBot.Respond(c, &telebot.CallbackResponse{Text: api.FriendlyMessage(err), ShowAlert: true})
		return
	}
	b.teleBot.Respond(c, &telebot.CallbackResponse{Text: done})
}

// moderate runs an approve or reject transition. No pre-validation of the
// current status: a server rejection is shown with its message unchanged.
func (b *Bot) moderate(c *telebot.Callback, m *telebot.Message, idStr string, approve bool) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		b.teleBot.Respond(c, &telebot.CallbackResponse{})
		return
	}

	var annonce *models.Annonce
	if approve {
		annonce, err = b.console.Approve(id)
	} else {
		annonce, err = b.console.Reject(id)
	}
	if err != nil {
		if apiErr, ok := api.AsError(err); ok && !apiErr.IsNetwork() && apiErr.Message != "" {
			b.teleBot.Respond(c, &telebot.CallbackResponse{Text: apiErr.Message, ShowAlert: true})
		} else {
			b.teleBot.Respond(c, &telebot.CallbackResponse{Text: api.FriendlyMessage(err), ShowAlert: true})
		}
		return
	}

	b.teleBot.Respond(c, &telebot.CallbackResponse{
		Text: fmt.Sprintf("Annonce %s : %s", annonce.Code, models.StatusLabel(annonce.Status)),
	})
}

// askDeleteConfirmation inserts the explicit confirm step before a deletion
func (b *Bot) askDeleteConfirmation(c *telebot.Callback, m *telebot.Message, idStr string) {
	b.teleBot.Respond(c, &telebot.CallbackResponse{})

	menu := &telebot.ReplyMarkup{}
	menu.InlineKeyboard = [][]telebot.InlineButton{{
		{Text: "Oui, supprimer", Unique: cbConfirmDelete + idStr},
	}}
	b.teleBot.Send(m.Sender,
		"⚠️ Êtes-vous sûr ? Cette action est irréversible.", menu)
}

// confirmDelete fires the destructive call, confirmation collected
func (b *Bot) confirmDelete(c *telebot.Callback, m *telebot.Message, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		b.teleBot.Respond(c, &telebot.CallbackResponse{})
		return
	}

	if err := b.console.DeleteAnnonce(id, true); err != nil {
		b.teleBot.Respond(c, &telebot.CallbackResponse{Text: api.FriendlyMessage(err), ShowAlert: true})
		return
	}
	b.teleBot.Respond(c, &telebot.CallbackResponse{Text: "Annonce supprimée"})
}

// adminTarifs lists every tarif, inactive ones included, with the public
// fallback when the admin endpoint is out of reach
func (b *Bot) adminTarifs(m *telebot.Message) {
	if !b.requireAdmin(m) {
		return
	}

	if err := b.catalog.RefreshAdmin(); err != nil {
		b.sendError(m, err)
		return
	}

	tarifs := b.catalog.Tarifs()
	if len(tarifs) == 0 {
		b.teleBot.Send(m.Sender, "Aucun tarif configuré.")
		return
	}

	var sb strings.Builder
	sb.WriteString("💠 *Tarifs de publication*\n\n")
	for _, t := range tarifs {
		state := "actif"
		if !t.Active {
			state = "inactif"
		}
		sb.WriteString(fmt.Sprintf("🔹 #%d %s — %d crédits, %s (%s)\n",
			t.ID, t.TypeName, t.Price, models.DurationLabel(t.DurationDays), state))
	}
	sb.WriteString("\nModifier : `/tarif_maj <id> prix=<n> duree=<jours> actif=<oui|non> type=<nom>`\n")
	sb.WriteString("Seuls les champs fournis sont modifiés.\n")
	sb.WriteString("Ajouter : `/tarif_ajout <type> <prix> [duree]` — Supprimer : `/tarif_suppr <id>`")
	b.teleBot.Send(m.Sender, sb.String(), telebot.ModeMarkdown)
}

// adminUpdateTarif parses the partial-update command. Unset fields stay out
// of the request entirely; a duration of 0 or less means unlimited.
func (b *Bot) adminUpdateTarif(m *telebot.Message) {
	if !b.requireAdmin(m) {
		return
	}

	args := strings.Fields(m.Text)
	if len(args) < 3 {
		b.teleBot.Send(m.Sender, "Utilisation : /tarif_maj <id> prix=<n> duree=<jours> actif=<oui|non> type=<nom>")
		return
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		b.teleBot.Send(m.Sender, "Identifiant de tarif invalide.")
		return
	}

	var update api.TarifUpdate
	for _, arg := range args[2:] {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			continue
		}
		switch key {
		case "prix":
			if price, err := strconv.Atoi(value); err == nil {
				update.Price = &price
			}
		case "duree":
			if days, err := strconv.Atoi(value); err == nil {
				update.DurationDays = &days
			}
		case "actif":
			active := value == "oui" || value == "true"
			update.Active = &active
		case "type":
			update.TypeName = &value
		}
	}

	updated, err := b.console.UpdateTarif(id, update)
	if err != nil {
		b.sendError(m, err)
		return
	}
	b.catalog.ReplaceTarif(*updated)

	b.teleBot.Send(m.Sender, fmt.Sprintf(
		"✅ Tarif %s mis à jour : %d crédits, %s.",
		updated.TypeName, updated.Price, models.DurationLabel(updated.DurationDays)))
}

// adminUpdateAnnonce edits the given fields of a loaded annonce. The backend
// expects the full payload, so unchanged fields come from the loaded copy.
func (b *Bot) adminUpdateAnnonce(m *telebot.Message) {
	if !b.requireAdmin(m) {
		return
	}

	args := strings.Fields(m.Text)
	if len(args) < 3 {
		b.teleBot.Send(m.Sender, "Utilisation : /annonce_maj <id> titre=<texte> prix=<n> statut=<statut>")
		return
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		b.teleBot.Send(m.Sender, "Identifiant d'annonce invalide.")
		return
	}

	if len(b.console.Annonces()) == 0 {
		if err := b.console.LoadAnnonces(); err != nil {
			b.sendError(m, err)
			return
		}
	}
	var current *models.Annonce
	b.console.Search("")
	for _, a := range b.console.Annonces() {
		if a.ID == id {
			current = &a
			break
		}
	}
	if current == nil {
		b.teleBot.Send(m.Sender, "Annonce introuvable. Relancez /admin_annonces.")
		return
	}

	update := api.AnnonceUpdate{
		Title:           current.Title,
		Description:     current.Description,
		Price:           current.Price,
		CategoryID:      current.CategoryID,
		PublicationType: current.PublicationType,
		Status:          string(current.Status),
		Condition:       current.Condition,
		Location:        current.Location,
	}
	for _, arg := range args[2:] {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			continue
		}
		switch key {
		case "titre":
			update.Title = value
		case "prix":
			if price, err := strconv.ParseFloat(value, 64); err == nil {
				update.Price = price
			}
		case "statut":
			update.Status = strings.ToUpper(value)
		}
	}

	updated, err := b.console.UpdateAnnonce(id, update)
	if err != nil {
		b.sendError(m, err)
		return
	}
	b.teleBot.Send(m.Sender, fmt.Sprintf("✅ Annonce %s mise à jour (%s).",
		updated.Code, models.StatusLabel(updated.Status)))
}

// adminCreateTarif creates a publication tarif; no duration means unlimited
func (b *Bot) adminCreateTarif(m *telebot.Message) {
	if !b.requireAdmin(m) {
		return
	}

	args := strings.Fields(m.Text)
	if len(args) < 3 {
		b.teleBot.Send(m.Sender, "Utilisation : /tarif_ajout <type> <prix> [duree en jours]")
		return
	}
	price, err := strconv.Atoi(args[2])
	if err != nil || price < 0 {
		b.teleBot.Send(m.Sender, "Le prix doit être un nombre de crédits.")
		return
	}

	tarif := api.TarifCreate{TypeName: strings.ToUpper(args[1]), Price: price, Active: true}
	if len(args) >= 4 {
		if days, err := strconv.Atoi(args[3]); err == nil {
			tarif.DurationDays = &days
		}
	}

	created, err := b.console.CreateTarif(tarif)
	if err != nil {
		b.sendError(m, err)
		return
	}
	b.teleBot.Send(m.Sender, fmt.Sprintf("✅ Tarif %s créé : %d crédits, %s.",
		created.TypeName, created.Price, models.DurationLabel(created.DurationDays)))
}

// adminCreateCategory creates a category from "/categorie_ajout <nom> [description]"
func (b *Bot) adminCreateCategory(m *telebot.Message) {
	if !b.requireAdmin(m) {
		return
	}

	args := strings.Fields(m.Text)
	if len(args) < 2 {
		b.teleBot.Send(m.Sender, "Utilisation : /categorie_ajout <nom> [description]")
		return
	}

	category := api.CategoryData{Name: args[1], Active: true}
	if len(args) > 2 {
		category.Description = strings.Join(args[2:], " ")
	}

	created, err := b.console.CreateCategory(category)
	if err != nil {
		b.sendError(m, err)
		return
	}
	b.teleBot.Send(m.Sender, fmt.Sprintf("✅ Catégorie %s créée (#%d).", created.Name, created.ID))
}

// adminUpdateCategory edits a cached category; unchanged fields are kept
func (b *Bot) adminUpdateCategory(m *telebot.Message) {
	if !b.requireAdmin(m) {
		return
	}

	args := strings.Fields(m.Text)
	if len(args) < 3 {
		b.teleBot.Send(m.Sender, "Utilisation : /categorie_maj <id> nom=<nom> actif=<oui|non>")
		return
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		b.teleBot.Send(m.Sender, "Identifiant de catégorie invalide.")
		return
	}

	if err := b.catalog.RefreshAdmin(); err != nil {
		b.sendError(m, err)
		return
	}
	var current *models.Category
	for _, c := range b.catalog.Categories() {
		if c.ID == id {
			current = &c
			break
		}
	}
	if current == nil {
		b.teleBot.Send(m.Sender, "Catégorie introuvable.")
		return
	}

	data := api.CategoryData{
		Name:        current.Name,
		Description: current.Description,
		Icon:        current.Icon,
		Active:      current.Active,
	}
	for _, arg := range args[2:] {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			continue
		}
		switch key {
		case "nom":
			data.Name = value
		case "actif":
			data.Active = value == "oui" || value == "true"
		}
	}

	updated, err := b.console.UpdateCategory(id, data)
	if err != nil {
		b.sendError(m, err)
		return
	}
	b.teleBot.Send(m.Sender, fmt.Sprintf("✅ Catégorie #%d mise à jour : %s.", updated.ID, updated.Name))
}

// adminCreateUser creates a platform account, VENDEUR by default
func (b *Bot) adminCreateUser(m *telebot.Message) {
	if !b.requireAdmin(m) {
		return
	}

	args := strings.Fields(m.Text)
	if len(args) < 5 {
		b.teleBot.Send(m.Sender, "Utilisation : /user_ajout <email> <motdepasse> <prenom> <nom> [role]")
		return
	}

	user := api.UserCreate{
		Email:     args[1],
		Password:  args[2],
		FirstName: args[3],
		LastName:  args[4],
		Role:      string(models.RoleVendeur),
		Enabled:   true,
	}
	if len(args) >= 6 {
		user.Role = strings.ToUpper(args[5])
	}

	created, err := b.console.CreateUser(user)
	if err != nil {
		b.sendError(m, err)
		return
	}
	b.teleBot.Send(m.Sender, fmt.Sprintf("✅ Utilisateur %s %s créé (#%d, %s).",
		created.FirstName, created.LastName, created.ID, created.Role))
}

// adminToggleUser flips a user's enabled flag
func (b *Bot) adminToggleUser(m *telebot.Message) {
	if !b.requireAdmin(m) {
		return
	}

	args := strings.Fields(m.Text)
	if len(args) != 2 {
		b.teleBot.Send(m.Sender, "Utilisation : /user_actif <id>")
		return
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		b.teleBot.Send(m.Sender, "Identifiant d'utilisateur invalide.")
		return
	}

	user, err := b.apiCli.GetUser(id)
	if err != nil {
		b.sendError(m, err)
		return
	}
	updated, err := b.console.ToggleUserEnabled(*user)
	if err != nil {
		b.sendError(m, err)
		return
	}

	state := "réactivé"
	if !updated.Enabled {
		state = "suspendu"
	}
	b.teleBot.Send(m.Sender, fmt.Sprintf("✅ Compte de %s %s %s.",
		updated.FirstName, updated.LastName, state))
}

// adminSetUserRole changes a user's role
func (b *Bot) adminSetUserRole(m *telebot.Message) {
	if !b.requireAdmin(m) {
		return
	}

	args := strings.Fields(m.Text)
	if len(args) != 3 {
		b.teleBot.Send(m.Sender, "Utilisation : /user_role <id> <ADMIN|VENDEUR|USER>")
		return
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		b.teleBot.Send(m.Sender, "Identifiant d'utilisateur invalide.")
		return
	}

	role := models.Role(strings.ToUpper(args[2]))
	switch role {
	case models.RoleAdmin, models.RoleVendeur, models.RoleUser:
	default:
		b.teleBot.Send(m.Sender, "Rôle inconnu. Choisissez ADMIN, VENDEUR ou USER.")
		return
	}

	updated, err := b.console.SetUserRole(id, role)
	if err != nil {
		b.sendError(m, err)
		return
	}
	b.teleBot.Send(m.Sender, fmt.Sprintf("✅ %s %s est maintenant %s.",
		updated.FirstName, updated.LastName, updated.Role))
}

// adminCredits shows the credit pricing, or updates it when a price is given
func (b *Bot) adminCredits(m *telebot.Message) {
	if !b.requireAdmin(m) {
		return
	}

	args := strings.Fields(m.Text)
	if len(args) >= 2 {
		price, err := strconv.Atoi(args[1])
		if err != nil || price < 1 {
			b.teleBot.Send(m.Sender, "Utilisation : /admin_credits [prix du crédit en FCFA]")
			return
		}
		config, err := b.apiCli.UpdateCreditConfig(price)
		if err != nil {
			b.sendError(m, err)
			return
		}
		b.teleBot.Send(m.Sender, fmt.Sprintf("✅ Prix du crédit mis à jour : %d FCFA.", config.PricePerCreditFcfa))
		return
	}

	config, err := b.apiCli.GetAdminCreditConfig()
	if err != nil {
		b.sendError(m, err)
		return
	}
	b.teleBot.Send(m.Sender, fmt.Sprintf(
		"💳 Prix actuel du crédit : %d FCFA.\nModifier : `/admin_credits <nouveau prix>`",
		config.PricePerCreditFcfa), telebot.ModeMarkdown)
}

// adminUsers lists platform users with their roles and balances
func (b *Bot) adminUsers(m *telebot.Message) {
	if !b.requireAdmin(m) {
		return
	}

	page, err := b.console.Users(0, 20)
	if err != nil {
		b.sendError(m, err)
		return
	}
	if len(page.Content) == 0 {
		b.teleBot.Send(m.Sender, "Aucun utilisateur.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👥 *Utilisateurs* (%d au total)\n\n", page.TotalElements))
	for _, u := range page.Content {
		state := "✅"
		if !u.Enabled {
			state = "🚫"
		}
		line := fmt.Sprintf("%s #%d %s %s — %s", state, u.ID, u.FirstName, u.LastName, u.Role)
		if u.Role != models.RoleUser {
			line += fmt.Sprintf(" (%d crédits, %d annonces)", u.CreditBalance, u.AnnoncesCount)
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n`/user_actif <id>` — `/user_role <id> <role>` — `/user_suppr <id>`")
	b.teleBot.Send(m.Sender, sb.String(), telebot.ModeMarkdown)

	log.Printf("Admin %d listed %d users", m.Sender.ID, len(page.Content))
}

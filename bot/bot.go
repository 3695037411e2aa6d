package bot

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/tucnak/telebot.v2"

	"github.com/tamsirfall/annonces-market-bot/admin"
	"github.com/tamsirfall/annonces-market-bot/api"
	"github.com/tamsirfall/annonces-market-bot/catalog"
	"github.com/tamsirfall/annonces-market-bot/config"
	"github.com/tamsirfall/annonces-market-bot/models"
	"github.com/tamsirfall/annonces-market-bot/session"
	"github.com/tamsirfall/annonces-market-bot/wizard"
)

// Button identifiers
const (
	btnSell    = "sell"
	btnBrowse  = "browse"
	btnCredits = "credits"
	btnMine    = "my_annonces"
	btnHelp    = "help"

	// Callback prefixes
	cbPublish       = "publish:"
	cbCancelDraft   = "cancel_draft:"
	cbPickCategory  = "pick_category:"
	cbPickTarif     = "pick_tarif:"
	cbApprove       = "approve:"
	cbReject        = "reject:"
	cbDelete        = "delete:"
	cbConfirmDelete = "confirm_delete:"
	cbBuy           = "buy:"

	cbDelTarif           = "del_tarif:"
	cbConfirmDelTarif    = "confirm_del_tarif:"
	cbDelCategory        = "del_category:"
	cbConfirmDelCategory = "confirm_del_category:"
	cbDelUser            = "del_user:"
	cbConfirmDelUser     = "confirm_del_user:"
)

// chat input states for the wizard conversation
const (
	awaitingNothing = ""
	awaitingDetails = "details"
	awaitingPhotos  = "photos"
)

// chatSession is the per-chat wizard state; owned by one chat only
type chatSession struct {
	draft    *wizard.Draft
	awaiting string
}

// Bot represents the Telegram bot with its dependencies
type Bot struct {
	teleBot *telebot.Bot
	apiCli  *api.Client
	store   *session.Store
	catalog *catalog.Store
	console *admin.Console
	config  *config.Config

	chats map[int64]*chatSession

	// Button instances
	btnSell    *telebot.InlineButton
	btnBrowse  *telebot.InlineButton
	btnCredits *telebot.InlineButton
	btnMine    *telebot.InlineButton
	btnHelp    *telebot.InlineButton
}

// NewBot creates a new Bot instance
func NewBot(cfg *config.Config) (*Bot, error) {
	store, err := session.NewStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %v", err)
	}

	// handlers run one update at a time; chats and draft state are only
	// touched from the dispatch goroutine
	bot, err := telebot.NewBot(telebot.Settings{
		Token:       cfg.TelegramToken,
		Poller:      &telebot.LongPoller{Timeout: 10 * time.Second},
		Synchronous: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %v", err)
	}

	apiCli := api.NewClient(cfg.APIURL, cfg.ImageBaseURL, cfg.HTTPTimeout, store)

	b := &Bot{
		teleBot:    bot,
		apiCli:     apiCli,
		store:      store,
		catalog:    catalog.NewStore(apiCli),
		console:    admin.NewConsole(apiCli),
		config:     cfg,
		chats:      make(map[int64]*chatSession),
		btnSell:    &telebot.InlineButton{Unique: btnSell, Text: "📦 Vendre"},
		btnBrowse:  &telebot.InlineButton{Unique: btnBrowse, Text: "🛒 Annonces"},
		btnCredits: &telebot.InlineButton{Unique: btnCredits, Text: "💳 Mes crédits"},
		btnMine:    &telebot.InlineButton{Unique: btnMine, Text: "📋 Mes annonces"},
		btnHelp:    &telebot.InlineButton{Unique: btnHelp, Text: "❓ Aide"},
	}

	// one log line per actual balance change; views refresh from here
	b.store.SubscribeBalance(func(balance int) {
		log.Printf("Credit balance updated: %d", balance)
	})

	return b, nil
}

// sendMainMenu sends the main menu with buttons to the user
func (b *Bot) sendMainMenu(m *telebot.Message) {
	menu := &telebot.ReplyMarkup{}
	menu.InlineKeyboard = [][]telebot.InlineButton{
		{*b.btnSell, *b.btnMine},
		{*b.btnBrowse, *b.btnCredits},
		{*b.btnHelp},
	}
	b.teleBot.Send(m.Sender, "Bienvenue sur le marché aux annonces ! Choisissez une option :", menu)
}

// chat returns the wizard session of a chat, creating it when absent
func (b *Bot) chat(id int64) *chatSession {
	cs, ok := b.chats[id]
	if !ok {
		cs = &chatSession{}
		b.chats[id] = cs
	}
	return cs
}

// endChat tears the wizard session down, releasing draft resources
func (b *Bot) endChat(id int64) {
	if cs, ok := b.chats[id]; ok && cs.draft != nil && !cs.draft.Done() {
		cs.draft.Discard()
	}
	delete(b.chats, id)
}

// requireSeller checks the session before entering credit-gated flows
func (b *Bot) requireSeller(m *telebot.Message) bool {
	if !b.store.IsAuthenticated() {
		b.teleBot.Send(m.Sender, "Connectez-vous d'abord avec /token <votre jeton>.")
		return false
	}
	if b.store.TokenExpired() {
		b.teleBot.Send(m.Sender, "Votre session a expiré. Veuillez vous reconnecter avec /token.")
		return false
	}
	if user := b.store.User(); user != nil && !user.IsVendeur() {
		b.teleBot.Send(m.Sender, "Votre compte n'est pas autorisé à publier des annonces.")
		return false
	}
	return true
}

// startWizard begins a fresh draft seeded with the first active category and
// tarif from the reference data
func (b *Bot) startWizard(m *telebot.Message) {
	if !b.requireSeller(m) {
		return
	}

	if err := b.catalog.Refresh(); err != nil {
		b.teleBot.Send(m.Sender, api.FriendlyMessage(err))
		return
	}

	cs := b.chat(m.Chat.ID)
	if cs.draft != nil && !cs.draft.Done() {
		cs.draft.Discard()
	}
	cs.draft = wizard.NewDraft()
	cs.awaiting = awaitingDetails

	if category, ok := b.catalog.DefaultCategory(); ok {
		cs.draft.SelectCategory(category)
	}
	if tarif, ok := b.catalog.DefaultTarif(); ok {
		cs.draft.SelectTarif(tarif)
	}

	b.teleBot.Send(m.Sender,
		"*Étape 1/3 — Détails*\n\nEnvoyez votre annonce sous la forme :\n\n"+
			"`Titre ; Prix ; Description`\n\n"+
			"Exemple : `Sac en cuir ; 15000 ; Très bon état, peu servi`",
		telebot.ModeMarkdown)
	b.sendCategoryChoices(m)
	b.sendTarifChoices(m)
}

// sendCategoryChoices offers the active categories as inline buttons
func (b *Bot) sendCategoryChoices(m *telebot.Message) {
	categories := b.catalog.ActiveCategories()
	if len(categories) == 0 {
		return
	}
	menu := &telebot.ReplyMarkup{}
	row := []telebot.InlineButton{}
	for _, c := range categories {
		row = append(row, telebot.InlineButton{
			Text:   c.Name,
			Unique: fmt.Sprintf("%s%d", cbPickCategory, c.ID),
		})
		if len(row) == 3 {
			menu.InlineKeyboard = append(menu.InlineKeyboard, row)
			row = []telebot.InlineButton{}
		}
	}
	if len(row) > 0 {
		menu.InlineKeyboard = append(menu.InlineKeyboard, row)
	}
	b.teleBot.Send(m.Sender, "Catégorie :", menu)
}

// sendTarifChoices offers the active tarifs as inline buttons
func (b *Bot) sendTarifChoices(m *telebot.Message) {
	tarifs := b.catalog.ActiveTarifs()
	if len(tarifs) == 0 {
		return
	}
	menu := &telebot.ReplyMarkup{}
	for _, t := range tarifs {
		label := fmt.Sprintf("%s — %d crédits (%s)",
			models.PublicationTypeLabel(t.TypeName), t.Price, models.DurationLabel(t.DurationDays))
		menu.InlineKeyboard = append(menu.InlineKeyboard, []telebot.InlineButton{{
			Text:   label,
			Unique: fmt.Sprintf("%s%d", cbPickTarif, t.ID),
		}})
	}
	b.teleBot.Send(m.Sender, "Type de publication :", menu)
}

// handleDetailsInput parses the "Titre ; Prix ; Description" message
func (b *Bot) handleDetailsInput(m *telebot.Message, cs *chatSession) {
	parts := strings.SplitN(m.Text, ";", 3)
	if len(parts) < 2 {
		b.teleBot.Send(m.Sender, "Format attendu : `Titre ; Prix ; Description`", telebot.ModeMarkdown)
		return
	}

	cs.draft.Details.Title = strings.TrimSpace(parts[0])
	price, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		b.teleBot.Send(m.Sender, "Le prix doit être un nombre. Exemple : `15000`", telebot.ModeMarkdown)
		return
	}
	cs.draft.Details.Price = price
	if len(parts) == 3 {
		cs.draft.Details.Description = strings.TrimSpace(parts[2])
	}

	if err := cs.draft.Next(); err != nil {
		b.sendValidationErrors(m, err)
		return
	}

	cs.awaiting = awaitingPhotos
	b.teleBot.Send(m.Sender,
		fmt.Sprintf("*Étape 2/3 — Photos*\n\nEnvoyez jusqu'à %d photos (JPEG, PNG, WebP ou GIF, %d Mo max chacune), puis /continuer.",
			wizard.MaxPhotos, wizard.MaxPhotoSize/(1024*1024)),
		telebot.ModeMarkdown)
}

// sendValidationErrors turns a field error map into one message per field
func (b *Bot) sendValidationErrors(m *telebot.Message, err error) {
	if errs, ok := err.(wizard.ValidationErrors); ok {
		b.teleBot.Send(m.Sender, "⚠️ "+errs.Error())
		return
	}
	b.sendError(m, err)
}

// sendError maps any client error to its French user-facing message
func (b *Bot) sendError(m *telebot.Message, err error) {
	b.teleBot.Send(m.Sender, api.FriendlyMessage(err))
}

// attachIncoming downloads one incoming file and runs it through the draft's
// photo admission
func (b *Bot) attachIncoming(m *telebot.Message, cs *chatSession, file telebot.File, fileName, mime string) {
	photo, err := b.downloadToTemp(file, fileName, mime)
	if err != nil {
		log.Printf("Failed to download photo: %v", err)
		b.teleBot.Send(m.Sender, "Impossible de récupérer cette photo. Réessayez.")
		return
	}

	report := cs.draft.AttachPhotos([]*wizard.Photo{photo})
	if !report.Ok() {
		b.teleBot.Send(m.Sender, "⚠️ "+report.Message())
		return
	}
	b.teleBot.Send(m.Sender,
		fmt.Sprintf("Photo ajoutée (%d/%d). Envoyez-en d'autres ou /continuer.",
			len(cs.draft.Photos()), wizard.MaxPhotos))
}

// downloadToTemp stores an incoming Telegram file in a temp file owned by the
// returned photo
func (b *Bot) downloadToTemp(file telebot.File, fileName, mime string) (*wizard.Photo, error) {
	rc, err := b.teleBot.GetFile(&file)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file from Telegram: %v", err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "annonce-photo-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %v", err)
	}
	size, err := io.Copy(tmp, rc)
	closeErr := tmp.Close()
	if err != nil || closeErr != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to store photo locally: %v", err)
	}

	return wizard.NewPhoto(fileName, mime, size, tmp.Name()), nil
}

// showReview renders step 3 with the credit gate summary
func (b *Bot) showReview(m *telebot.Message, cs *chatSession) {
	draft := cs.draft
	tarif, _ := draft.Tarif()
	category, _ := draft.Category()

	summary := fmt.Sprintf(
		"*Étape 3/3 — Récapitulatif*\n\n"+
			"🔹 Titre : %s\n"+
			"🔹 Prix : %.0f FCFA\n"+
			"🔹 Catégorie : %s\n"+
			"🔹 Publication : %s (%s)\n"+
			"🔹 Photos : %d\n"+
			"🔹 Coût : %d crédits (solde : %d)\n",
		draft.Details.Title, draft.Details.Price, category.Name,
		models.PublicationTypeLabel(tarif.TypeName), models.DurationLabel(tarif.DurationDays),
		len(draft.Photos()), draft.RequiredCredits(), b.store.Balance())

	menu := &telebot.ReplyMarkup{}
	menu.InlineKeyboard = [][]telebot.InlineButton{{
		{Text: "✅ Publier", Unique: cbPublish + draft.ID},
		{Text: "❌ Annuler", Unique: cbCancelDraft + draft.ID},
	}}
	b.teleBot.Send(m.Sender, summary, menu, telebot.ModeMarkdown)
}

// publishDraft runs the submission protocol and reports the outcome
func (b *Bot) publishDraft(m *telebot.Message, cs *chatSession) {
	result, err := cs.draft.Submit(b.apiCli, b.store)
	if err != nil {
		switch e := err.(type) {
		case *wizard.InsufficientCreditsError:
			b.teleBot.Send(m.Sender, "⚠️ "+e.Error()+"\nUtilisez /acheter pour recharger votre solde.")
		case wizard.ValidationErrors:
			b.teleBot.Send(m.Sender, "⚠️ "+e.Error())
		default:
			if err == wizard.ErrSubmissionInFlight {
				return
			}
			b.teleBot.Send(m.Sender, api.FriendlyMessage(err))
		}
		return
	}

	msg := fmt.Sprintf(
		"✅ *Annonce créée !*\n\nCode : %s\nStatut : %s\nCrédits dépensés : %d\nNouveau solde : %d\n\nElle sera visible après validation par un modérateur.",
		result.Annonce.Code, models.StatusLabel(result.Annonce.Status),
		result.SpentCredits, b.store.Balance())
	b.teleBot.Send(m.Sender, msg, telebot.ModeMarkdown)

	if result.PhotoWarning != "" {
		b.teleBot.Send(m.Sender, "⚠️ "+result.PhotoWarning)
	}
	b.endChat(m.Chat.ID)
}

// showCredits displays the balance, pricing and purchase history entry point
func (b *Bot) showCredits(m *telebot.Message) {
	if !b.store.IsAuthenticated() {
		b.teleBot.Send(m.Sender, "Connectez-vous d'abord avec /token <votre jeton>.")
		return
	}

	balance, err := b.apiCli.GetBalance()
	if err != nil {
		b.sendError(m, err)
		return
	}
	b.store.SetBalance(balance)

	pricePerCredit := "—"
	if config, err := b.apiCli.GetCreditConfig(); err == nil {
		pricePerCredit = fmt.Sprintf("%d FCFA", config.PricePerCreditFcfa)
	}

	b.teleBot.Send(m.Sender, fmt.Sprintf(
		"💳 *Vos crédits*\n\n🔹 Solde : %d crédits\n🔹 Prix du crédit : %s\n\n"+
			"Achetez avec `/acheter <nombre> [wave|orange|carte]`\nHistorique : /transactions",
		balance, pricePerCredit), telebot.ModeMarkdown)
}

// buyCredits runs the purchase and confirmation round trip, then re-fetches
// the authoritative balance
func (b *Bot) buyCredits(m *telebot.Message, credits int, method string) {
	purchase, err := b.apiCli.PurchaseCredits(credits, method)
	if err != nil {
		b.sendError(m, err)
		return
	}

	if _, err := b.apiCli.ConfirmPurchase(purchase.TransactionID); err != nil {
		b.sendError(m, err)
		return
	}

	// never trust client-side arithmetic for money: re-fetch and propagate
	balance, err := b.apiCli.GetBalance()
	if err != nil {
		b.teleBot.Send(m.Sender, "Achat confirmé, mais le solde n'a pas pu être actualisé. Réessayez /credits.")
		return
	}
	b.store.SetBalance(balance)

	b.teleBot.Send(m.Sender, fmt.Sprintf(
		"✅ %d crédit(s) ajoutés via %s (%d FCFA).\nNouveau solde : %d crédits.",
		purchase.CreditsAdded, models.PaymentMethodLabel(purchase.PaymentMethod),
		purchase.AmountFcfa, balance))
}

// showTransactions lists the credit purchase history
func (b *Bot) showTransactions(m *telebot.Message) {
	txs, err := b.apiCli.GetCreditTransactions()
	if err != nil {
		b.sendError(m, err)
		return
	}
	if len(txs) == 0 {
		b.teleBot.Send(m.Sender, "Aucune transaction pour le moment.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🧾 *Vos transactions*\n\n")
	for _, tx := range txs {
		sb.WriteString(fmt.Sprintf("🔹 %s — %d crédits, %d FCFA (%s) — %s\n",
			tx.Code, tx.CreditsAdded, tx.AmountFcfa,
			models.PaymentMethodLabel(tx.PaymentMethod), tx.Status))
	}
	b.teleBot.Send(m.Sender, sb.String(), telebot.ModeMarkdown)
}

// showMyAnnonces lists the user's own annonces with status labels
func (b *Bot) showMyAnnonces(m *telebot.Message) {
	page, err := b.apiCli.GetMyAnnonces(0, 20)
	if err != nil {
		b.sendError(m, err)
		return
	}
	if len(page.Content) == 0 {
		b.teleBot.Send(m.Sender, "Vous n'avez pas encore d'annonce. Utilisez /vendre pour commencer.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 *Vos annonces*\n\n")
	for _, a := range page.Content {
		sb.WriteString(fmt.Sprintf("🔹 %s — %s, %.0f FCFA — %s (%d vues)\n",
			a.Code, a.Title, a.Price, models.StatusLabel(a.Status), a.ViewCount))
	}
	b.teleBot.Send(m.Sender, sb.String(), telebot.ModeMarkdown)
}

// showMarketplace lists the latest approved annonces
func (b *Bot) showMarketplace(m *telebot.Message) {
	page, err := b.apiCli.GetPublicAnnonces(0, 10)
	if err != nil {
		b.sendError(m, err)
		return
	}
	if len(page.Content) == 0 {
		b.teleBot.Send(m.Sender, "Aucune annonce disponible pour le moment.")
		return
	}

	b.teleBot.Send(m.Sender, "🛒 *Dernières annonces*", telebot.ModeMarkdown)
	for _, a := range page.Content {
		text := fmt.Sprintf("*%s*\n💰 %.0f FCFA\n📍 %s\n👤 %s\nDétails : /annonce\\_%d",
			a.Title, a.Price, a.Location, a.SellerName, a.ID)
		if len(a.Images) > 0 {
			photo := &telebot.Photo{File: telebot.FromURL(b.apiCli.ResolveImageURL(a.Images[0]))}
			photo.Caption = text
			b.teleBot.Send(m.Sender, photo)
			continue
		}
		b.teleBot.Send(m.Sender, text, telebot.ModeMarkdown)
	}
}

// showAnnonce renders one annonce in full with its buy button
func (b *Bot) showAnnonce(m *telebot.Message, id int64) {
	a, err := b.apiCli.GetAnnonce(id)
	if err != nil {
		b.sendError(m, err)
		return
	}

	text := fmt.Sprintf(
		"*%s* (%s)\n\n%s\n\n💰 %.0f FCFA\n🏷 %s\n📍 %s\n👤 %s\n👁 %d vues",
		a.Title, a.Code, a.Description, a.Price, a.CategoryName, a.Location,
		a.SellerName, a.ViewCount)

	menu := &telebot.ReplyMarkup{}
	menu.InlineKeyboard = [][]telebot.InlineButton{{
		{Text: "🛍 Acheter", Unique: fmt.Sprintf("%s%d", cbBuy, a.ID)},
	}}

	if len(a.Images) > 0 {
		photo := &telebot.Photo{File: telebot.FromURL(b.apiCli.ResolveImageURL(a.Images[0]))}
		photo.Caption = text
		b.teleBot.Send(m.Sender, photo, menu)
		return
	}
	b.teleBot.Send(m.Sender, text, menu, telebot.ModeMarkdown)
}

// showMyPurchases lists the annonces the user has bought
func (b *Bot) showMyPurchases(m *telebot.Message) {
	page, err := b.apiCli.GetMyPurchases(0, 20)
	if err != nil {
		b.sendError(m, err)
		return
	}
	if len(page.Content) == 0 {
		b.teleBot.Send(m.Sender, "Vous n'avez pas encore d'achat.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🛍 *Vos achats*\n\n")
	for _, a := range page.Content {
		sb.WriteString(fmt.Sprintf("🔹 %s — %s, %.0f FCFA — vendeur : %s\n",
			a.Code, a.Title, a.Price, a.SellerName))
	}
	b.teleBot.Send(m.Sender, sb.String(), telebot.ModeMarkdown)
}

// buyAnnonce runs the purchase action from an annonce's buy button
func (b *Bot) buyAnnonce(c *telebot.Callback, m *telebot.Message, idStr string) {
	if !b.store.IsAuthenticated() {
		b.teleBot.Respond(c, &telebot.CallbackResponse{Text: "Connectez-vous d'abord avec /token", ShowAlert: true})
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		b.teleBot.Respond(c, &telebot.CallbackResponse{})
		return
	}

	bought, err := b.apiCli.BuyAnnonce(id)
	if err != nil {
		b.teleBot.Respond(c, &telebot.CallbackResponse{Text: api.FriendlyMessage(err), ShowAlert: true})
		return
	}
	b.teleBot.Respond(c, &telebot.CallbackResponse{Text: "Achat enregistré !"})
	b.teleBot.Send(m.Sender, fmt.Sprintf(
		"✅ Achat de *%s* enregistré. Contactez le vendeur : %s.\nRetrouvez vos achats avec /mes\\_achats.",
		bought.Title, bought.SellerName), telebot.ModeMarkdown)
}

// handleToken stores a pasted bearer token as the active session
func (b *Bot) handleToken(m *telebot.Message) {
	args := strings.Fields(m.Text)
	if len(args) != 2 {
		b.teleBot.Send(m.Sender, "Utilisation : /token <jeton d'accès>")
		return
	}
	token := args[1]

	user := &models.SessionUser{Role: models.RoleUser}
	if err := b.store.Save(token, user, b.store.Balance()); err != nil {
		log.Printf("Failed to save session: %v", err)
		b.teleBot.Send(m.Sender, "Impossible d'enregistrer la session.")
		return
	}
	// the token itself carries the role claim; keep the session in line
	if role := b.store.TokenRole(); role != "" && role != user.Role {
		user.Role = role
		if err := b.store.Save(token, user, b.store.Balance()); err != nil {
			log.Printf("Failed to update session role: %v", err)
		}
	}

	if balance, err := b.apiCli.GetBalance(); err == nil {
		b.store.SetBalance(balance)
	}
	b.teleBot.Send(m.Sender, "Session enregistrée. Bienvenue !")
	b.sendMainMenu(m)
}

// showHelp displays help information
func (b *Bot) showHelp(m *telebot.Message) {
	helpText := `*Aide*

*Commandes :*
/start - Afficher le menu principal
/token <jeton> - Enregistrer votre session
/deconnexion - Fermer la session
/vendre - Publier une annonce (3 étapes)
/continuer - Passer à l'étape suivante
/retour - Revenir à l'étape précédente
/photo\_suppr <n> - Retirer une photo du brouillon
/annuler - Abandonner l'annonce en cours
/annonces - Parcourir les annonces
/mes\_annonces - Vos annonces
/mes\_achats - Vos achats
/credits - Solde et achat de crédits
/acheter <nombre> [wave|orange|carte] - Acheter des crédits
/transactions - Historique d'achats

*Administration :*
/admin\_annonces [recherche] - Modérer les annonces
/admin\_tarifs - Gérer les tarifs
/admin\_users - Gérer les utilisateurs
/admin\_credits - Prix du crédit

*Statuts d'annonce :*
⏳ En attente — 🟢 Approuvée — 🔴 Rejetée — 💰 Vendue — ⌛ Expirée`

	b.teleBot.Send(m.Sender, helpText, telebot.ModeMarkdown)
}

// Start starts the bot and registers command handlers
func (b *Bot) Start() {
	b.registerMenuHandlers()
	b.registerWizardHandlers()
	b.registerCreditHandlers()
	b.registerAdminHandlers()

	log.Println("Bot started and ready to accept commands...")
	b.teleBot.Start()
}

func (b *Bot) registerMenuHandlers() {
	b.teleBot.Handle("/start", func(m *telebot.Message) { b.sendMainMenu(m) })
	b.teleBot.Handle("/help", func(m *telebot.Message) { b.showHelp(m) })
	b.teleBot.Handle("/token", func(m *telebot.Message) { b.handleToken(m) })
	b.teleBot.Handle("/annonces", func(m *telebot.Message) { b.showMarketplace(m) })
	b.teleBot.Handle("/mes_annonces", func(m *telebot.Message) { b.showMyAnnonces(m) })
	b.teleBot.Handle("/mes_achats", func(m *telebot.Message) { b.showMyPurchases(m) })

	b.teleBot.Handle("/deconnexion", func(m *telebot.Message) {
		b.endChat(m.Chat.ID)
		if err := b.store.Clear(); err != nil {
			log.Printf("Failed to clear session: %v", err)
			b.teleBot.Send(m.Sender, "Impossible de fermer la session.")
			return
		}
		b.teleBot.Send(m.Sender, "Session fermée. À bientôt !")
	})

	b.teleBot.Handle(&telebot.InlineButton{Unique: btnSell}, func(c *telebot.Callback) {
		b.teleBot.Respond(c, &telebot.CallbackResponse{})
		b.startWizard(fromCallback(c))
	})
	b.teleBot.Handle(&telebot.InlineButton{Unique: btnBrowse}, func(c *telebot.Callback) {
		b.teleBot.Respond(c, &telebot.CallbackResponse{})
		b.showMarketplace(fromCallback(c))
	})
	b.teleBot.Handle(&telebot.InlineButton{Unique: btnCredits}, func(c *telebot.Callback) {
		b.teleBot.Respond(c, &telebot.CallbackResponse{})
		b.showCredits(fromCallback(c))
	})
	b.teleBot.Handle(&telebot.InlineButton{Unique: btnMine}, func(c *telebot.Callback) {
		b.teleBot.Respond(c, &telebot.CallbackResponse{})
		b.showMyAnnonces(fromCallback(c))
	})
	b.teleBot.Handle(&telebot.InlineButton{Unique: btnHelp}, func(c *telebot.Callback) {
		b.teleBot.Respond(c, &telebot.CallbackResponse{})
		b.showHelp(fromCallback(c))
	})
}

func (b *Bot) registerWizardHandlers() {
	b.teleBot.Handle("/vendre", func(m *telebot.Message) { b.startWizard(m) })

	b.teleBot.Handle("/continuer", func(m *telebot.Message) {
		cs, ok := b.chats[m.Chat.ID]
		if !ok || cs.draft == nil {
			b.teleBot.Send(m.Sender, "Aucune annonce en cours. Utilisez /vendre pour commencer.")
			return
		}
		if err := cs.draft.Next(); err != nil {
			b.sendValidationErrors(m, err)
			return
		}
		if cs.draft.Step() == wizard.StepReview {
			cs.awaiting = awaitingNothing
			b.showReview(m, cs)
		}
	})

	b.teleBot.Handle("/retour", func(m *telebot.Message) {
		cs, ok := b.chats[m.Chat.ID]
		if !ok || cs.draft == nil {
			return
		}
		cs.draft.Back()
		switch cs.draft.Step() {
		case wizard.StepDetails:
			cs.awaiting = awaitingDetails
			b.teleBot.Send(m.Sender, "*Étape 1/3 — Détails*\nEnvoyez : `Titre ; Prix ; Description`", telebot.ModeMarkdown)
		case wizard.StepPhotos:
			cs.awaiting = awaitingPhotos
			b.teleBot.Send(m.Sender, "*Étape 2/3 — Photos*\nEnvoyez vos photos puis /continuer.", telebot.ModeMarkdown)
		}
	})

	b.teleBot.Handle("/annuler", func(m *telebot.Message) {
		b.endChat(m.Chat.ID)
		b.teleBot.Send(m.Sender, "Annonce abandonnée.")
	})

	b.teleBot.Handle("/photo_suppr", func(m *telebot.Message) {
		cs, ok := b.chats[m.Chat.ID]
		if !ok || cs.draft == nil || cs.awaiting != awaitingPhotos {
			return
		}
		args := strings.Fields(m.Text)
		if len(args) != 2 {
			b.teleBot.Send(m.Sender, "Utilisation : /photo_suppr <numéro>")
			return
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			b.teleBot.Send(m.Sender, "Indiquez le numéro de la photo (1 pour la première).")
			return
		}
		if err := cs.draft.RemovePhoto(n - 1); err != nil {
			b.teleBot.Send(m.Sender, "Aucune photo à ce numéro.")
			return
		}
		b.teleBot.Send(m.Sender,
			fmt.Sprintf("Photo retirée. Il en reste %d.", len(cs.draft.Photos())))
	})

	b.teleBot.Handle(telebot.OnPhoto, func(m *telebot.Message) {
		cs, ok := b.chats[m.Chat.ID]
		if !ok || cs.draft == nil || cs.awaiting != awaitingPhotos {
			return
		}
		// Telegram re-encodes photos as JPEG
		b.attachIncoming(m, cs, m.Photo.File, fmt.Sprintf("photo-%s.jpg", m.Photo.UniqueID), "image/jpeg")
	})

	b.teleBot.Handle(telebot.OnDocument, func(m *telebot.Message) {
		cs, ok := b.chats[m.Chat.ID]
		if !ok || cs.draft == nil || cs.awaiting != awaitingPhotos {
			return
		}
		b.attachIncoming(m, cs, m.Document.File, m.Document.FileName, m.Document.MIME)
	})

	b.teleBot.Handle(telebot.OnText, func(m *telebot.Message) {
		cs, ok := b.chats[m.Chat.ID]
		if ok && cs.draft != nil && cs.awaiting == awaitingDetails {
			b.handleDetailsInput(m, cs)
			return
		}
		// deep links of the form /annonce_<id> from the marketplace listing
		if idStr, ok := strings.CutPrefix(m.Text, "/annonce_"); ok {
			if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
				b.showAnnonce(m, id)
			}
			return
		}
		if !strings.HasPrefix(m.Text, "/") {
			b.sendMainMenu(m)
		}
	})

	b.teleBot.Handle(telebot.OnCallback, func(c *telebot.Callback) { b.dispatchCallback(c) })
}

func (b *Bot) registerCreditHandlers() {
	b.teleBot.Handle("/credits", func(m *telebot.Message) { b.showCredits(m) })
	b.teleBot.Handle("/transactions", func(m *telebot.Message) { b.showTransactions(m) })

	b.teleBot.Handle("/acheter", func(m *telebot.Message) {
		args := strings.Fields(m.Text)
		if len(args) < 2 {
			b.teleBot.Send(m.Sender, "Utilisation : /acheter <nombre> [wave|orange|carte]")
			return
		}
		credits, err := strconv.Atoi(args[1])
		if err != nil || credits < 1 {
			b.teleBot.Send(m.Sender, "Choisissez au moins 1 crédit.")
			return
		}
		method := "CARD"
		if len(args) >= 3 {
			switch strings.ToLower(args[2]) {
			case "wave":
				method = "WAVE"
			case "orange":
				method = "ORANGE_MONEY"
			case "carte":
				method = "CARD"
			}
		}
		b.buyCredits(m, credits, method)
	})
}

// dispatchCallback routes prefixed callbacks (wizard and admin)
func (b *Bot) dispatchCallback(c *telebot.Callback) {
	// unique-button callbacks arrive with a leading \f marker
	data := strings.TrimPrefix(strings.TrimSpace(c.Data), "\f")
	m := fromCallback(c)

	switch {
	case strings.HasPrefix(data, cbPublish):
		b.teleBot.Respond(c, &telebot.CallbackResponse{})
		if cs, ok := b.chats[m.Chat.ID]; ok && cs.draft != nil && cs.draft.ID == strings.TrimPrefix(data, cbPublish) {
			b.publishDraft(m, cs)
		}
	case strings.HasPrefix(data, cbCancelDraft):
		b.teleBot.Respond(c, &telebot.CallbackResponse{})
		b.endChat(m.Chat.ID)
		b.teleBot.Send(m.Sender, "Annonce abandonnée.")
	case strings.HasPrefix(data, cbPickCategory):
		b.pickCategory(c, m, strings.TrimPrefix(data, cbPickCategory))
	case strings.HasPrefix(data, cbPickTarif):
		b.pickTarif(c, m, strings.TrimPrefix(data, cbPickTarif))
	case strings.HasPrefix(data, cbBuy):
		b.buyAnnonce(c, m, strings.TrimPrefix(data, cbBuy))
	case strings.HasPrefix(data, cbApprove), strings.HasPrefix(data, cbReject),
		strings.HasPrefix(data, cbDelete), strings.HasPrefix(data, cbConfirmDelete),
		strings.HasPrefix(data, cbDelTarif), strings.HasPrefix(data, cbConfirmDelTarif),
		strings.HasPrefix(data, cbDelCategory), strings.HasPrefix(data, cbConfirmDelCategory),
		strings.HasPrefix(data, cbDelUser), strings.HasPrefix(data, cbConfirmDelUser):
		b.dispatchAdminCallback(c, m, data)
	}
}

func (b *Bot) pickCategory(c *telebot.Callback, m *telebot.Message, idStr string) {
	cs, ok := b.chats[m.Chat.ID]
	if !ok || cs.draft == nil {
		b.teleBot.Respond(c, &telebot.CallbackResponse{})
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		b.teleBot.Respond(c, &telebot.CallbackResponse{})
		return
	}
	for _, category := range b.catalog.ActiveCategories() {
		if category.ID == id {
			cs.draft.SelectCategory(category)
			b.teleBot.Respond(c, &telebot.CallbackResponse{Text: "Catégorie : " + category.Name})
			return
		}
	}
	b.teleBot.Respond(c, &telebot.CallbackResponse{Text: "Cette catégorie n'est plus disponible", ShowAlert: true})
}

func (b *Bot) pickTarif(c *telebot.Callback, m *telebot.Message, idStr string) {
	cs, ok := b.chats[m.Chat.ID]
	if !ok || cs.draft == nil {
		b.teleBot.Respond(c, &telebot.CallbackResponse{})
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		b.teleBot.Respond(c, &telebot.CallbackResponse{})
		return
	}
	for _, tarif := range b.catalog.ActiveTarifs() {
		if tarif.ID == id {
			cs.draft.SelectTarif(tarif)
			b.teleBot.Respond(c, &telebot.CallbackResponse{
				Text: fmt.Sprintf("Publication : %s (%d crédits)", tarif.TypeName, tarif.Price),
			})
			return
		}
	}
	b.teleBot.Respond(c, &telebot.CallbackResponse{Text: "Ce tarif n'est plus disponible", ShowAlert: true})
}

// fromCallback rebuilds a message context from a callback
func fromCallback(c *telebot.Callback) *telebot.Message {
	if c.Message != nil {
		return &telebot.Message{Sender: c.Sender, Chat: c.Message.Chat}
	}
	return &telebot.Message{Sender: c.Sender, Chat: &telebot.Chat{ID: int64(c.Sender.ID)}}
}

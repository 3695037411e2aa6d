// Package wizard implements the three-step annonce creation flow: details,
// photos, review. Forward navigation is gated by validation, backward
// navigation is always free, and submission is gated by the credit balance
// before any network call goes out.
package wizard

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tamsirfall/annonces-market-bot/api"
	"github.com/tamsirfall/annonces-market-bot/models"
)

// Step is the wizard's cursor
type Step int

const (
	StepDetails Step = 1
	StepPhotos  Step = 2
	StepReview  Step = 3
)

// Details holds the step-1 field values
type Details struct {
	Title       string
	Description string
	Price       float64
	Condition   string
	Size        string
	Brand       string
	Color       string
	Location    string
}

// Draft is the in-progress wizard state. It exclusively owns its photo files
// until submission or discard; nothing is persisted server-side before Submit.
type Draft struct {
	// ID identifies the draft locally (log correlation, per-chat sessions)
	ID      string
	Details Details

	category    models.Category
	hasCategory bool
	tarif       models.PublicationTarif
	hasTarif    bool

	step   Step
	photos []*Photo
	done   bool

	mu      sync.Mutex
	sending bool
}

// NewDraft starts an empty draft at the details step
func NewDraft() *Draft {
	return &Draft{
		ID:   uuid.New().String(),
		step: StepDetails,
	}
}

// SelectCategory sets the draft's category
func (d *Draft) SelectCategory(category models.Category) {
	d.category = category
	d.hasCategory = true
}

// SelectTarif sets the draft's publication tarif, which fixes the credit cost
func (d *Draft) SelectTarif(tarif models.PublicationTarif) {
	d.tarif = tarif
	d.hasTarif = true
}

// Category returns the selected category
func (d *Draft) Category() (models.Category, bool) {
	return d.category, d.hasCategory
}

// Tarif returns the selected tarif
func (d *Draft) Tarif() (models.PublicationTarif, bool) {
	return d.tarif, d.hasTarif
}

// Step returns the current step
func (d *Draft) Step() Step {
	return d.step
}

// Next advances to the following step. The current step must validate;
// otherwise the ValidationErrors map is returned and the cursor stays put.
func (d *Draft) Next() error {
	switch d.step {
	case StepDetails:
		if errs := d.validateDetails(); len(errs) > 0 {
			return errs
		}
		d.step = StepPhotos
	case StepPhotos:
		if errs := d.validatePhotos(); len(errs) > 0 {
			return errs
		}
		d.step = StepReview
	case StepReview:
		// nothing past review; submission leaves the wizard
	}
	return nil
}

// Back moves to the previous step. Always allowed, never re-validates.
func (d *Draft) Back() {
	if d.step > StepDetails {
		d.step--
	}
}

// RequiredCredits is the cost of publishing with the selected tarif
func (d *Draft) RequiredCredits() int {
	if !d.hasTarif {
		return 0
	}
	return d.tarif.Price
}

// Discard releases every photo handle and ends the draft. Called on cancel,
// teardown and after a completed submission.
func (d *Draft) Discard() {
	for _, p := range d.photos {
		p.Release()
	}
	d.photos = nil
	d.done = true
}

// Done reports whether the draft has been submitted or discarded
func (d *Draft) Done() bool {
	return d.done
}

// InsufficientCreditsError blocks a submission before any network call
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf(
		"Solde insuffisant : cette publication coûte %d crédits et votre solde est de %d. Achetez des crédits puis réessayez.",
		e.Required, e.Available)
}

// ErrSubmissionInFlight guards against double submission from repeated clicks
var ErrSubmissionInFlight = errors.New("une soumission est déjà en cours")

// BalanceCache is the session-held mirror of the server-side credit balance
type BalanceCache interface {
	Balance() int
	SetBalance(balance int)
}

// SubmitResult is the outcome of a successful submission. A non-empty
// PhotoWarning means the annonce exists but its photos did not make it.
type SubmitResult struct {
	Annonce      *models.Annonce
	SpentCredits int
	PhotoWarning string
}

// photoWarning directs the user to the dashboard; the created annonce is kept
const photoWarning = "Votre annonce a été créée, mais l'envoi des photos a échoué. Ajoutez-les plus tard depuis votre tableau de bord."

// Submit runs the submission protocol: full validation, credit gate against
// the cached balance (fail fast, no request), annonce creation in PENDING
// status, batched photo upload, then optimistic balance decrement. A photo
// upload failure after creation succeeded is reported as a warning, not an
// error, and the created annonce is never rolled back.
func (d *Draft) Submit(client *api.Client, balance BalanceCache) (*SubmitResult, error) {
	if err := d.beginSubmit(); err != nil {
		return nil, err
	}
	defer d.endSubmit()

	if errs := d.validateDetails(); len(errs) > 0 {
		return nil, errs
	}
	if errs := d.validatePhotos(); len(errs) > 0 {
		return nil, errs
	}

	required := d.RequiredCredits()
	available := balance.Balance()
	if available < required {
		return nil, &InsufficientCreditsError{Required: required, Available: available}
	}

	created, err := client.CreateAnnonce(api.AnnonceCreate{
		Title:           d.Details.Title,
		Description:     d.Details.Description,
		Price:           d.Details.Price,
		CategoryID:      d.category.ID,
		PublicationType: d.tarif.TypeName,
		Condition:       d.Details.Condition,
		Size:            d.Details.Size,
		Brand:           d.Details.Brand,
		Color:           d.Details.Color,
		Location:        d.Details.Location,
	})
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{Annonce: created, SpentCredits: required}

	if len(d.photos) > 0 {
		if err := d.uploadPhotos(client, created.ID); err != nil {
			result.PhotoWarning = photoWarning
		}
	}

	balance.SetBalance(available - required)
	d.Discard()
	return result, nil
}

// beginSubmit takes the submission latch; concurrent repeats get
// ErrSubmissionInFlight
func (d *Draft) beginSubmit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sending {
		return ErrSubmissionInFlight
	}
	d.sending = true
	return nil
}

func (d *Draft) endSubmit() {
	d.mu.Lock()
	d.sending = false
	d.mu.Unlock()
}

// uploadPhotos sends every attached photo in one batched request
func (d *Draft) uploadPhotos(client *api.Client, annonceID int64) error {
	uploads := make([]api.PhotoUpload, 0, len(d.photos))
	var openErr error
	for _, p := range d.photos {
		f, err := p.Open()
		if err != nil {
			openErr = errors.Wrapf(err, "failed to open photo %s", p.FileName)
			break
		}
		defer f.Close()
		uploads = append(uploads, api.PhotoUpload{
			FileName:    p.FileName,
			ContentType: p.MIME,
			Reader:      f,
		})
	}
	if openErr != nil {
		return openErr
	}

	_, err := client.UploadAnnoncePhotos(annonceID, uploads)
	return err
}

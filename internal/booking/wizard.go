// Package booking implements the multi-step booking wizard: event
// selection, personal details, professional details, review and the
// handoff to the hosted payment page.
package booking

import (
	"context"
	"errors"
	"log"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/iliyamo/workshop-booking/internal/catalog"
	"github.com/iliyamo/workshop-booking/internal/model"
	"github.com/iliyamo/workshop-booking/internal/sheets"
)

// Backend is the part of the remote API the wizard calls. *sheets.Client
// satisfies it.
type Backend interface {
	CheckAvailability(ctx context.Context, eventID string) (model.Availability, error)
	ValidateBooking(ctx context.Context, eventID string, numSeats int) error
	CreateCheckoutSession(ctx context.Context, eventID string, customer model.CustomerData) (model.CheckoutSession, error)
}

// CheckoutStarted is called once a checkout session has been created.
type CheckoutStarted func(ctx context.Context, eventID string, customer model.CustomerData, session model.CheckoutSession)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Seed is the deep-link state a wizard starts from.
type Seed struct {
	EventID    string `json:"eventId,omitempty"`
	WorkshopID string `json:"workshopId,omitempty"`
}

// State is a copy of the wizard's observable state.
type State struct {
	Step        Step     `json:"step"`
	StepName    string   `json:"stepName"`
	Busy        bool     `json:"busy"`
	Closed      bool     `json:"closed"`
	Draft       Draft    `json:"draft"`
	Review      *Review  `json:"review,omitempty"`
	Invalid     []string `json:"invalid,omitempty"`
	Error       string   `json:"error,omitempty"`
	CheckoutURL string   `json:"checkoutUrl,omitempty"`
	Seed        Seed     `json:"seed"`
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithCurrency sets the currency label used in the review. Default NZD.
func WithCurrency(c string) Option { return func(w *Wizard) { w.currency = c } }

// WithCheckoutHook registers fn to run after a checkout session is created.
func WithCheckoutHook(fn CheckoutStarted) Option { return func(w *Wizard) { w.onCheckout = fn } }

// Wizard is one customer's booking in progress. Transitions are
// serialised; while a remote call is outstanding the wizard is busy and
// other transitions fail with ErrBusy.
type Wizard struct {
	backend    Backend
	snap       catalog.Snapshot
	seed       Seed
	currency   string
	onCheckout CheckoutStarted

	mu       sync.Mutex
	step     Step
	draft    Draft
	review   *Review
	invalid  map[string]bool
	busy     bool
	closed   bool
	lastErr  string
	checkout model.CheckoutSession

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int
}

// New returns a wizard on the first step. snap is the schedule the
// customer picks from; seats are re-checked live on selection.
func New(backend Backend, snap catalog.Snapshot, seed Seed, opts ...Option) *Wizard {
	w := &Wizard{
		backend:  backend,
		snap:     snap,
		seed:     seed,
		currency: "NZD",
		step:     StepEventSelection,
		draft:    newDraft(),
		invalid:  map[string]bool{},
		subs:     map[int]func(State){},
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Transition applies ev and returns the step the wizard is on afterwards.
// On error the step and draft are left as they were, apart from the
// invalid-field flags.
func (w *Wizard) Transition(ctx context.Context, ev Event) (Step, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return StepPayment, ErrWizardClosed
	}
	if w.busy {
		step := w.step
		w.mu.Unlock()
		return step, ErrBusy
	}

	var err error
	switch e := ev.(type) {
	case SelectEvent:
		err = w.selectEvent(ctx, e.EventID)
	case Next:
		err = w.next(e.Fields)
	case Back:
		err = w.back(e.To)
	case Pay:
		err = w.pay(ctx)
	default:
		err = ErrInvalidTransition
	}
	w.lastErr = ""
	if err != nil {
		w.lastErr = userMessage(err)
	}
	step, st := w.step, w.stateLocked()
	w.mu.Unlock()

	w.notify(st)
	return step, err
}

// State returns a copy of the current state.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

// Busy reports whether a remote call is in flight.
func (w *Wizard) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

// Invalid reports whether field failed its last validation.
func (w *Wizard) Invalid(field string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.invalid[field]
}

// Options groups the selectable events of the wizard's schedule.
func (w *Wizard) Options() OptionList { return Options(w.snap, w.seed) }

// Subscribe registers fn for state changes. fn must not call back into
// the wizard's transitions.
func (w *Wizard) Subscribe(fn func(State)) (unsubscribe func()) {
	w.subMu.Lock()
	id := w.nextID
	w.nextID++
	w.subs[id] = fn
	w.subMu.Unlock()
	return func() {
		w.subMu.Lock()
		delete(w.subs, id)
		w.subMu.Unlock()
	}
}

func (w *Wizard) notify(st State) {
	w.subMu.Lock()
	fns := make([]func(State), 0, len(w.subs))
	for _, fn := range w.subs {
		fns = append(fns, fn)
	}
	w.subMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

func (w *Wizard) stateLocked() State {
	st := State{
		Step:        w.step,
		StepName:    w.step.String(),
		Busy:        w.busy,
		Closed:      w.closed,
		Draft:       w.draft,
		Error:       w.lastErr,
		CheckoutURL: w.checkout.URL,
		Seed:        w.seed,
	}
	if w.review != nil {
		r := *w.review
		st.Review = &r
	}
	if w.draft.EventDetails != nil {
		d := *w.draft.EventDetails
		st.Draft.EventDetails = &d
	}
	for f, bad := range w.invalid {
		if bad {
			st.Invalid = append(st.Invalid, f)
		}
	}
	sort.Strings(st.Invalid)
	return st
}

// remote runs fn with mu released and the wizard marked busy.
func (w *Wizard) remote(fn func() error) error {
	w.busy = true
	st := w.stateLocked()
	w.mu.Unlock()
	w.notify(st)

	err := fn()

	w.mu.Lock()
	w.busy = false
	return err
}

func (w *Wizard) findEvent(id string) (model.Event, model.Workshop, bool) {
	for _, e := range w.snap.Events {
		if e.EventID != id {
			continue
		}
		for _, ew := range w.snap.Workshops {
			if ew.WorkshopID == e.WorkshopID {
				return e, ew.Workshop, true
			}
		}
		return e, model.Workshop{}, false
	}
	return model.Event{}, model.Workshop{}, false
}

func (w *Wizard) selectEvent(ctx context.Context, eventID string) error {
	if w.step != StepEventSelection {
		return ErrInvalidTransition
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return ValidationErrors{{Field: "eventId", Reason: "required"}}
	}
	ev, ws, ok := w.findEvent(eventID)
	if !ok {
		return &StaleDataError{EventID: eventID, Message: "this event is not on the current schedule"}
	}

	var avail model.Availability
	err := w.remote(func() error {
		var err error
		avail, err = w.backend.CheckAvailability(ctx, eventID)
		return err
	})
	if err != nil {
		log.Printf("booking: availability check for %s failed: %v", eventID, err)
		return err
	}
	if !avail.IsAvailable {
		return &StaleDataError{EventID: eventID, Message: "Sorry, this event is no longer available. Please select another."}
	}

	w.draft.EventID = eventID
	w.draft.EventDetails = &EventSnapshot{Event: ev, Workshop: ws, Availability: avail}
	log.Printf("booking: event %s selected", eventID)
	return nil
}

func (w *Wizard) next(f Fields) error {
	switch w.step {
	case StepEventSelection:
		if w.draft.EventID == "" {
			return ErrNoEventSelected
		}
	case StepPersonalDetails:
		if err := w.personalDetails(f); err != nil {
			return err
		}
	case StepProfessionalDetails:
		w.draft.Organization = strings.TrimSpace(f.Organization)
		w.draft.Designation = strings.TrimSpace(f.Designation)
		w.review = buildReview(w.draft, w.currency)
	case StepReview:
		w.draft.NewsletterOptIn = f.NewsletterOptIn
		w.draft.PromoOptIn = f.PromoOptIn
		w.review = buildReview(w.draft, w.currency)
	default:
		return ErrInvalidTransition
	}
	w.step++
	return nil
}

// personalDetails validates every field before touching the draft, so a
// failed submission leaves the previous values in place.
func (w *Wizard) personalDetails(f Fields) error {
	name := strings.TrimSpace(f.FullName)
	email := strings.TrimSpace(f.Email)
	phone := strings.TrimSpace(f.Phone)
	seats := w.draft.NumSeats
	if f.NumSeats != 0 {
		seats = f.NumSeats
	}

	var errs ValidationErrors
	if name == "" {
		errs = append(errs, ValidationError{Field: "fullName", Reason: "required"})
	}
	switch {
	case email == "":
		errs = append(errs, ValidationError{Field: "email", Reason: "required"})
	case !emailPattern.MatchString(email):
		errs = append(errs, ValidationError{Field: "email", Reason: "must be a valid email address"})
	}
	if phone == "" {
		errs = append(errs, ValidationError{Field: "phone", Reason: "required"})
	}
	if seats < 1 {
		errs = append(errs, ValidationError{Field: "numSeats", Reason: "must be at least 1"})
	} else if s := w.draft.EventDetails; s != nil && s.Availability.AvailableSeats > 0 && seats > int(s.Availability.AvailableSeats) {
		errs = append(errs, ValidationError{Field: "numSeats", Reason: "more seats than are available"})
	}

	for _, field := range []string{"fullName", "email", "phone", "numSeats"} {
		w.invalid[field] = false
	}
	for _, e := range errs {
		w.invalid[e.Field] = true
	}
	if len(errs) > 0 {
		return errs
	}

	w.draft.FullName = name
	w.draft.Email = email
	w.draft.Phone = phone
	w.draft.NumSeats = seats
	return nil
}

func (w *Wizard) back(to Step) error {
	if !to.Valid() || to >= w.step {
		return ErrInvalidTransition
	}
	w.step = to
	return nil
}

func (w *Wizard) pay(ctx context.Context) error {
	if w.step != StepPayment {
		return ErrInvalidTransition
	}
	eventID := w.draft.EventID
	customer := w.draft.Customer()

	var session model.CheckoutSession
	err := w.remote(func() error {
		if err := w.backend.ValidateBooking(ctx, eventID, customer.NumSeats); err != nil {
			var apiErr *sheets.APIError
			if errors.As(err, &apiErr) && apiErr.Refused() {
				return &StaleDataError{EventID: eventID, Message: apiErr.Message}
			}
			return err
		}
		var err error
		session, err = w.backend.CreateCheckoutSession(ctx, eventID, customer)
		if err == nil && w.onCheckout != nil {
			w.onCheckout(ctx, eventID, customer, session)
		}
		return err
	})
	if err != nil {
		log.Printf("booking: payment handoff for %s failed: %v", eventID, err)
		return err
	}

	log.Printf("booking: checkout session %s created for %s", session.SessionID, eventID)
	w.checkout = session
	w.closed = true
	w.draft = Draft{EventID: eventID, NumSeats: customer.NumSeats}
	w.review = nil
	return nil
}

func userMessage(err error) string {
	var stale *StaleDataError
	if errors.As(err, &stale) {
		return stale.Message
	}
	var apiErr *sheets.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return "Please correct the highlighted fields."
	}
	return err.Error()
}

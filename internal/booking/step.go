package booking

// Step is a position in the booking wizard.
type Step int

const (
	StepEventSelection Step = iota + 1
	StepPersonalDetails
	StepProfessionalDetails
	StepReview
	StepPayment
)

var stepNames = map[Step]string{
	StepEventSelection:      "event-selection",
	StepPersonalDetails:     "personal-details",
	StepProfessionalDetails: "professional-details",
	StepReview:              "review",
	StepPayment:             "payment",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return "unknown"
}

// Valid reports whether s is one of the five wizard steps.
func (s Step) Valid() bool { return s >= StepEventSelection && s <= StepPayment }

// Event is an input to Wizard.Transition.
type Event interface{ isEvent() }

// SelectEvent picks a scheduled event. Only allowed on the first step.
type SelectEvent struct {
	EventID string `json:"eventId"`
}

// Next submits the fields of the current step and advances. Each step
// reads only its own fields.
type Next struct {
	Fields Fields `json:"fields"`
}

// Back returns to an earlier step. The draft is kept.
type Back struct {
	To Step `json:"to"`
}

// Pay re-validates the booking and opens a checkout session.
type Pay struct{}

func (SelectEvent) isEvent() {}
func (Next) isEvent()        {}
func (Back) isEvent()        {}
func (Pay) isEvent()         {}

// Fields carries form input. Step 2 reads the personal details and
// NumSeats, step 3 the professional details, step 4 the opt-ins.
type Fields struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	NumSeats        int    `json:"numSeats"`
	Organization    string `json:"organization"`
	Designation     string `json:"designation"`
	NewsletterOptIn bool   `json:"newsletterOptIn"`
	PromoOptIn      bool   `json:"promoOptIn"`
}

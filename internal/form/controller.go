package form

import (
	"context"
	"strings"

	"github.com/mdc-app/mdc/internal/entry"
	"github.com/mdc-app/mdc/internal/errors"
	"github.com/mdc-app/mdc/internal/ops"
)

// Defaults applied to empty fields on submit.
const (
	DefaultType      = "Running"
	DefaultIntensity = "Baja"
	DefaultMood      = "Feliz"
)

// Submit button labels.
const (
	LabelCreate = "Guardar entrada"
	LabelEdit   = "Guardar cambios"
)

// Mode is the controller state.
type Mode int

const (
	Creating Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "creating"
}

// Fields holds the raw form inputs.
type Fields struct {
	Date           string `json:"fecha"`
	Type           string `json:"tipo"`
	Distance       string `json:"distancia"`
	Duration       string `json:"duracion"`
	Intensity      string `json:"intensidad"`
	Mood           string `json:"emociones"`
	CyclePhase     string `json:"ciclo_menstrual"`
	PreWorkoutMeal string `json:"alimentacion_previa"`
	Comments       string `json:"comentarios"`
}

// FieldsFrom fills form inputs from a stored entry.
func FieldsFrom(e entry.Entry) Fields {
	return Fields{
		Date:           e.Date,
		Type:           orDefault(e.Type, DefaultType),
		Distance:       FormatDistance(e.Distance.Float()),
		Duration:       e.Duration,
		Intensity:      orDefault(e.Intensity, DefaultIntensity),
		Mood:           orDefault(e.Mood, DefaultMood),
		CyclePhase:     e.CyclePhase,
		PreWorkoutMeal: e.PreWorkoutMeal,
		Comments:       e.Comments,
	}
}

// Entry builds the UI-shape entry a submit would save. Empty type,
// intensity and mood take their defaults and the duration is normalized
// to HH:MM:SS. Returns INVALID_DURATION when the duration does not match.
func (f Fields) Entry() (entry.Entry, error) {
	if entry.CheckDuration(f.Duration) == entry.DurationInvalid {
		return entry.Entry{}, errors.NewInvalidDuration(f.Duration)
	}
	return entry.Entry{
		Date:           strings.TrimSpace(f.Date),
		Type:           orDefault(f.Type, DefaultType),
		Distance:       entry.Number(ParseDistance(f.Distance)),
		Duration:       entry.ToHHMMSS(f.Duration),
		Intensity:      orDefault(f.Intensity, DefaultIntensity),
		Mood:           orDefault(f.Mood, DefaultMood),
		CyclePhase:     strings.TrimSpace(f.CyclePhase),
		PreWorkoutMeal: strings.TrimSpace(f.PreWorkoutMeal),
		Comments:       strings.TrimSpace(f.Comments),
	}, nil
}

// Saver persists submitted entries. *ops.Layer implements it.
type Saver interface {
	Save(ctx context.Context, e entry.Entry) (*ops.SaveOutput, error)
	Update(ctx context.Context, id entry.ID, e entry.Entry) (*ops.SaveOutput, error)
}

// Controller is the create/edit state machine behind the entry form.
// It is not safe for concurrent use.
type Controller struct {
	saver      Saver
	mode       Mode
	editID     entry.ID
	fields     Fields
	validation Validation
	touched    bool
}

// New returns a controller in the Creating state.
func New(saver Saver) *Controller {
	c := &Controller{saver: saver}
	c.revalidate()
	return c
}

// Mode returns the current state.
func (c *Controller) Mode() Mode { return c.mode }

// EditID returns the id being edited, empty while creating.
func (c *Controller) EditID() entry.ID { return c.editID }

// Fields returns the current inputs.
func (c *Controller) Fields() Fields { return c.fields }

// SubmitLabel returns the submit button text for the current state.
func (c *Controller) SubmitLabel() string {
	if c.mode == Editing {
		return LabelEdit
	}
	return LabelCreate
}

// CancelVisible reports whether the cancel affordance is shown.
func (c *Controller) CancelVisible() bool { return c.mode == Editing }

// Validation returns the current validation outcome. The duration error
// is only reported once the duration has been edited, blurred or submitted.
func (c *Controller) Validation() Validation {
	v := c.validation
	if !c.touched {
		v.Error = ""
	}
	return v
}

// EnterEdit switches to Editing for e and fills every field from it.
func (c *Controller) EnterEdit(e entry.Entry) {
	c.mode = Editing
	c.editID = e.ID
	c.fields = FieldsFrom(e)
	c.touched = false
	c.revalidate()
}

// Cancel returns to Creating and clears every field.
func (c *Controller) Cancel() {
	c.reset()
}

// SetDuration updates the duration input and re-validates.
func (c *Controller) SetDuration(raw string) {
	c.fields.Duration = raw
	c.touched = true
	c.revalidate()
}

// SetDistance updates the distance input and re-validates.
func (c *Controller) SetDistance(raw string) {
	c.fields.Distance = raw
	c.revalidate()
}

// Set replaces every input and re-validates.
func (c *Controller) Set(f Fields) {
	if f.Duration != c.fields.Duration {
		c.touched = true
	}
	c.fields = f
	c.revalidate()
}

// Blur re-validates as when the duration field loses focus.
func (c *Controller) Blur() {
	c.touched = true
	c.revalidate()
}

// Submit saves the current inputs, creating or updating depending on the
// state. An invalid duration is rejected without calling the saver; a
// suspicious one is saved. On success the controller returns to Creating.
func (c *Controller) Submit(ctx context.Context) (*ops.SaveOutput, error) {
	c.touched = true
	c.revalidate()
	if c.validation.Blocks() {
		return nil, errors.NewInvalidDuration(c.fields.Duration)
	}

	e, err := c.fields.Entry()
	if err != nil {
		return nil, err
	}

	var out *ops.SaveOutput
	if c.mode == Editing {
		out, err = c.saver.Update(ctx, c.editID, e)
	} else {
		out, err = c.saver.Save(ctx, e)
	}
	if err != nil {
		return nil, err
	}

	c.reset()
	return out, nil
}

func (c *Controller) reset() {
	c.mode = Creating
	c.editID = ""
	c.fields = Fields{}
	c.touched = false
	c.revalidate()
}

func (c *Controller) revalidate() {
	c.validation = Validate(c.fields.Duration, c.fields.Distance)
}

func orDefault(s, def string) string {
	if t := strings.TrimSpace(s); t != "" {
		return t
	}
	return def
}

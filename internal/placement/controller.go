// Package placement turns pointer interaction into field placement, drag and
// page duplication
package placement

import (
	"fmt"
	"math"

	"github.com/a3tai/mcp-pdf-signer/internal/fields"
	"github.com/a3tai/mcp-pdf-signer/internal/geometry"
	signerrors "github.com/a3tai/mcp-pdf-signer/internal/pdf/errors"
)

// State of the placement controller
type State int

const (
	StateIdle State = iota
	StateFieldTypeArmed
	StateDragging
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFieldTypeArmed:
		return "armed"
	case StateDragging:
		return "dragging"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PointerEvent is a pointer position relative to the document container
// together with the container's scroll and zoom at the instant of the event
type PointerEvent struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	ScrollTop float64 `json:"scroll_top"`
	Scale     float64 `json:"scale"`
}

func (e PointerEvent) document() geometry.Point {
	return geometry.ViewportToDocument(e.X, e.Y, e.ScrollTop, e.Scale)
}

// Geometry is the page table view the controller needs
type Geometry interface {
	geometry.Heights
	Width(page int) float64
	RequireReady() error
}

// Assignee supplies the recipient new fields are assigned to
type Assignee interface {
	First() (fields.Recipient, bool)
}

// SignRequest asks the signing collaborator to capture a value for a field
type SignRequest struct {
	FieldID string `json:"field_id"`
}

// ReleaseOutcome reports what a pointer-up concluded
type ReleaseOutcome struct {
	Field       fields.DocumentField `json:"field"`
	Moved       bool                 `json:"moved"`
	SignRequest *SignRequest         `json:"sign_request,omitempty"`
}

type dragState struct {
	fieldID string
	grab    geometry.Point
	moved   bool
}

// Controller is the placement state machine: Idle, FieldTypeArmed(type) and
// Dragging(field, grab offset). It is owned by one session
type Controller struct {
	state    State
	armed    fields.FieldType
	drag     dragState
	store    *fields.Store
	pages    Geometry
	mapper   geometry.Mapper
	assignee Assignee
}

// NewController creates a controller in the Idle state
func NewController(store *fields.Store, pages Geometry, assignee Assignee) *Controller {
	return &Controller{
		state:    StateIdle,
		store:    store,
		pages:    pages,
		mapper:   geometry.NewMapper(pages),
		assignee: assignee,
	}
}

// State returns the current state
func (c *Controller) State() State {
	return c.state
}

// ArmedType returns the armed field type, empty unless armed
func (c *Controller) ArmedType() fields.FieldType {
	if c.state != StateFieldTypeArmed {
		return ""
	}
	return c.armed
}

// SelectFieldType arms placement of t. Selecting the already armed type
// disarms. Selection is ignored while a drag is in progress
func (c *Controller) SelectFieldType(t fields.FieldType) State {
	switch c.state {
	case StateDragging:
		return c.state
	case StateFieldTypeArmed:
		if c.armed == t {
			c.state = StateIdle
			c.armed = ""
			return c.state
		}
	}
	c.state = StateFieldTypeArmed
	c.armed = t
	return c.state
}

// Disarm returns to Idle from the armed state
func (c *Controller) Disarm() {
	if c.state == StateFieldTypeArmed {
		c.state = StateIdle
		c.armed = ""
	}
}

// Click places the armed field type at the pointer. The field's top-left
// corner lands on the pointer and the selection is cleared afterwards, so each
// arm places exactly one field. A click before page geometry is known is
// rejected with ErrGeometryUnavailable and leaves the controller armed
func (c *Controller) Click(ev PointerEvent) (fields.DocumentField, error) {
	if c.state != StateFieldTypeArmed {
		return fields.DocumentField{}, signerrors.New(signerrors.ErrorTypeInvalidArgument,
			"no field type selected").WithContext("state " + c.state.String())
	}
	if err := c.pages.RequireReady(); err != nil {
		return fields.DocumentField{}, err
	}

	p := ev.document()
	w, h := c.armed.DefaultSize()
	f := fields.DocumentField{
		Type:     c.armed,
		X:        p.X,
		Y:        p.Y,
		Width:    w,
		Height:   h,
		Required: true,
	}
	if r, ok := c.assignee.First(); ok {
		f.RecipientID = r.ID
	}

	placed, err := c.store.Insert(f)
	if err != nil {
		return fields.DocumentField{}, err
	}
	c.state = StateIdle
	c.armed = ""
	return placed, nil
}

// PlaceField arms t and places it at the pointer in one step
func (c *Controller) PlaceField(t fields.FieldType, ev PointerEvent) (fields.DocumentField, error) {
	if c.state == StateDragging {
		return fields.DocumentField{}, signerrors.New(signerrors.ErrorTypeInvalidArgument, "cannot place while dragging")
	}
	prevState, prevType := c.state, c.armed
	c.state = StateFieldTypeArmed
	c.armed = t
	f, err := c.Click(ev)
	if err != nil {
		c.state, c.armed = prevState, prevType
	}
	return f, err
}

// PointerDown starts dragging fieldID. The grab offset is the pointer's
// position inside the field's bounding box
func (c *Controller) PointerDown(fieldID string, ev PointerEvent) error {
	if err := c.pages.RequireReady(); err != nil {
		return err
	}
	f, ok := c.store.Get(fieldID)
	if !ok {
		return signerrors.Newf(signerrors.ErrorTypeNotFound, "field %s not found", fieldID).WithField(fieldID)
	}
	p := ev.document()
	c.state = StateDragging
	c.armed = ""
	c.drag = dragState{
		fieldID: fieldID,
		grab:    geometry.Point{X: p.X - f.X, Y: p.Y - f.Y},
	}
	return nil
}

// PointerMove repositions the dragged field to pointer minus grab offset,
// clamped to the page the field lands on. The page number follows live
func (c *Controller) PointerMove(ev PointerEvent) (fields.DocumentField, error) {
	if c.state != StateDragging {
		return fields.DocumentField{}, signerrors.New(signerrors.ErrorTypeInvalidArgument, "no drag in progress")
	}
	f, ok := c.store.Get(c.drag.fieldID)
	if !ok {
		c.reset()
		return fields.DocumentField{}, signerrors.Newf(signerrors.ErrorTypeNotFound, "field %s not found", c.drag.fieldID)
	}
	p := ev.document()
	x, y := c.clamp(f, p.X-c.drag.grab.X, p.Y-c.drag.grab.Y)
	moved, err := c.store.Move(f.ID, x, y)
	if err != nil {
		return fields.DocumentField{}, err
	}
	c.drag.moved = true
	return moved, nil
}

// PointerUp ends the drag without changing coordinates. Releasing an unsigned
// signature field that was never moved is a click on it and yields a
// SignRequest for the signing collaborator
func (c *Controller) PointerUp() (ReleaseOutcome, error) {
	if c.state != StateDragging {
		return ReleaseOutcome{}, signerrors.New(signerrors.ErrorTypeInvalidArgument, "no drag in progress")
	}
	drag := c.drag
	c.reset()

	f, ok := c.store.Get(drag.fieldID)
	if !ok {
		return ReleaseOutcome{}, signerrors.Newf(signerrors.ErrorTypeNotFound, "field %s not found", drag.fieldID)
	}
	out := ReleaseOutcome{Field: f, Moved: drag.moved}
	if !drag.moved {
		out.SignRequest = c.signRequestFor(f)
	}
	return out, nil
}

// Cancel abandons a drag, keeping the last applied position
func (c *Controller) Cancel() {
	if c.state == StateDragging {
		c.reset()
	}
}

// FieldClick routes a click on an existing field. Unsigned signature fields
// are handed to the signing collaborator; other fields need no action
func (c *Controller) FieldClick(fieldID string) (*SignRequest, error) {
	if c.state == StateDragging {
		return nil, nil
	}
	f, ok := c.store.Get(fieldID)
	if !ok {
		return nil, signerrors.Newf(signerrors.ErrorTypeNotFound, "field %s not found", fieldID).WithField(fieldID)
	}
	return c.signRequestFor(f), nil
}

// MoveBy moves a field by a pointer delta measured in viewport pixels at the
// given zoom, applying the same clamping as a drag
func (c *Controller) MoveBy(fieldID string, dx, dy, scale float64) (fields.DocumentField, error) {
	if err := c.pages.RequireReady(); err != nil {
		return fields.DocumentField{}, err
	}
	f, ok := c.store.Get(fieldID)
	if !ok {
		return fields.DocumentField{}, signerrors.Newf(signerrors.ErrorTypeNotFound, "field %s not found", fieldID).WithField(fieldID)
	}
	if scale <= 0 {
		scale = 1
	}
	x, y := c.clamp(f, f.X+dx/scale, f.Y+dy/scale)
	return c.store.Move(f.ID, x, y)
}

func (c *Controller) signRequestFor(f fields.DocumentField) *SignRequest {
	if f.Type == fields.FieldTypeSignature && !f.IsSigned() {
		return &SignRequest{FieldID: f.ID}
	}
	return nil
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.drag = dragState{}
}

// clamp keeps the field inside the bounds of the page its proposed top edge
// falls on
func (c *Controller) clamp(f fields.DocumentField, x, y float64) (float64, float64) {
	page := c.mapper.PageForAbsoluteY(y)
	pageWidth := c.pages.Width(page)
	pageHeight := c.pages.Height(page)

	x = clampRange(x, 0, pageWidth-f.Width)
	rel := clampRange(c.mapper.RelativeY(y, page), 0, pageHeight-f.Height)
	return x, math.Max(0, c.mapper.AbsoluteY(rel, page))
}

func clampRange(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// Package session owns the state of one document being prepared for
// signature and exposes the operations hosts drive it with
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/a3tai/mcp-pdf-signer/internal/fields"
	"github.com/a3tai/mcp-pdf-signer/internal/geometry"
	"github.com/a3tai/mcp-pdf-signer/internal/pdf"
	signerrors "github.com/a3tai/mcp-pdf-signer/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-signer/internal/placement"
	"github.com/a3tai/mcp-pdf-signer/internal/source"
)

// ValidationMode selects the rule set Validate applies
type ValidationMode string

const (
	ValidateSend   ValidationMode = "send"
	ValidateExport ValidationMode = "export"
)

// Options configures new sessions
type Options struct {
	DefaultPageHeight float64
	DefaultPageWidth  float64

	// AssumeNaturalSize records each PDF page at its true size when the
	// document is opened, for hosts that render at 1pt per unit
	AssumeNaturalSize bool

	Compositor *pdf.Compositor
	Logger     *slog.Logger
}

// GeometryStatus reports how much of the page table is known
type GeometryStatus struct {
	TotalPages int  `json:"total_pages"`
	KnownPages int  `json:"known_pages"`
	Ready      bool `json:"ready"`
}

// ExportOutcome is the status of an export for presentation to the user
type ExportOutcome struct {
	Success          bool     `json:"success"`
	Message          string   `json:"message"`
	Warnings         []string `json:"warnings,omitempty"`
	Violations       []string `json:"violations,omitempty"`
	Bytes            []byte   `json:"-"`
	PageCount        int      `json:"page_count,omitempty"`
	EmbedCount       int      `json:"embed_count"`
	PlaceholderCount int      `json:"placeholder_count"`
	SkippedFields    []string `json:"skipped_fields,omitempty"`
}

// Session is one document with its fields and recipients. Every operation
// takes the session lock, so tool calls against the same session are
// serialized. Export holds the lock only long enough to take a snapshot
type Session struct {
	id        string
	doc       *source.Document
	createdAt time.Time

	mu        sync.Mutex
	updatedAt time.Time
	table     *geometry.Table
	mapper    geometry.Mapper
	store     *fields.Store
	roster    *fields.Roster
	ctrl      *placement.Controller
	dup       *placement.Duplicator

	exporting  atomic.Bool
	compositor *pdf.Compositor
	logger     *slog.Logger
}

// New creates a session over doc. Text documents get a single page at PDF
// size, known immediately
func New(id string, doc *source.Document, opts Options) *Session {
	defH := opts.DefaultPageHeight
	if defH <= 0 {
		defH = geometry.DefaultPageHeight
	}
	defW := opts.DefaultPageWidth
	if defW <= 0 {
		defW = geometry.DefaultPageWidth
	}
	compositor := opts.Compositor
	if compositor == nil {
		compositor = pdf.NewCompositor(pdf.WithLogger(opts.Logger))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pages := 1
	if doc.Kind == source.KindPDF && doc.Info != nil {
		pages = doc.Info.PageCount
	}

	table := geometry.NewTable(pages, defH, defW)
	switch {
	case doc.Kind == source.KindText:
		_ = table.Record(1, pdf.TextPageWidth, pdf.TextPageHeight)
	case opts.AssumeNaturalSize && doc.Info != nil:
		for i, size := range doc.Info.PageSizes {
			_ = table.Record(i+1, size.Width, size.Height)
		}
	}

	store := fields.NewStore(geometry.NewMapper(table))
	roster := fields.NewRoster()
	now := time.Now().UTC()
	return &Session{
		id:         id,
		doc:        doc,
		createdAt:  now,
		updatedAt:  now,
		table:      table,
		mapper:     geometry.NewMapper(table),
		store:      store,
		roster:     roster,
		ctrl:       placement.NewController(store, table, roster),
		dup:        placement.NewDuplicator(store, table),
		compositor: compositor,
		logger:     logger.With("session", id),
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Document returns the source document
func (s *Session) Document() *source.Document {
	return s.doc
}

func (s *Session) touch() {
	s.updatedAt = time.Now().UTC()
}

// ReportPage records a page's natural size as reported by the renderer.
// Pages may arrive in any order; existing fields are re-assigned to pages as
// heights become known
func (s *Session) ReportPage(page int, width, height float64) (GeometryStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.table.Record(page, width, height); err != nil {
		return s.geometryStatus(), err
	}
	s.store.Reproject()
	s.touch()
	status := s.geometryStatus()
	if status.Ready {
		s.logger.Debug("page geometry complete", "pages", status.TotalPages)
	}
	return status, nil
}

// Geometry returns the page table status
func (s *Session) Geometry() GeometryStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.geometryStatus()
}

func (s *Session) geometryStatus() GeometryStatus {
	return GeometryStatus{
		TotalPages: s.table.TotalPages(),
		KnownPages: s.table.KnownCount(),
		Ready:      s.table.Ready(),
	}
}

// SelectFieldType arms or disarms placement of t
func (s *Session) SelectFieldType(t fields.FieldType) placement.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.SelectFieldType(t)
}

// PlacementState returns the controller state and armed type
func (s *Session) PlacementState() (placement.State, fields.FieldType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.State(), s.ctrl.ArmedType()
}

// Click places the armed field type at the pointer
func (s *Session) Click(ev placement.PointerEvent) (fields.DocumentField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.ctrl.Click(ev)
	if err == nil {
		s.touch()
	}
	return f, err
}

// PlaceField places a field of type t at the pointer
func (s *Session) PlaceField(t fields.FieldType, ev placement.PointerEvent) (fields.DocumentField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.ctrl.PlaceField(t, ev)
	if err != nil {
		return f, err
	}
	s.touch()
	s.logger.Debug("field placed", "field", f.ID, "type", f.Type, "page", f.PageNumber)
	return f, nil
}

// PointerDown starts dragging a field
func (s *Session) PointerDown(fieldID string, ev placement.PointerEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.PointerDown(fieldID, ev)
}

// PointerMove drags the grabbed field
func (s *Session) PointerMove(ev placement.PointerEvent) (fields.DocumentField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.ctrl.PointerMove(ev)
	if err == nil {
		s.touch()
	}
	return f, err
}

// PointerUp releases the grabbed field
func (s *Session) PointerUp() (placement.ReleaseOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.PointerUp()
}

// FieldClick routes a click on an existing field
func (s *Session) FieldClick(fieldID string) (*placement.SignRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.FieldClick(fieldID)
}

// MoveField moves a field by a viewport-pixel delta at the given zoom
func (s *Session) MoveField(fieldID string, dx, dy, scale float64) (fields.DocumentField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.ctrl.MoveBy(fieldID, dx, dy, scale)
	if err == nil {
		s.touch()
	}
	return f, err
}

// ResizeField changes a field's size
func (s *Session) ResizeField(fieldID string, width, height float64) (fields.DocumentField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.store.Resize(fieldID, width, height)
	if err == nil {
		s.touch()
	}
	return f, err
}

// SetRequired toggles whether a field must be completed
func (s *Session) SetRequired(fieldID string, required bool) (fields.DocumentField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.store.SetRequired(fieldID, required)
	if err == nil {
		s.touch()
	}
	return f, err
}

// DuplicateToAllPages copies a field onto every other page
func (s *Session) DuplicateToAllPages(fieldID string) (placement.DuplicateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.dup.DuplicateToAllPages(fieldID)
	if err != nil {
		return res, err
	}
	s.touch()
	s.logger.Debug("field duplicated", "field", fieldID, "copies", res.DuplicatedCount)
	return res, nil
}

// RemoveField deletes a field
func (s *Session) RemoveField(fieldID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.store.Remove(fieldID) {
		return signerrors.Newf(signerrors.ErrorTypeNotFound, "field %s not found", fieldID).WithField(fieldID)
	}
	s.touch()
	return nil
}

// AssignRecipient assigns a field to an existing recipient
func (s *Session) AssignRecipient(fieldID, recipientID string) (fields.DocumentField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roster.Get(recipientID); !ok {
		return fields.DocumentField{}, signerrors.Newf(signerrors.ErrorTypeNotFound, "recipient %s not found", recipientID)
	}
	f, err := s.store.AssignRecipient(fieldID, recipientID)
	if err == nil {
		s.touch()
	}
	return f, err
}

// AttachSignature attaches a captured value to a field, replacing any
// previous one
func (s *Session) AttachSignature(fieldID string, data fields.SignedData) (fields.DocumentField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.store.AttachSignature(fieldID, data)
	if err == nil {
		s.touch()
	}
	return f, err
}

// ClearSignature detaches a field's captured value
func (s *Session) ClearSignature(fieldID string) (fields.DocumentField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.store.ClearSignature(fieldID)
	if err == nil {
		s.touch()
	}
	return f, err
}

// AddRecipient appends a recipient
func (s *Session) AddRecipient(rec fields.Recipient) fields.Recipient {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.roster.Add(rec)
}

// UpdateRecipient changes a recipient's attributes
func (s *Session) UpdateRecipient(id string, upd fields.RecipientUpdate) (fields.Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.roster.Update(id, upd)
	if err == nil {
		s.touch()
	}
	return r, err
}

// RemoveRecipient deletes a recipient together with every field assigned to
// it, returning the number of fields removed
func (s *Session) RemoveRecipient(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.roster.Remove(id) {
		return 0, signerrors.Newf(signerrors.ErrorTypeNotFound, "recipient %s not found", id)
	}
	removed := s.store.RemoveByRecipient(id)
	s.touch()
	s.logger.Debug("recipient removed", "recipient", id, "fields_removed", removed)
	return removed, nil
}

// Recipients lists recipients in order
func (s *Session) Recipients() []fields.Recipient {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.List()
}

// Fields lists fields in placement order
func (s *Session) Fields() []fields.DocumentField {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.List()
}

// Field returns one field
func (s *Session) Field(id string) (fields.DocumentField, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(id)
}

// FieldsOnPage lists the fields whose page is page
func (s *Session) FieldsOnPage(page int) []fields.DocumentField {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.OnPage(page)
}

// AdjustedRect projects a field into viewport pixels for overlay drawing
func (s *Session) AdjustedRect(fieldID string, scale, scrollOffset float64) (geometry.Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.store.Get(fieldID)
	if !ok {
		return geometry.Rect{}, signerrors.Newf(signerrors.ErrorTypeNotFound, "field %s not found", fieldID).WithField(fieldID)
	}
	r := geometry.Rect{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height}
	return geometry.DocumentToViewport(r, scrollOffset, scale), nil
}

// RelativeY returns a field's position measured from the top of its page
func (s *Session) RelativeY(fieldID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.store.Get(fieldID)
	if !ok {
		return 0, signerrors.Newf(signerrors.ErrorTypeNotFound, "field %s not found", fieldID).WithField(fieldID)
	}
	return s.mapper.RelativeY(f.Y, f.PageNumber), nil
}

// Validate returns every violation of the selected rule set
func (s *Session) Validate(mode ValidationMode) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch mode {
	case ValidateSend, "":
		return fields.ValidateForSend(s.roster.List(), s.store.List()), nil
	case ValidateExport:
		return fields.ValidateForExport(s.roster.List(), s.store.List()), nil
	default:
		return nil, signerrors.Newf(signerrors.ErrorTypeInvalidArgument, "unknown validation mode %q", mode)
	}
}

// CheckInvariants reports fields whose page number disagrees with their
// position. It is empty unless there is a bug
func (s *Session) CheckInvariants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.CheckPageMembership()
}

// Export composes the signed document. Only one export per session runs at a
// time; a second trigger while one is in flight is rejected with
// ErrExportInFlight. Dangling recipient references block the export
func (s *Session) Export(ctx context.Context) (*ExportOutcome, error) {
	if !s.exporting.CompareAndSwap(false, true) {
		err := signerrors.New(signerrors.ErrorTypeExportInFlight, "an export is already in progress")
		return &ExportOutcome{Message: err.Error()}, err
	}
	defer s.exporting.Store(false)

	job, violations := s.snapshot()
	if len(violations) > 0 {
		err := fields.AsError(violations)
		return &ExportOutcome{Message: "export blocked by validation errors", Violations: violations}, err
	}

	started := time.Now()
	res, err := s.compositor.Compose(ctx, job)
	if err != nil {
		s.logger.Error("export failed", "error", err)
		return &ExportOutcome{Message: fmt.Sprintf("export failed: %v", err)}, err
	}

	msg := fmt.Sprintf("exported %d page(s) with %d signed field(s)", res.PageCount, res.EmbedCount)
	if n := len(res.Warnings); n > 0 {
		msg += fmt.Sprintf(" and %d warning(s)", n)
	}
	s.logger.Info("export finished", "duration", time.Since(started), "bytes", len(res.Bytes))
	return &ExportOutcome{
		Success:          true,
		Message:          msg,
		Warnings:         res.Warnings,
		Bytes:            res.Bytes,
		PageCount:        res.PageCount,
		EmbedCount:       res.EmbedCount,
		PlaceholderCount: res.PlaceholderCount,
		SkippedFields:    res.SkippedFields,
	}, nil
}

// Exporting reports whether an export is in flight
func (s *Session) Exporting() bool {
	return s.exporting.Load()
}

func (s *Session) snapshot() (pdf.ExportJob, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.store.List()
	if v := fields.ValidateForExport(s.roster.List(), list); len(v) > 0 {
		return pdf.ExportJob{}, v
	}

	rendered := make([]geometry.PageSize, s.table.TotalPages())
	for i := range rendered {
		rendered[i] = s.table.Size(i + 1)
	}
	job := pdf.ExportJob{Fields: list, Rendered: rendered}
	if s.doc.Kind == source.KindPDF {
		job.Source = s.doc.Data
	} else {
		job.Title = s.doc.Title
		job.Text = s.doc.Text
	}
	return job, nil
}

// Summary describes a session for listings
type Summary struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Kind       source.Kind    `json:"kind"`
	Origin     string         `json:"origin"`
	Geometry   GeometryStatus `json:"geometry"`
	FieldCount int            `json:"field_count"`
	Recipients int            `json:"recipients"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Summary returns a description of the session
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		ID:         s.id,
		Title:      s.doc.Title,
		Kind:       s.doc.Kind,
		Origin:     s.doc.Origin,
		Geometry:   s.geometryStatus(),
		FieldCount: s.store.Len(),
		Recipients: len(s.roster.List()),
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
	}
}

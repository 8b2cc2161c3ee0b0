package fields

import (
	"fmt"

	signerrors "github.com/a3tai/mcp-pdf-signer/internal/pdf/errors"
)

// PageLocator resolves the page an absolute document Y falls on
type PageLocator interface {
	PageForAbsoluteY(y float64) int
}

// Store is the ordered collection of fields of one document. Every mutation
// that touches Y recomputes PageNumber through the locator, so page membership
// cannot drift from position. Values handed out are copies
type Store struct {
	fields  []DocumentField
	locator PageLocator
}

// NewStore creates an empty store
func NewStore(locator PageLocator) *Store {
	return &Store{locator: locator}
}

func notFound(id string) error {
	return signerrors.Newf(signerrors.ErrorTypeNotFound, "field %s not found", id).WithField(id)
}

func (s *Store) indexOf(id string) int {
	for i := range s.fields {
		if s.fields[i].ID == id {
			return i
		}
	}
	return -1
}

// Insert appends a field, assigning an id when empty. The page number is
// always derived from Y
func (s *Store) Insert(f DocumentField) (DocumentField, error) {
	if f.ID == "" {
		f.ID = NewID()
	}
	if s.indexOf(f.ID) >= 0 {
		return DocumentField{}, signerrors.Newf(signerrors.ErrorTypeInvalidArgument, "field %s already exists", f.ID)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return DocumentField{}, signerrors.Newf(signerrors.ErrorTypeInvalidArgument,
			"field size must be positive, got %vx%v", f.Width, f.Height)
	}
	f = f.clone()
	f.PageNumber = s.locator.PageForAbsoluteY(f.Y)
	s.fields = append(s.fields, f)
	return f.clone(), nil
}

// Get returns the field with the given id
func (s *Store) Get(id string) (DocumentField, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return DocumentField{}, false
	}
	return s.fields[i].clone(), true
}

// List returns all fields in insertion order
func (s *Store) List() []DocumentField {
	out := make([]DocumentField, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.clone()
	}
	return out
}

// OnPage returns the fields whose page number is page
func (s *Store) OnPage(page int) []DocumentField {
	var out []DocumentField
	for _, f := range s.fields {
		if f.PageNumber == page {
			out = append(out, f.clone())
		}
	}
	return out
}

// Len returns the number of fields
func (s *Store) Len() int {
	return len(s.fields)
}

func (s *Store) update(id string, fn func(f *DocumentField)) (DocumentField, error) {
	i := s.indexOf(id)
	if i < 0 {
		return DocumentField{}, notFound(id)
	}
	fn(&s.fields[i])
	s.fields[i].PageNumber = s.locator.PageForAbsoluteY(s.fields[i].Y)
	return s.fields[i].clone(), nil
}

// Move sets the absolute position of a field
func (s *Store) Move(id string, x, y float64) (DocumentField, error) {
	return s.update(id, func(f *DocumentField) {
		f.X = x
		f.Y = y
	})
}

// Resize changes the size of a field
func (s *Store) Resize(id string, width, height float64) (DocumentField, error) {
	if width <= 0 || height <= 0 {
		return DocumentField{}, signerrors.Newf(signerrors.ErrorTypeInvalidArgument,
			"field size must be positive, got %vx%v", width, height)
	}
	return s.update(id, func(f *DocumentField) {
		f.Width = width
		f.Height = height
	})
}

// AssignRecipient points a field at a recipient
func (s *Store) AssignRecipient(id, recipientID string) (DocumentField, error) {
	return s.update(id, func(f *DocumentField) {
		f.RecipientID = recipientID
	})
}

// SetRequired toggles whether a field must be filled
func (s *Store) SetRequired(id string, required bool) (DocumentField, error) {
	return s.update(id, func(f *DocumentField) {
		f.Required = required
	})
}

// AttachSignature replaces the signed value of a field. The store keeps its
// own copy, so the caller's value is never shared
func (s *Store) AttachSignature(id string, data SignedData) (DocumentField, error) {
	return s.update(id, func(f *DocumentField) {
		sd := data
		f.SignedData = &sd
	})
}

// ClearSignature detaches the signed value of a field
func (s *Store) ClearSignature(id string) (DocumentField, error) {
	return s.update(id, func(f *DocumentField) {
		f.SignedData = nil
	})
}

// Remove deletes a field, reporting whether it existed
func (s *Store) Remove(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.fields = append(s.fields[:i], s.fields[i+1:]...)
	return true
}

// RemoveByRecipient deletes every field assigned to recipientID
func (s *Store) RemoveByRecipient(recipientID string) int {
	kept := s.fields[:0]
	removed := 0
	for _, f := range s.fields {
		if f.RecipientID == recipientID {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	s.fields = kept
	return removed
}

// Reproject recomputes every page number, used after page heights change
func (s *Store) Reproject() {
	for i := range s.fields {
		s.fields[i].PageNumber = s.locator.PageForAbsoluteY(s.fields[i].Y)
	}
}

// CheckPageMembership returns a description of every field whose cached page
// number disagrees with its position. An empty result is the only valid state
func (s *Store) CheckPageMembership() []string {
	var bad []string
	for _, f := range s.fields {
		if want := s.locator.PageForAbsoluteY(f.Y); want != f.PageNumber {
			bad = append(bad, fmt.Sprintf("field %s: page %d, position maps to page %d", f.ID, f.PageNumber, want))
		}
	}
	return bad
}

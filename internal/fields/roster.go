package fields

import (
	signerrors "github.com/a3tai/mcp-pdf-signer/internal/pdf/errors"
)

const (
	// PlaceholderName is the name a freshly added recipient starts with
	PlaceholderName = "Full name"
	// PlaceholderEmail is the email a freshly added recipient starts with
	PlaceholderEmail = "email@example.com"
)

// Roster is the ordered list of recipients of one document
type Roster struct {
	recipients []Recipient
}

// NewRoster creates a roster holding one placeholder signer
func NewRoster() *Roster {
	r := &Roster{}
	r.Add(Recipient{})
	return r
}

// Add appends a recipient, filling unset values with placeholders
func (r *Roster) Add(rec Recipient) Recipient {
	if rec.ID == "" {
		rec.ID = NewID()
	}
	if rec.Name == "" {
		rec.Name = PlaceholderName
	}
	if rec.Email == "" {
		rec.Email = PlaceholderEmail
	}
	if rec.Role == "" {
		rec.Role = RoleSigner
	}
	r.recipients = append(r.recipients, rec)
	return rec
}

// RecipientUpdate lists the recipient attributes to change; nil means keep
type RecipientUpdate struct {
	Name  *string
	Email *string
	Role  *Role
}

// Update applies a partial update to a recipient
func (r *Roster) Update(id string, upd RecipientUpdate) (Recipient, error) {
	for i := range r.recipients {
		if r.recipients[i].ID != id {
			continue
		}
		if upd.Name != nil {
			r.recipients[i].Name = *upd.Name
		}
		if upd.Email != nil {
			r.recipients[i].Email = *upd.Email
		}
		if upd.Role != nil {
			r.recipients[i].Role = *upd.Role
		}
		return r.recipients[i], nil
	}
	return Recipient{}, signerrors.Newf(signerrors.ErrorTypeNotFound, "recipient %s not found", id)
}

// Remove deletes a recipient. Fields assigned to it must be removed by the
// caller
func (r *Roster) Remove(id string) bool {
	for i := range r.recipients {
		if r.recipients[i].ID == id {
			r.recipients = append(r.recipients[:i], r.recipients[i+1:]...)
			return true
		}
	}
	return false
}

// Get looks a recipient up by id
func (r *Roster) Get(id string) (Recipient, bool) {
	for _, rec := range r.recipients {
		if rec.ID == id {
			return rec, true
		}
	}
	return Recipient{}, false
}

// First returns the first recipient, used as the default assignee
func (r *Roster) First() (Recipient, bool) {
	if len(r.recipients) == 0 {
		return Recipient{}, false
	}
	return r.recipients[0], true
}

// List returns a copy of all recipients
func (r *Roster) List() []Recipient {
	return append([]Recipient(nil), r.recipients...)
}

// Package fields holds the document field model, the ordered field store and
// the recipient roster the fields are assigned to
package fields

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldType is the kind of signer input a field collects
type FieldType string

const (
	FieldTypeSignature FieldType = "signature"
	FieldTypeDate      FieldType = "date"
	FieldTypeText      FieldType = "text"
	FieldTypeCheckbox  FieldType = "checkbox"
)

// ParseFieldType validates a field type name
func ParseFieldType(s string) (FieldType, error) {
	switch t := FieldType(strings.ToLower(strings.TrimSpace(s))); t {
	case FieldTypeSignature, FieldTypeDate, FieldTypeText, FieldTypeCheckbox:
		return t, nil
	default:
		return "", fmt.Errorf("unknown field type %q (must be one of: signature, date, text, checkbox)", s)
	}
}

// DefaultSize returns the document-space size a newly placed field gets
func (t FieldType) DefaultSize() (width, height float64) {
	switch t {
	case FieldTypeSignature:
		return 200, 60
	case FieldTypeCheckbox:
		return 20, 20
	default:
		return 150, 30
	}
}

// SignedKind describes how a signature value was captured
type SignedKind string

const (
	SignedKindDrawnImage    SignedKind = "drawn-image"
	SignedKindTypedText     SignedKind = "typed-text"
	SignedKindUploadedImage SignedKind = "uploaded-image"
)

// ParseSignedKind accepts both the canonical names and the short forms
// draw/type/upload used by signature capture widgets
func ParseSignedKind(s string) (SignedKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drawn-image", "draw", "drawn":
		return SignedKindDrawnImage, nil
	case "typed-text", "type", "typed":
		return SignedKindTypedText, nil
	case "uploaded-image", "upload", "uploaded":
		return SignedKindUploadedImage, nil
	default:
		return "", fmt.Errorf("unknown signature kind %q", s)
	}
}

// IsImage reports whether the payload is a raster image
func (k SignedKind) IsImage() bool {
	return k == SignedKindDrawnImage || k == SignedKindUploadedImage
}

// SignedData is a captured signature value. It is immutable once created;
// replacing a field's signature attaches a new SignedData
type SignedData struct {
	ID        string     `json:"id"`
	Name      string     `json:"name,omitempty"`
	Kind      SignedKind `json:"kind"`
	Data      string     `json:"data"`
	CreatedAt time.Time  `json:"created_at"`
}

// TypedSignature is the structured payload of a typed-text signature
type TypedSignature struct {
	Text string `json:"text"`
	Font string `json:"font,omitempty"`
}

// NewSignedData creates a signed value with a fresh id. For image kinds data
// is a data URL or bare base64; for typed text it is a JSON TypedSignature
func NewSignedData(kind SignedKind, name, data string) SignedData {
	return SignedData{
		ID:        NewID(),
		Name:      name,
		Kind:      kind,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
}

// NewTypedSignature creates a typed-text signed value
func NewTypedSignature(name, text, font string) SignedData {
	payload, _ := json.Marshal(TypedSignature{Text: text, Font: font})
	return NewSignedData(SignedKindTypedText, name, string(payload))
}

// Copy returns an equivalent value under a new id
func (s SignedData) Copy() SignedData {
	c := s
	c.ID = NewID()
	return c
}

// ImageBytes decodes an image payload given as a data URL or bare base64
func (s SignedData) ImageBytes() ([]byte, error) {
	if !s.Kind.IsImage() {
		return nil, fmt.Errorf("signature %s is not an image", s.ID)
	}
	payload := s.Data
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 {
			return nil, fmt.Errorf("malformed data URL")
		}
		if !strings.Contains(payload[:comma], ";base64") {
			return nil, fmt.Errorf("data URL is not base64 encoded")
		}
		payload = payload[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image payload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}
	return data, nil
}

// Typed decodes a typed-text payload
func (s SignedData) Typed() (TypedSignature, error) {
	var ts TypedSignature
	if s.Kind != SignedKindTypedText {
		return ts, fmt.Errorf("signature %s is not typed text", s.ID)
	}
	if err := json.Unmarshal([]byte(s.Data), &ts); err != nil {
		return ts, fmt.Errorf("invalid typed signature payload: %w", err)
	}
	if strings.TrimSpace(ts.Text) == "" {
		return ts, fmt.Errorf("typed signature has no text")
	}
	return ts, nil
}

// DocumentField is a positioned placeholder for signer-entered content.
// X and Y are absolute document-space coordinates; PageNumber is derived from
// Y by the store and is never set independently
type DocumentField struct {
	ID          string      `json:"id"`
	Type        FieldType   `json:"type"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	RecipientID string      `json:"recipient_id"`
	Required    bool        `json:"required"`
	PageNumber  int         `json:"page_number"`
	SignedData  *SignedData `json:"signed_data,omitempty"`
}

// IsSigned reports whether a value has been attached
func (f DocumentField) IsSigned() bool {
	return f.SignedData != nil
}

// clone returns a copy that shares no memory with f
func (f DocumentField) clone() DocumentField {
	c := f
	if f.SignedData != nil {
		sd := *f.SignedData
		c.SignedData = &sd
	}
	return c
}

// Role of a recipient in the signing flow
type Role string

const (
	RoleSigner Role = "signer"
	RoleViewer Role = "viewer"
)

// ParseRole validates a role name
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleSigner, RoleViewer:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q (must be signer or viewer)", s)
	}
}

// Recipient is a person fields are assigned to
type Recipient struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// NewID returns a fresh unique identifier
func NewID() string {
	return uuid.NewString()
}

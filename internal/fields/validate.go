package fields

import (
	"fmt"
	"strings"

	signerrors "github.com/a3tai/mcp-pdf-signer/internal/pdf/errors"
)

// ValidateForSend checks a document before it goes out for signature and
// returns every violation found
func ValidateForSend(recipients []Recipient, fields []DocumentField) []string {
	var errs []string

	for i, r := range recipients {
		if r.Email == "" || !strings.Contains(r.Email, "@") {
			errs = append(errs, fmt.Sprintf("Recipient %d needs a valid email address", i+1))
		}
		if strings.TrimSpace(r.Name) == "" || r.Name == PlaceholderName {
			errs = append(errs, fmt.Sprintf("Recipient %d needs a valid name", i+1))
		}
	}

	byID := make(map[string]Recipient, len(recipients))
	hasSigner := false
	for _, r := range recipients {
		byID[r.ID] = r
		if r.Role == RoleSigner {
			hasSigner = true
		}
	}

	var signatureFields []DocumentField
	for _, f := range fields {
		if f.Type == FieldTypeSignature {
			signatureFields = append(signatureFields, f)
		}
	}
	if hasSigner && len(signatureFields) == 0 {
		errs = append(errs, "Add at least one signature field for signers")
	}

	for i, f := range signatureFields {
		r, ok := byID[f.RecipientID]
		if !ok {
			errs = append(errs, fmt.Sprintf("Signature field %d (%s) is not assigned to a recipient", i+1, f.ID))
			continue
		}
		if f.Required && r.Role == RoleSigner && !f.IsSigned() {
			errs = append(errs, fmt.Sprintf("Signature field %d (%s) on page %d is required but unsigned for %s",
				i+1, f.ID, f.PageNumber, r.Name))
		}
	}

	return errs
}

// ValidateForExport checks that every field references an existing recipient
func ValidateForExport(recipients []Recipient, fields []DocumentField) []string {
	known := make(map[string]bool, len(recipients))
	for _, r := range recipients {
		known[r.ID] = true
	}

	var errs []string
	for i, f := range fields {
		if !known[f.RecipientID] {
			errs = append(errs, fmt.Sprintf("Field %d (%s, %s) references unknown recipient %q",
				i+1, f.ID, f.Type, f.RecipientID))
		}
	}
	return errs
}

// AsError turns a violation list into a validation error, or nil when empty
func AsError(violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	return signerrors.NewValidationError(violations)
}

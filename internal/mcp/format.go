package mcp

import (
	"fmt"

	"github.com/a3tai/mcp-pdf-signer/internal/fields"
	"github.com/a3tai/mcp-pdf-signer/internal/placement"
	"github.com/a3tai/mcp-pdf-signer/internal/session"
	"github.com/a3tai/mcp-pdf-signer/internal/source"
)

func formatField(f fields.DocumentField) string {
	text := fmt.Sprintf("• %s [%s] page %d at (%.2f, %.2f) size %.2f x %.2f\n",
		f.ID, f.Type, f.PageNumber, f.X, f.Y, f.Width, f.Height)
	text += fmt.Sprintf("  Recipient: %s, Required: %t, Signed: %t\n", f.RecipientID, f.Required, f.IsSigned())
	return text
}

func formatRecipient(r fields.Recipient) string {
	return fmt.Sprintf("• %s: %s <%s> (%s)\n", r.ID, r.Name, r.Email, r.Role)
}

func formatSignRequest(req *placement.SignRequest) string {
	return fmt.Sprintf("Sign request: capture a signature for field %s, then call signer_attach_signature\n", req.FieldID)
}

func (s *Server) formatOpenDocumentResult(sess *session.Session) string {
	doc := sess.Document()
	status := sess.Geometry()

	text := fmt.Sprintf("Opened document: %s\n", doc.Title)
	text += fmt.Sprintf("Session: %s\n", sess.ID())
	text += fmt.Sprintf("Kind: %s\n", doc.Kind)
	text += fmt.Sprintf("Source: %s\n", doc.Origin)
	text += fmt.Sprintf("Pages: %d\n", status.TotalPages)

	if doc.Kind == source.KindPDF && doc.Info != nil {
		text += fmt.Sprintf("Size: %d bytes\n", doc.Info.Size)
		for i, size := range doc.Info.PageSizes {
			text += fmt.Sprintf("   Page %d: %.2f x %.2f pt\n", i+1, size.Width, size.Height)
		}
	}

	if status.Ready {
		text += "Page geometry: complete\n"
	} else {
		text += fmt.Sprintf("Page geometry: %d/%d pages known. Report rendered pages with signer_report_page before placing fields.\n",
			status.KnownPages, status.TotalPages)
	}

	text += "\nRecipients:\n"
	for _, r := range sess.Recipients() {
		text += formatRecipient(r)
	}
	return text
}

func formatExportOutcome(out *session.ExportOutcome) string {
	text := out.Message + "\n"
	text += fmt.Sprintf("Pages: %d\n", out.PageCount)
	text += fmt.Sprintf("Embedded: %d\n", out.EmbedCount)
	if out.PlaceholderCount > 0 {
		text += fmt.Sprintf("Placeholders: %d\n", out.PlaceholderCount)
	}
	if len(out.SkippedFields) > 0 {
		text += fmt.Sprintf("Skipped fields: %v\n", out.SkippedFields)
	}
	if len(out.Warnings) > 0 {
		text += "Warnings:\n"
		for _, w := range out.Warnings {
			text += fmt.Sprintf("  - %s\n", w)
		}
	}
	return text
}

func formatListing(listing *source.Listing) string {
	if len(listing.Entries) == 0 {
		if listing.Query != "" {
			return fmt.Sprintf("No PDF files matching %q in %s", listing.Query, listing.Directory)
		}
		return fmt.Sprintf("No PDF files in %s", listing.Directory)
	}

	text := fmt.Sprintf("Found %d PDF file(s) in %s:\n\n", len(listing.Entries), listing.Directory)
	for i, e := range listing.Entries {
		text += fmt.Sprintf("%d. %s\n   Size: %d bytes, Modified: %s\n", i+1, e.Path, e.Size, e.ModifiedTime)
	}
	if listing.Truncated {
		text += "\nMore files match; raise limit or refine query to see them."
	}
	return text
}

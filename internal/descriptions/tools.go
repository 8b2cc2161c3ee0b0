package descriptions

import "sort"

// Tool descriptions with practical examples and workflows

const (
	// Session tools
	SignerOpenDocumentDescription = `Open a document to place signature fields on, and start a signing session.

**When to use:** First step of every workflow. Provide exactly one source: "path" (a PDF inside the configured directory), "url" (an http or https PDF), "base64" (raw PDF bytes), or "text" with an optional "title" (plain text rendered on an A4 page at export).

**Why it's useful:** The returned session_id scopes every later call. The response also lists the page count and each page's natural size.

**Examples:**
• Local contract: "Open contracts/nda.pdf for signing"
• Remote file: "Open https://example.com/lease.pdf"
• Plain text: "Open a text document titled 'Consent' with this body ..."

**Common workflows:**
1. Open → report page sizes → place fields → attach signatures → export
2. Open text → place fields (page geometry is known immediately) → export

**Best practices:** PDF sessions need page geometry before fields can be placed. Report each rendered page with signer_report_page, or start the server with --naturalsize.`

	SignerReportPageDescription = `Record the natural (zoom 1) size of one rendered page.

**When to use:** Whenever the rendering surface finishes laying out a page. Pages may be reported in any order.

**Why it's useful:** Absolute document Y is the concatenation of every page's height. Until all pages are known, placement is refused so that no field lands on the wrong page. Existing fields are re-assigned to pages as heights arrive.

**Examples:**
• "Page 2 rendered at 612 x 792"

**Best practices:** Report the unscaled size. Zoom is passed separately with each pointer event.`

	SignerSelectFieldTypeDescription = `Arm a field type for click placement, or disarm it.

**When to use:** The user picked a tool in the field palette. Selecting the armed type again disarms it. The selection is ignored while a field is being dragged.

**Field types:** signature (200x60), checkbox (20x20), date and text (150x30).`

	SignerPlaceFieldDescription = `Place a field at a pointer position.

**When to use:** The user clicked on the document with a field type armed, or an agent wants to drop a field directly. Pass "type" to place without arming first; omit it to use the armed type.

**Coordinates:** x and y are viewport pixels inside the scroll container, scroll_top is the container's scroll offset and scale the zoom. The document position is x/scale, (y+scroll_top)/scale and becomes the field's top-left corner.

**Result:** The new field, assigned to the first recipient, marked required, with its page number derived from its position.`

	SignerPointerDownDescription = `Grab a field to start dragging it.

**When to use:** The pointer went down on an existing field. The grab offset inside the field is remembered so the field does not jump under the pointer.`

	SignerPointerMoveDescription = `Drag the grabbed field to a new pointer position.

**When to use:** The pointer moved while a field is grabbed. The field is clamped to the page under the pointer and its page number follows it across page boundaries.`

	SignerPointerUpDescription = `Release the grabbed field.

**When to use:** The pointer was released. If the field never moved and is an unsigned signature field, the response carries a sign request: open the signature capture for that field and call signer_attach_signature.`

	SignerFieldClickDescription = `Route a click on an existing field.

**When to use:** A field was clicked without dragging. Unsigned signature fields answer with a sign request; other fields do nothing.`

	SignerMoveFieldDescription = `Move a field by a pixel delta, as a keyboard nudge or an agent adjustment.

**Coordinates:** dx and dy are viewport pixels at the given scale. The field is clamped to its page.`

	SignerUpdateFieldDescription = `Resize a field or change whether it is required.

**When to use:** The user resized a field handle or toggled its required flag. Only the provided attributes change.`

	SignerDuplicateFieldDescription = `Copy a field onto every other page at the same distance from the page bottom.

**When to use:** Initials or signatures needed on every page.

**Why it's useful:** Pages of different heights are handled: each copy keeps the source's distance to the bottom edge. Pages that already hold a field of the same type within 10 points are skipped, so repeating the call adds nothing. Signed values are copied too.`

	SignerRemoveFieldDescription = `Delete a field.`

	SignerAssignRecipientDescription = `Assign a field to a recipient.

**When to use:** A field belongs to someone other than the first recipient. The recipient must exist.`

	SignerAttachSignatureDescription = `Attach a captured value to a field, replacing any previous one.

**Kinds:**
• drawn: data is a base64 PNG (data URL or bare base64) from a drawing pad
• uploaded: data is a base64 image (PNG, JPEG, GIF, BMP, TIFF or WebP)
• typed: "text" is the typed name and "font" an optional font label

**Best practices:** Images are re-fit to the field's aspect ratio on export. An image that cannot be decoded is exported as a placeholder label with a warning instead of failing the export.`

	SignerClearSignatureDescription = `Detach the captured value from a field.`

	SignerAddRecipientDescription = `Add a recipient. Missing values start as placeholders: name "Full name", email "email@example.com", role signer.`

	SignerUpdateRecipientDescription = `Change a recipient's name, email or role. Only the provided attributes change.`

	SignerRemoveRecipientDescription = `Remove a recipient together with every field assigned to them.`

	SignerValidateDescription = `Check the session before sending or exporting, and list every violation at once.

**Modes:**
• send (default): every recipient needs a valid name and email, signers need at least one signature field, every signature field must be assigned, and required signature fields of signers must be signed
• export: every field must reference an existing recipient`

	SignerListFieldsDescription = `List the session's fields and recipients.

**When to use:** To draw overlays or review placement. Pass scale and scroll_top to get each field's rectangle in viewport pixels, and page to restrict the list to one page.`

	SignerExportDocumentDescription = `Produce the final PDF with every signed field burned into its page.

**How it works:** Each signed field is projected from the viewport into PDF space (origin bottom-left) of its own page, scaled by the ratio of the PDF page size to the rendered page size. Images fill the field box; typed signatures are drawn in Helvetica. Fields that cannot be embedded become a "SIGNATURE" placeholder and a warning; fields on missing pages are skipped with a warning. Only an unreadable source fails the export.

**Output:** Pass output_path to write the PDF inside the document directory. Otherwise the PDF is returned base64-encoded. Only one export per session runs at a time.`

	SignerListDocumentsDescription = `List PDF files in the document directory that can be opened with signer_open_document.

**Query:** Optional fuzzy filter on file names. Words may appear in any order and match parts of the name, so "lease 2024" finds "2024_Lease-Agreement.pdf". Hidden directories, empty files and files over the size limit are not listed.

**Output:** Paths relative to the document directory, with size and modification time.`

	SignerListSessionsDescription = `List open signing sessions with their geometry status and field counts.`

	SignerCloseSessionDescription = `Close a signing session and discard its fields.`

	SignerServerInfoDescription = `Describe the server: version, document directory, limits, layout settings and the available tools.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"signer_list_documents":    SignerListDocumentsDescription,
	"signer_open_document":     SignerOpenDocumentDescription,
	"signer_report_page":       SignerReportPageDescription,
	"signer_select_field_type": SignerSelectFieldTypeDescription,
	"signer_place_field":       SignerPlaceFieldDescription,
	"signer_pointer_down":      SignerPointerDownDescription,
	"signer_pointer_move":      SignerPointerMoveDescription,
	"signer_pointer_up":        SignerPointerUpDescription,
	"signer_field_click":       SignerFieldClickDescription,
	"signer_move_field":        SignerMoveFieldDescription,
	"signer_update_field":      SignerUpdateFieldDescription,
	"signer_duplicate_field":   SignerDuplicateFieldDescription,
	"signer_remove_field":      SignerRemoveFieldDescription,
	"signer_assign_recipient":  SignerAssignRecipientDescription,
	"signer_attach_signature":  SignerAttachSignatureDescription,
	"signer_clear_signature":   SignerClearSignatureDescription,
	"signer_add_recipient":     SignerAddRecipientDescription,
	"signer_update_recipient":  SignerUpdateRecipientDescription,
	"signer_remove_recipient":  SignerRemoveRecipientDescription,
	"signer_validate":          SignerValidateDescription,
	"signer_list_fields":       SignerListFieldsDescription,
	"signer_export_document":   SignerExportDocumentDescription,
	"signer_list_sessions":     SignerListSessionsDescription,
	"signer_close_session":     SignerCloseSessionDescription,
	"signer_server_info":       SignerServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns every tool name in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/mcp-pdf-signer/internal/descriptions"
	"github.com/a3tai/mcp-pdf-signer/internal/fields"
	"github.com/a3tai/mcp-pdf-signer/internal/geometry"
	"github.com/a3tai/mcp-pdf-signer/internal/placement"
	"github.com/a3tai/mcp-pdf-signer/internal/session"
	"github.com/a3tai/mcp-pdf-signer/internal/source"
)

// lookup resolves the session named by the session_id argument
func (s *Server) lookup(request mcp.CallToolRequest) (*session.Session, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return nil, err
	}
	return s.sessions.Get(id)
}

func pointerEvent(request mcp.CallToolRequest) (placement.PointerEvent, error) {
	x, err := request.RequireFloat("x")
	if err != nil {
		return placement.PointerEvent{}, err
	}
	y, err := request.RequireFloat("y")
	if err != nil {
		return placement.PointerEvent{}, err
	}
	return placement.PointerEvent{
		X:         x,
		Y:         y,
		ScrollTop: request.GetFloat("scroll_top", 0),
		Scale:     request.GetFloat("scale", 1),
	}, nil
}

// optionalString returns a string argument only when the caller supplied it
func optionalString(request mcp.CallToolRequest, key string) *string {
	v, ok := request.GetArguments()[key].(string)
	if !ok {
		return nil
	}
	return &v
}

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

// Session handlers
func (s *Server) handleOpenDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.openSource(ctx, request)
	if err != nil {
		return toolError(err), nil
	}

	sess := s.sessions.Create(doc)
	return mcp.NewToolResultText(s.formatOpenDocumentResult(sess)), nil
}

func (s *Server) openSource(ctx context.Context, request mcp.CallToolRequest) (*source.Document, error) {
	path := request.GetString("path", "")
	url := request.GetString("url", "")
	payload := request.GetString("base64", "")
	text := optionalString(request, "text")
	title := request.GetString("title", "")

	given := 0
	for _, set := range []bool{path != "", url != "", payload != "", text != nil} {
		if set {
			given++
		}
	}
	if given != 1 {
		return nil, fmt.Errorf("provide exactly one of path, url, base64 or text")
	}

	switch {
	case path != "":
		return s.loader.LoadPath(path)
	case url != "":
		return s.loader.LoadURL(ctx, url)
	case payload != "":
		name := title
		if name == "" {
			name = "upload.pdf"
		}
		return s.loader.LoadBase64(payload, name)
	default:
		return s.loader.LoadText(title, *text), nil
	}
}

func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listing, err := s.loader.List(request.GetString("query", ""), request.GetInt("limit", 50))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(formatListing(listing)), nil
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := s.sessions.List()
	if len(list) == 0 {
		return mcp.NewToolResultText("No open sessions"), nil
	}

	text := fmt.Sprintf("Open sessions: %d\n", len(list))
	for i, sum := range list {
		text += fmt.Sprintf("%d. %s (%s, %s)\n", i+1, sum.ID, sum.Kind, sum.Title)
		text += fmt.Sprintf("   Pages known: %d/%d, Fields: %d, Recipients: %d\n",
			sum.Geometry.KnownPages, sum.Geometry.TotalPages, sum.FieldCount, sum.Recipients)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleCloseSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return toolError(err), nil
	}
	if err := s.sessions.Close(id); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Closed session %s", id)), nil
}

func (s *Server) handleReportPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}
	page, err := request.RequireInt("page")
	if err != nil {
		return toolError(err), nil
	}
	width, err := request.RequireFloat("width")
	if err != nil {
		return toolError(err), nil
	}
	height, err := request.RequireFloat("height")
	if err != nil {
		return toolError(err), nil
	}
	if width <= 0 || height <= 0 {
		return mcp.NewToolResultError("page width and height must be positive"), nil
	}

	status, err := sess.ReportPage(page, width, height)
	if err != nil {
		return toolError(err), nil
	}

	text := fmt.Sprintf("Recorded page %d at %.2f x %.2f\n", page, width, height)
	text += fmt.Sprintf("Pages known: %d/%d\n", status.KnownPages, status.TotalPages)
	if status.Ready {
		text += "Page geometry complete: fields can be placed\n"
	}
	return mcp.NewToolResultText(text), nil
}

// Placement handlers
func (s *Server) handleSelectFieldType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}
	raw, err := request.RequireString("type")
	if err != nil {
		return toolError(err), nil
	}
	t, err := fields.ParseFieldType(raw)
	if err != nil {
		return toolError(err), nil
	}

	state := sess.SelectFieldType(t)
	if state == placement.StateFieldTypeArmed {
		_, armed := sess.PlacementState()
		return mcp.NewToolResultText(fmt.Sprintf("Armed field type: %s", armed)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Placement state: %s", state)), nil
}

func (s *Server) handlePlaceField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}
	ev, err := pointerEvent(request)
	if err != nil {
		return toolError(err), nil
	}

	var f fields.DocumentField
	if raw := request.GetString("type", ""); raw != "" {
		t, perr := fields.ParseFieldType(raw)
		if perr != nil {
			return toolError(perr), nil
		}
		f, err = sess.PlaceField(t, ev)
	} else {
		f, err = sess.Click(ev)
	}
	if err != nil {
		return toolError(err), nil
	}

	return mcp.NewToolResultText("Placed field\n" + formatField(f)), nil
}

func (s *Server) handlePointerDown(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}
	id, err := request.RequireString("field_id")
	if err != nil {
		return toolError(err), nil
	}
	ev, err := pointerEvent(request)
	if err != nil {
		return toolError(err), nil
	}
	if err := sess.PointerDown(id, ev); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Dragging field %s", id)), nil
}

func (s *Server) handlePointerMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}
	ev, err := pointerEvent(request)
	if err != nil {
		return toolError(err), nil
	}
	f, err := sess.PointerMove(ev)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("Moved field\n" + formatField(f)), nil
}

func (s *Server) handlePointerUp(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}
	out, err := sess.PointerUp()
	if err != nil {
		return toolError(err), nil
	}

	text := "Released field\n" + formatField(out.Field)
	if out.SignRequest != nil {
		text += formatSignRequest(out.SignRequest)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleFieldClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}
	id, err := request.RequireString("field_id")
	if err != nil {
		return toolError(err), nil
	}
	req, err := sess.FieldClick(id)
	if err != nil {
		return toolError(err), nil
	}
	if req == nil {
		return mcp.NewToolResultText(fmt.Sprintf("No action for field %s", id)), nil
	}
	return mcp.NewToolResultText(formatSignRequest(req)), nil
}

func (s *Server) handleMoveField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}
	id, err := request.RequireString("field_id")
	if err != nil {
		return toolError(err), nil
	}
	dx, err := request.RequireFloat("dx")
	if err != nil {
		return toolError(err), nil
	}
	dy, err := request.RequireFloat("dy")
	if err != nil {
		return toolError(err), nil
	}

	f, err := sess.MoveField(id, dx, dy, request.GetFloat("scale", 1))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("Moved field\n" + formatField(f)), nil
}

func (s *Server) handleUpdateField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}
	id, err := request.RequireString("field_id")
	if err != nil {
		return toolError(err), nil
	}
	f, ok := sess.Field(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("field %s not found", id)), nil
	}

	args := request.GetArguments()
	_, hasWidth := args["width"]
	_, hasHeight := args["height"]
	_, hasRequired := args["required"]
	if !hasWidth && !hasHeight && !hasRequired {
		return mcp.NewToolResultError("provide width, height or required"), nil
	}

	if hasWidth || hasHeight {
		f, err = sess.ResizeField(id, request.GetFloat("width", f.Width), request.GetFloat("height", f.Height))
		if err != nil {
			return toolError(err), nil
		}
	}
	if hasRequired {
		f, err = sess.SetRequired(id, request.GetBool("required", f.Required))
		if err != nil {
			return toolError(err), nil
		}
	}
	return mcp.NewToolResultText("Updated field\n" + formatField(f)), nil
}

func (s *Server) handleDuplicateField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}
	id, err := request.RequireString("field_id")
	if err != nil {
		return toolError(err), nil
	}
	res, err := sess.DuplicateToAllPages(id)
	if err != nil {
		return toolError(err), nil
	}

	text := fmt.Sprintf("Duplicated field %s to %d page(s)\n", res.SourceID, res.DuplicatedCount)
	for _, fid := range res.FieldIDs {
		if f, ok := sess.Field(fid); ok {
			text += formatField(f)
		}
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleRemoveField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}
	id, err := request.RequireString("field_id")
	if err != nil {
		return toolError(err), nil
	}
	if err := sess.RemoveField(id); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed field %s", id)), nil
}

// Recipient and value handlers
func (s *Server) handleAssignRecipient(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}
	id, err := request.RequireString("field_id")
	if err != nil {
		return toolError(err), nil
	}
	recipientID, err := request.RequireString("recipient_id")
	if err != nil {
		return toolError(err), nil
	}
	f, err := sess.AssignRecipient(id, recipientID)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("Assigned field\n" + formatField(f)), nil
}

func (s *Server) handleAttachSignature(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}
	id, err := request.RequireString("field_id")
	if err != nil {
		return toolError(err), nil
	}
	rawKind, err := request.RequireString("kind")
	if err != nil {
		return toolError(err), nil
	}
	kind, err := fields.ParseSignedKind(rawKind)
	if err != nil {
		return toolError(err), nil
	}
	name := request.GetString("name", "")

	var data fields.SignedData
	if kind == fields.SignedKindTypedText {
		text, terr := request.RequireString("text")
		if terr != nil {
			return toolError(terr), nil
		}
		if strings.TrimSpace(text) == "" {
			return mcp.NewToolResultError("typed signature text cannot be empty"), nil
		}
		data = fields.NewTypedSignature(name, text, request.GetString("font", ""))
	} else {
		payload, derr := request.RequireString("data")
		if derr != nil {
			return toolError(derr), nil
		}
		data = fields.NewSignedData(kind, name, payload)
	}

	f, err := sess.AttachSignature(id, data)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Attached %s signature %s\n", kind, data.ID) + formatField(f)), nil
}

func (s *Server) handleClearSignature(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}
	id, err := request.RequireString("field_id")
	if err != nil {
		return toolError(err), nil
	}
	f, err := sess.ClearSignature(id)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("Cleared signature\n" + formatField(f)), nil
}

func parseRole(request mcp.CallToolRequest) (*fields.Role, error) {
	raw := optionalString(request, "role")
	if raw == nil {
		return nil, nil
	}
	role, err := fields.ParseRole(*raw)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (s *Server) handleAddRecipient(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}
	role, err := parseRole(request)
	if err != nil {
		return toolError(err), nil
	}

	rec := fields.Recipient{
		Name:  request.GetString("name", ""),
		Email: request.GetString("email", ""),
	}
	if role != nil {
		rec.Role = *role
	}
	rec = sess.AddRecipient(rec)
	return mcp.NewToolResultText("Added recipient\n" + formatRecipient(rec)), nil
}

func (s *Server) handleUpdateRecipient(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}
	id, err := request.RequireString("recipient_id")
	if err != nil {
		return toolError(err), nil
	}
	role, err := parseRole(request)
	if err != nil {
		return toolError(err), nil
	}

	rec, err := sess.UpdateRecipient(id, fields.RecipientUpdate{
		Name:  optionalString(request, "name"),
		Email: optionalString(request, "email"),
		Role:  role,
	})
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("Updated recipient\n" + formatRecipient(rec)), nil
}

func (s *Server) handleRemoveRecipient(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}
	id, err := request.RequireString("recipient_id")
	if err != nil {
		return toolError(err), nil
	}
	removed, err := sess.RemoveRecipient(id)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed recipient %s and %d field(s)", id, removed)), nil
}

// Review and export handlers
func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}
	mode := session.ValidationMode(request.GetString("mode", string(session.ValidateSend)))
	violations, err := sess.Validate(mode)
	if err != nil {
		return toolError(err), nil
	}

	if len(violations) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Validation (%s) passed", mode)), nil
	}
	text := fmt.Sprintf("Validation (%s) found %d problem(s):\n", mode, len(violations))
	for i, v := range violations {
		text += fmt.Sprintf("%d. %s\n", i+1, v)
	}
	return mcp.NewToolResultText(text), nil
}

// fieldView is a field as listed to hosts, with its viewport rectangle
type fieldView struct {
	fields.DocumentField
	Viewport geometry.Rect `json:"viewport"`
}

func (s *Server) handleListFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}

	var list []fields.DocumentField
	if page := request.GetInt("page", 0); page > 0 {
		list = sess.FieldsOnPage(page)
	} else {
		list = sess.Fields()
	}

	scale := request.GetFloat("scale", 1)
	scroll := request.GetFloat("scroll_top", 0)
	views := make([]fieldView, 0, len(list))
	for _, f := range list {
		rect, rerr := sess.AdjustedRect(f.ID, scale, scroll)
		if rerr != nil {
			return toolError(rerr), nil
		}
		views = append(views, fieldView{DocumentField: f, Viewport: rect})
	}

	payload := struct {
		Geometry   session.GeometryStatus `json:"geometry"`
		Fields     []fieldView            `json:"fields"`
		Recipients []fields.Recipient     `json:"recipients"`
	}{
		Geometry:   sess.Geometry(),
		Fields:     views,
		Recipients: sess.Recipients(),
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return toolError(fmt.Errorf("failed to encode fields: %w", err)), nil
	}

	text := fmt.Sprintf("Fields: %d, Recipients: %d\n\n", len(views), len(payload.Recipients))
	return mcp.NewToolResultText(text + string(out)), nil
}

func (s *Server) handleExportDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.lookup(request)
	if err != nil {
		return toolError(err), nil
	}

	out, err := sess.Export(ctx)
	if err != nil {
		text := out.Message
		for i, v := range out.Violations {
			text += fmt.Sprintf("\n%d. %s", i+1, v)
		}
		return mcp.NewToolResultError(text), nil
	}

	text := formatExportOutcome(out)
	if path := request.GetString("output_path", ""); path != "" {
		written, werr := s.loader.WriteFile(path, out.Bytes)
		if werr != nil {
			return toolError(werr), nil
		}
		text += fmt.Sprintf("Saved to: %s\n", written)
		return mcp.NewToolResultText(text), nil
	}

	text += fmt.Sprintf("\nPDF (base64, %d bytes):\n", len(out.Bytes))
	text += base64.StdEncoding.EncodeToString(out.Bytes)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Document Directory: %s\n", s.loader.Directory())
	text += fmt.Sprintf("Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("Fallback Page Height: %g\n", s.config.DefaultPageHeight)
	text += fmt.Sprintf("Sidebar Offset: %g\n", s.config.SidebarOffset)
	text += fmt.Sprintf("Natural Page Sizes: %t\n", s.config.AssumeNaturalSize)
	text += fmt.Sprintf("Open Sessions: %d\n", s.sessions.Len())

	text += "\nAvailable Tools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		summary := descriptions.GetToolDescription(name)
		if i := strings.IndexByte(summary, '\n'); i >= 0 {
			summary = summary[:i]
		}
		text += fmt.Sprintf("• %s: %s\n", name, summary)
	}
	return mcp.NewToolResultText(text), nil
}

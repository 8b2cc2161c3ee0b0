package descriptions

import (
	"sort"
	"strings"
	"testing"
)

func TestToolDescriptions(t *testing.T) {
	names := GetAllToolNames()
	if len(names) != len(ToolDescriptions) {
		t.Fatalf("expected %d names, got %d", len(ToolDescriptions), len(names))
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("tool names are not sorted: %v", names)
	}

	for _, name := range names {
		if !strings.HasPrefix(name, "signer_") {
			t.Errorf("tool %s is missing the signer_ prefix", name)
		}
		if strings.TrimSpace(GetToolDescription(name)) == "" {
			t.Errorf("tool %s has an empty description", name)
		}
	}
}

func TestGetToolDescription_Unknown(t *testing.T) {
	if got := GetToolDescription("pdf_read_file"); got != "Tool description not available" {
		t.Errorf("unexpected description for unknown tool: %q", got)
	}
}

func TestCoreToolsDescribed(t *testing.T) {
	core := []string{
		"signer_open_document", "signer_report_page", "signer_select_field_type",
		"signer_pointer_down", "signer_pointer_move", "signer_pointer_up",
		"signer_place_field", "signer_move_field", "signer_duplicate_field",
		"signer_remove_field", "signer_assign_recipient", "signer_attach_signature",
		"signer_clear_signature", "signer_add_recipient", "signer_update_recipient",
		"signer_remove_recipient", "signer_validate", "signer_list_fields",
		"signer_export_document", "signer_list_documents",
	}
	for _, name := range core {
		if _, ok := ToolDescriptions[name]; !ok {
			t.Errorf("missing description for %s", name)
		}
	}
}

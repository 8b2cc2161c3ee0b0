package placement

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-signer/internal/fields"
	"github.com/a3tai/mcp-pdf-signer/internal/geometry"
	signerrors "github.com/a3tai/mcp-pdf-signer/internal/pdf/errors"
)

type fixture struct {
	table  *geometry.Table
	store  *fields.Store
	roster *fields.Roster
	ctrl   *Controller
}

func newFixture(t *testing.T, heights ...float64) *fixture {
	t.Helper()
	table := geometry.NewTable(len(heights), 800, 600)
	for i, h := range heights {
		require.NoError(t, table.Record(i+1, 600, h))
	}
	store := fields.NewStore(geometry.NewMapper(table))
	roster := fields.NewRoster()
	return &fixture{
		table:  table,
		store:  store,
		roster: roster,
		ctrl:   NewController(store, table, roster),
	}
}

func at(x, y float64) PointerEvent {
	return PointerEvent{X: x, Y: y, Scale: 1}
}

func TestController_SelectFieldTypeToggles(t *testing.T) {
	fx := newFixture(t, 800)
	c := fx.ctrl

	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, StateFieldTypeArmed, c.SelectFieldType(fields.FieldTypeSignature))
	assert.Equal(t, fields.FieldTypeSignature, c.ArmedType())

	assert.Equal(t, StateIdle, c.SelectFieldType(fields.FieldTypeSignature), "selecting the armed type disarms")
	assert.Empty(t, c.ArmedType())

	c.SelectFieldType(fields.FieldTypeText)
	c.SelectFieldType(fields.FieldTypeCheckbox)
	assert.Equal(t, fields.FieldTypeCheckbox, c.ArmedType(), "a different type replaces the selection")
}

func TestController_ClickPlacesArmedField(t *testing.T) {
	fx := newFixture(t, 800, 800, 800)
	c := fx.ctrl
	first, ok := fx.roster.First()
	require.True(t, ok)

	c.SelectFieldType(fields.FieldTypeSignature)
	f, err := c.Click(PointerEvent{X: 100, Y: 150, ScrollTop: 1000, Scale: 1})
	require.NoError(t, err)

	assert.Equal(t, 100.0, f.X)
	assert.Equal(t, 1150.0, f.Y)
	assert.Equal(t, 2, f.PageNumber)
	assert.Equal(t, 200.0, f.Width)
	assert.Equal(t, 60.0, f.Height)
	assert.Equal(t, first.ID, f.RecipientID)
	assert.True(t, f.Required)
	assert.Equal(t, StateIdle, c.State(), "placement is not sticky")
	assert.Equal(t, 1, fx.store.Len())
}

func TestController_ClickAccountsForZoom(t *testing.T) {
	fx := newFixture(t, 800)
	c := fx.ctrl

	c.SelectFieldType(fields.FieldTypeCheckbox)
	f, err := c.Click(PointerEvent{X: 200, Y: 100, ScrollTop: 300, Scale: 2})
	require.NoError(t, err)
	assert.Equal(t, 100.0, f.X)
	assert.Equal(t, 200.0, f.Y)
	assert.Equal(t, 20.0, f.Width)
}

func TestController_ClickBeforeGeometryIsKnown(t *testing.T) {
	table := geometry.NewTable(3, 800, 600)
	require.NoError(t, table.Record(1, 600, 800))
	store := fields.NewStore(geometry.NewMapper(table))
	c := NewController(store, table, fields.NewRoster())

	c.SelectFieldType(fields.FieldTypeText)
	_, err := c.Click(at(10, 10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, signerrors.ErrGeometryUnavailable))
	assert.Equal(t, StateFieldTypeArmed, c.State(), "rejected click keeps the selection")
	assert.Equal(t, 0, store.Len())
}

func TestController_ClickWithoutSelection(t *testing.T) {
	fx := newFixture(t, 800)
	_, err := fx.ctrl.Click(at(10, 10))
	assert.True(t, errors.Is(err, signerrors.ErrInvalidArgument))
}

func TestController_PlaceFieldRestoresStateOnError(t *testing.T) {
	table := geometry.NewTable(2, 800, 600)
	c := NewController(fields.NewStore(geometry.NewMapper(table)), table, fields.NewRoster())

	_, err := c.PlaceField(fields.FieldTypeDate, at(0, 0))
	require.Error(t, err)
	assert.Equal(t, StateIdle, c.State())
}

func TestController_DragAcrossPagesAndClamp(t *testing.T) {
	fx := newFixture(t, 800, 800, 800)
	c := fx.ctrl

	f, err := c.PlaceField(fields.FieldTypeSignature, at(100, 100))
	require.NoError(t, err)

	require.NoError(t, c.PointerDown(f.ID, at(110, 120)))
	assert.Equal(t, StateDragging, c.State())

	moved, err := c.PointerMove(at(210, 920))
	require.NoError(t, err)
	assert.Equal(t, 200.0, moved.X)
	assert.Equal(t, 900.0, moved.Y)
	assert.Equal(t, 2, moved.PageNumber, "page follows the drag")

	moved, err = c.PointerMove(at(590, 1780))
	require.NoError(t, err)
	assert.Equal(t, 400.0, moved.X, "x clamps to page width minus field width")
	assert.Equal(t, 1760.0, moved.Y)
	assert.Equal(t, 3, moved.PageNumber)

	moved, err = c.PointerMove(at(110, 2500))
	require.NoError(t, err)
	assert.Equal(t, 2340.0, moved.Y, "field stays inside the last page")

	moved, err = c.PointerMove(at(-50, -50))
	require.NoError(t, err)
	assert.Equal(t, 0.0, moved.X)
	assert.Equal(t, 0.0, moved.Y)
	assert.Equal(t, 1, moved.PageNumber)

	out, err := c.PointerUp()
	require.NoError(t, err)
	assert.True(t, out.Moved)
	assert.Nil(t, out.SignRequest)
	assert.Equal(t, StateIdle, c.State())

	stored, ok := fx.store.Get(f.ID)
	require.True(t, ok)
	assert.Equal(t, 0.0, stored.Y, "release keeps the last position")
}

func TestController_ReleaseWithoutMoveRequestsSignature(t *testing.T) {
	fx := newFixture(t, 800)
	c := fx.ctrl

	sig, err := c.PlaceField(fields.FieldTypeSignature, at(50, 50))
	require.NoError(t, err)
	txt, err := c.PlaceField(fields.FieldTypeText, at(50, 300))
	require.NoError(t, err)

	require.NoError(t, c.PointerDown(sig.ID, at(60, 60)))
	out, err := c.PointerUp()
	require.NoError(t, err)
	require.NotNil(t, out.SignRequest)
	assert.Equal(t, sig.ID, out.SignRequest.FieldID)

	require.NoError(t, c.PointerDown(txt.ID, at(60, 310)))
	out, err = c.PointerUp()
	require.NoError(t, err)
	assert.Nil(t, out.SignRequest)

	_, err = fx.store.AttachSignature(sig.ID, fields.NewTypedSignature("sig", "Ada", "cursive"))
	require.NoError(t, err)
	req, err := c.FieldClick(sig.ID)
	require.NoError(t, err)
	assert.Nil(t, req, "signed fields are not re-requested")
}

func TestController_PointerErrors(t *testing.T) {
	fx := newFixture(t, 800)
	c := fx.ctrl

	_, err := c.PointerMove(at(1, 1))
	assert.Error(t, err)
	_, err = c.PointerUp()
	assert.Error(t, err)

	err = c.PointerDown("missing", at(1, 1))
	assert.True(t, errors.Is(err, signerrors.ErrNotFound))
	assert.Equal(t, StateIdle, c.State())
}

func TestController_MoveBy(t *testing.T) {
	fx := newFixture(t, 800)
	c := fx.ctrl

	f, err := c.PlaceField(fields.FieldTypeText, at(100, 100))
	require.NoError(t, err)

	moved, err := c.MoveBy(f.ID, 50, 40, 2)
	require.NoError(t, err)
	assert.Equal(t, 125.0, moved.X)
	assert.Equal(t, 120.0, moved.Y)

	moved, err = c.MoveBy(f.ID, -1000, -1000, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, moved.X)
	assert.Equal(t, 0.0, moved.Y)
}

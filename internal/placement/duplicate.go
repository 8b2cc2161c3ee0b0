package placement

import (
	"math"

	"github.com/a3tai/mcp-pdf-signer/internal/fields"
	"github.com/a3tai/mcp-pdf-signer/internal/geometry"
	signerrors "github.com/a3tai/mcp-pdf-signer/internal/pdf/errors"
)

// DuplicateTolerance is how close, in document units, an existing field of the
// same type and recipient must be to a target slot for that slot to count as occupied
const DuplicateTolerance = 10.0

// topInset keeps a copy clamped to the top of a page below page 1 off the
// boundary Y, which belongs to the page above
const topInset = 0.01

// DuplicateResult reports the copies created by DuplicateToAllPages
type DuplicateResult struct {
	SourceID        string   `json:"source_id"`
	DuplicatedCount int      `json:"duplicated_count"`
	FieldIDs        []string `json:"field_ids"`
}

// Duplicator copies a field onto every other page of the document
type Duplicator struct {
	store  *fields.Store
	pages  Geometry
	mapper geometry.Mapper
}

// NewDuplicator creates a duplicator over the given store and page table
func NewDuplicator(store *fields.Store, pages Geometry) *Duplicator {
	return &Duplicator{store: store, pages: pages, mapper: geometry.NewMapper(pages)}
}

// DuplicateToAllPages places a copy of fieldID on every other page so that it
// keeps the same X and the same distance from the bottom of its page. Anchoring
// to the bottom keeps footer signature lines aligned across pages of differing
// heights. Pages that already hold a field of the same type and recipient within
// DuplicateTolerance of the target slot are skipped, which makes repeated calls
// idempotent. Signed data is copied under a new id
func (d *Duplicator) DuplicateToAllPages(fieldID string) (DuplicateResult, error) {
	if err := d.pages.RequireReady(); err != nil {
		return DuplicateResult{}, err
	}
	src, ok := d.store.Get(fieldID)
	if !ok {
		return DuplicateResult{}, signerrors.Newf(signerrors.ErrorTypeNotFound, "field %s not found", fieldID).WithField(fieldID)
	}

	res := DuplicateResult{SourceID: src.ID, FieldIDs: []string{}}
	srcPage := d.mapper.PageForAbsoluteY(src.Y)
	fromBottom := d.pages.Height(srcPage) - d.mapper.RelativeY(src.Y, srcPage)

	existing := d.store.List()
	for page := 1; page <= d.pages.TotalPages(); page++ {
		if page == srcPage {
			continue
		}
		// Clamp page-relative Y rather than absolute Y: a copy that does not fit
		// on a short page starts at that page's top instead of spilling onto
		// the page above
		relY := math.Max(minRelativeY(page), d.pages.Height(page)-fromBottom)
		absY := d.mapper.AbsoluteY(relY, page)
		if occupied(existing, src, absY) {
			continue
		}

		dup := fields.DocumentField{
			Type:        src.Type,
			X:           src.X,
			Y:           absY,
			Width:       src.Width,
			Height:      src.Height,
			RecipientID: src.RecipientID,
			Required:    src.Required,
		}
		if src.SignedData != nil {
			sd := src.SignedData.Copy()
			dup.SignedData = &sd
		}
		placed, err := d.store.Insert(dup)
		if err != nil {
			return res, err
		}
		existing = append(existing, placed)
		res.FieldIDs = append(res.FieldIDs, placed.ID)
		res.DuplicatedCount++
	}
	return res, nil
}

func minRelativeY(page int) float64 {
	if page > 1 {
		return topInset
	}
	return 0
}

func occupied(existing []fields.DocumentField, src fields.DocumentField, y float64) bool {
	for _, f := range existing {
		if f.ID == src.ID || f.Type != src.Type || f.RecipientID != src.RecipientID {
			continue
		}
		if math.Abs(f.X-src.X) < DuplicateTolerance && math.Abs(f.Y-y) < DuplicateTolerance {
			return true
		}
	}
	return false
}

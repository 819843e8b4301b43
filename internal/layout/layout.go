// Package layout computes where sections and entries go on a shop canvas.
//
// The planner works in two steps. A column search picks the number of section
// columns whose canvas is closest to square, then every section is shelf
// packed: entries advance a fractional position measured in card widths, and
// half-size entries share one full-height slot stacked on top of each other.
// The resulting Plan carries pixel regions that the text pass draws into.
package layout

import (
	"image"
	"math"

	"go.trai.ch/zerr"
)

var (
	ErrNoSections  = zerr.New("layout requires at least one section")
	ErrInvalidSize = zerr.New("entry size must be positive")
	ErrRowOverflow = zerr.New("entry does not fit into the section row")
)

// Dimensions holds the pixel constants of a shop canvas.
type Dimensions struct {
	HorizontalPadding int
	BottomPadding     int
	HeaderHeight      int
	ColumnSpacing     int
	CardsPerSection   int
	CardWidth         int
	CardHeight        int
	CardSpacing       int
	CardPadding       int
	SectionHeader     int
	MaxColumns        int
	// StrictRows rejects entries whose footprint crosses CardsPerSection
	// instead of letting them spill past the section edge.
	StrictRows bool
}

// DefaultShopDimensions returns the item shop geometry.
func DefaultShopDimensions() Dimensions {
	return Dimensions{
		HorizontalPadding: 100,
		BottomPadding:     100,
		HeaderHeight:      450,
		ColumnSpacing:     100,
		CardsPerSection:   4,
		CardWidth:         256,
		CardHeight:        408,
		CardSpacing:       24,
		CardPadding:       12,
		SectionHeader:     57,
		MaxColumns:        15,
		StrictRows:        true,
	}
}

// SectionWidth is the width of a full row of cards.
func (d Dimensions) SectionWidth() int {
	return d.CardsPerSection*d.CardWidth + (d.CardsPerSection-1)*d.CardSpacing
}

// SectionHeight is the card height plus the section name header.
func (d Dimensions) SectionHeight() int {
	return d.CardHeight + d.SectionHeader
}

// CardSize returns the pixel size of a card of the given size in card widths.
// Fractional sizes produce half-height cards.
func (d Dimensions) CardSize(size float64) (int, int) {
	span := int(math.Ceil(size))
	w := span*d.CardWidth + (span-1)*d.CardSpacing
	if size == math.Floor(size) {
		return w, d.CardHeight
	}
	return w, d.CardHeight/2 - d.CardSpacing/2
}

// Entry is the structural part of a shop entry.
type Entry struct {
	ID        string
	Size      float64
	HasBanner bool
}

// Section is an ordered list of entries.
type Section struct {
	ID      string
	HasName bool
	Entries []Entry
}

// Region is an anchor for text. MaxWidth is zero when unbounded.
type Region struct {
	X        int
	Y        int
	MaxWidth int
}

// EntryPlacement locates one entry in canvas coordinates.
type EntryPlacement struct {
	ID     string
	Card   image.Rectangle
	Name   Region
	Price  Region
	Banner *Region
}

// SectionPlacement locates one section and its entries.
type SectionPlacement struct {
	ID      string
	Bounds  image.Rectangle
	Name    *Region
	Entries []EntryPlacement
}

// Plan is the output of the planner.
type Plan struct {
	Width             int
	Height            int
	Columns           int
	SectionsPerColumn int
	Sections          []SectionPlacement
}

// Section returns the placement of the section with the given id.
func (p *Plan) Section(id string) (SectionPlacement, bool) {
	for _, s := range p.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return SectionPlacement{}, false
}

// ColumnChoice is the result of the column search.
type ColumnChoice struct {
	Columns           int
	SectionsPerColumn int
	Width             int
	Height            int
}

// SearchColumns walks column counts upward from two and stops at the first
// count that does not bring the canvas strictly closer to square.
func SearchColumns(sections int, d Dimensions) ColumnChoice {
	maxColumns := d.MaxColumns
	if maxColumns < 2 {
		maxColumns = 2
	}

	var best ColumnChoice
	bestDiff := math.MaxFloat64
	for c := 2; c <= maxColumns; c++ {
		perColumn := ceilDiv(sections, c)
		width := 2*d.HorizontalPadding + c*d.SectionWidth() + (c-1)*d.ColumnSpacing
		height := d.HeaderHeight + perColumn*d.SectionHeight() + (perColumn-1)*d.CardSpacing + d.BottomPadding

		diff := math.Abs(float64(width)/float64(height) - 1)
		if diff >= bestDiff {
			break
		}
		bestDiff = diff
		best = ColumnChoice{Columns: c, SectionsPerColumn: perColumn, Width: width, Height: height}
	}
	return best
}

// PackSection places the entries of s inside a section whose top-left corner
// is origin. Entry order is preserved.
func PackSection(s Section, d Dimensions, origin image.Point) (SectionPlacement, error) {
	placement := SectionPlacement{
		ID:      s.ID,
		Bounds:  image.Rect(origin.X, origin.Y, origin.X+d.SectionWidth(), origin.Y+d.SectionHeight()),
		Entries: make([]EntryPlacement, 0, len(s.Entries)),
	}
	if s.HasName {
		placement.Name = &Region{X: origin.X, Y: origin.Y}
	}

	position := 0.0
	for _, e := range s.Entries {
		if e.Size <= 0 || math.IsNaN(e.Size) || math.IsInf(e.Size, 0) {
			return SectionPlacement{}, zerr.With(zerr.Wrap(ErrInvalidSize, "pack section"), "entry", e.ID)
		}

		if position != math.Floor(position) && e.Size >= 1 {
			position = math.Ceil(position)
		}
		slot := int(math.Floor(position))
		if d.StrictRows && slot+int(math.Ceil(e.Size)) > d.CardsPerSection {
			err := zerr.Wrap(ErrRowOverflow, "pack section")
			err = zerr.With(err, "section", s.ID)
			return SectionPlacement{}, zerr.With(err, "entry", e.ID)
		}

		x := slot * (d.CardWidth + d.CardSpacing)
		y := d.SectionHeight() - d.CardHeight
		if position != math.Floor(position) {
			y += (d.CardHeight + d.CardSpacing) / 2
		}
		position += e.Size

		w, h := d.CardSize(e.Size)
		card := image.Rect(x, y, x+w, y+h).Add(origin)

		ep := EntryPlacement{
			ID:   e.ID,
			Card: card,
			Name: Region{
				X:        card.Min.X + 13,
				Y:        card.Max.Y - 72,
				MaxWidth: w - 2*d.CardPadding,
			},
			Price: Region{
				X: card.Min.X + 13 + 22 + 8,
				Y: card.Max.Y - 8,
			},
		}
		if e.HasBanner {
			ep.Banner = &Region{X: card.Min.X + 8, Y: card.Min.Y + 8, MaxWidth: w - 2*8}
		}
		placement.Entries = append(placement.Entries, ep)
	}
	return placement, nil
}

// PlanSections lays out every section on one canvas. Sections fill columns top to
// bottom before moving right.
func PlanSections(sections []Section, d Dimensions) (*Plan, error) {
	if len(sections) == 0 {
		return nil, ErrNoSections
	}

	choice := SearchColumns(len(sections), d)
	plan := &Plan{
		Width:             choice.Width,
		Height:            choice.Height,
		Columns:           choice.Columns,
		SectionsPerColumn: choice.SectionsPerColumn,
		Sections:          make([]SectionPlacement, 0, len(sections)),
	}

	for i, s := range sections {
		col := i / choice.SectionsPerColumn
		row := i % choice.SectionsPerColumn
		origin := image.Pt(
			d.HorizontalPadding+col*(d.SectionWidth()+d.ColumnSpacing),
			d.HeaderHeight+row*(d.SectionHeight()+d.CardSpacing),
		)
		sp, err := PackSection(s, d, origin)
		if err != nil {
			return nil, err
		}
		plan.Sections = append(plan.Sections, sp)
	}
	return plan, nil
}

// PlanSingle lays out one section on its own canvas with padding on every
// side.
func PlanSingle(s Section, d Dimensions, padding int) (*Plan, error) {
	sp, err := PackSection(s, d, image.Pt(padding, padding))
	if err != nil {
		return nil, err
	}
	return &Plan{
		Width:             d.SectionWidth() + 2*padding,
		Height:            d.SectionHeight() + 2*padding,
		Columns:           1,
		SectionsPerColumn: 1,
		Sections:          []SectionPlacement{sp},
	}, nil
}

// GridShape is a near-square arrangement of equally sized cells.
type GridShape struct {
	Columns int
	Rows    int
}

// Grid arranges count cells with at least minColumns columns.
func Grid(count, minColumns int) GridShape {
	if count <= 0 {
		return GridShape{Columns: max(minColumns, 1)}
	}
	columns := max(int(math.Ceil(math.Sqrt(float64(count)))), minColumns, 1)
	return GridShape{Columns: columns, Rows: ceilDiv(count, columns)}
}

// Cell returns the column and row of the i-th cell.
func (g GridShape) Cell(i int) (int, int) {
	return i % g.Columns, i / g.Columns
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

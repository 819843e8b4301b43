package layout_test

import (
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youruser/imageapi/internal/layout"
)

func entries(sizes ...float64) []layout.Entry {
	out := make([]layout.Entry, len(sizes))
	for i, s := range sizes {
		out[i] = layout.Entry{ID: fmt.Sprintf("e%d", i+1), Size: s}
	}
	return out
}

func TestDimensions_Derived(t *testing.T) {
	d := layout.DefaultShopDimensions()

	assert.Equal(t, 1096, d.SectionWidth())
	assert.Equal(t, 465, d.SectionHeight())

	w, h := d.CardSize(1)
	assert.Equal(t, 256, w)
	assert.Equal(t, 408, h)

	w, h = d.CardSize(0.5)
	assert.Equal(t, 256, w)
	assert.Equal(t, 192, h)

	w, h = d.CardSize(2)
	assert.Equal(t, 536, w)
	assert.Equal(t, 408, h)
}

func TestPackSection_HalfSlots(t *testing.T) {
	d := layout.DefaultShopDimensions()
	d.StrictRows = false

	sp, err := layout.PackSection(layout.Section{ID: "s", Entries: entries(1, 1, 0.5, 0.5, 2)}, d, image.Point{})
	require.NoError(t, err)
	require.Len(t, sp.Entries, 5)

	tests := []struct {
		id   string
		x, y int
	}{
		{"e1", 0, 57},
		{"e2", 280, 57},
		{"e3", 560, 57},
		{"e4", 560, 273},
		{"e5", 840, 57},
	}
	for i, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := sp.Entries[i]
			assert.Equal(t, tt.id, got.ID)
			assert.Equal(t, image.Pt(tt.x, tt.y), got.Card.Min)
		})
	}
}

func TestPackSection_RoundsUpBeforeFullCard(t *testing.T) {
	d := layout.DefaultShopDimensions()

	sp, err := layout.PackSection(layout.Section{ID: "s", Entries: entries(0.5, 1)}, d, image.Point{})
	require.NoError(t, err)

	assert.Equal(t, image.Pt(0, 57), sp.Entries[0].Card.Min)
	assert.Equal(t, image.Pt(280, 57), sp.Entries[1].Card.Min)
}

func TestPackSection_Regions(t *testing.T) {
	d := layout.DefaultShopDimensions()
	section := layout.Section{
		ID:      "s",
		HasName: true,
		Entries: []layout.Entry{{ID: "a", Size: 1, HasBanner: true}, {ID: "b", Size: 0.5}},
	}

	sp, err := layout.PackSection(section, d, image.Pt(100, 450))
	require.NoError(t, err)

	require.NotNil(t, sp.Name)
	assert.Equal(t, layout.Region{X: 100, Y: 450}, *sp.Name)
	assert.Equal(t, image.Rect(100, 450, 1196, 915), sp.Bounds)

	a := sp.Entries[0]
	assert.Equal(t, image.Rect(100, 507, 356, 915), a.Card)
	assert.Equal(t, layout.Region{X: 113, Y: 843, MaxWidth: 232}, a.Name)
	assert.Equal(t, layout.Region{X: 143, Y: 907}, a.Price)
	require.NotNil(t, a.Banner)
	assert.Equal(t, layout.Region{X: 108, Y: 515, MaxWidth: 240}, *a.Banner)

	b := sp.Entries[1]
	assert.Equal(t, image.Rect(380, 507, 636, 699), b.Card)
	assert.Equal(t, 699-72, b.Name.Y)
	assert.Nil(t, b.Banner)
}

func TestPackSection_UnnamedSectionHasNoNameRegion(t *testing.T) {
	sp, err := layout.PackSection(layout.Section{ID: "s", Entries: entries(1)}, layout.DefaultShopDimensions(), image.Point{})
	require.NoError(t, err)
	assert.Nil(t, sp.Name)
}

func TestPackSection_StrictRowOverflow(t *testing.T) {
	d := layout.DefaultShopDimensions()

	_, err := layout.PackSection(layout.Section{ID: "s", Entries: entries(1, 1, 0.5, 0.5, 2)}, d, image.Point{})
	require.ErrorIs(t, err, layout.ErrRowOverflow)

	_, err = layout.PackSection(layout.Section{ID: "s", Entries: entries(1, 1, 1, 0.5, 0.5)}, d, image.Point{})
	require.NoError(t, err)
}

func TestPackSection_InvalidSize(t *testing.T) {
	for _, size := range []float64{0, -1} {
		_, err := layout.PackSection(layout.Section{ID: "s", Entries: entries(size)}, layout.DefaultShopDimensions(), image.Point{})
		assert.ErrorIs(t, err, layout.ErrInvalidSize)
	}
}

func TestSearchColumns(t *testing.T) {
	d := layout.DefaultShopDimensions()

	tests := []struct {
		sections  int
		columns   int
		perColumn int
	}{
		{sections: 1, columns: 2, perColumn: 1},
		{sections: 6, columns: 2, perColumn: 3},
		{sections: 12, columns: 2, perColumn: 6},
		{sections: 20, columns: 3, perColumn: 7},
		{sections: 30, columns: 4, perColumn: 8},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.sections), func(t *testing.T) {
			got := layout.SearchColumns(tt.sections, d)
			assert.Equal(t, tt.columns, got.Columns)
			assert.Equal(t, tt.perColumn, got.SectionsPerColumn)
		})
	}
}

func TestSearchColumns_DeterministicAndBounded(t *testing.T) {
	d := layout.DefaultShopDimensions()

	first := layout.SearchColumns(1000, d)
	assert.Equal(t, 15, first.Columns)
	for range 10 {
		assert.Equal(t, first, layout.SearchColumns(1000, d))
	}
	for n := 1; n <= 300; n++ {
		got := layout.SearchColumns(n, d)
		assert.LessOrEqual(t, got.Columns, 15)
		assert.GreaterOrEqual(t, got.Columns, 2)
	}
}

func TestPlanSections_ColumnMajorDistribution(t *testing.T) {
	d := layout.DefaultShopDimensions()
	sections := make([]layout.Section, 6)
	for i := range sections {
		sections[i] = layout.Section{ID: fmt.Sprintf("s%d", i), Entries: entries(1, 1, 1, 1)}
	}

	plan, err := layout.PlanSections(sections, d)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.Columns)
	assert.Equal(t, 3, plan.SectionsPerColumn)
	assert.Equal(t, 2*100+2*1096+100, plan.Width)
	assert.Equal(t, 450+3*465+2*24+100, plan.Height)

	assert.Equal(t, image.Pt(100, 450), plan.Sections[0].Bounds.Min)
	assert.Equal(t, image.Pt(100, 450+489), plan.Sections[1].Bounds.Min)
	assert.Equal(t, image.Pt(100+1196, 450), plan.Sections[3].Bounds.Min)

	sp, ok := plan.Section("s4")
	require.True(t, ok)
	assert.Equal(t, image.Pt(1296, 939), sp.Bounds.Min)

	_, ok = plan.Section("missing")
	assert.False(t, ok)
}

func TestPlanSections_Errors(t *testing.T) {
	_, err := layout.PlanSections(nil, layout.DefaultShopDimensions())
	require.ErrorIs(t, err, layout.ErrNoSections)

	_, err = layout.PlanSections([]layout.Section{{ID: "s", Entries: entries(3, 2)}}, layout.DefaultShopDimensions())
	require.ErrorIs(t, err, layout.ErrRowOverflow)
}

func TestPlanSingle(t *testing.T) {
	d := layout.DefaultShopDimensions()

	plan, err := layout.PlanSingle(layout.Section{ID: "s", HasName: true, Entries: entries(2, 1)}, d, 50)
	require.NoError(t, err)
	assert.Equal(t, 1096+100, plan.Width)
	assert.Equal(t, 465+100, plan.Height)
	require.Len(t, plan.Sections, 1)
	assert.Equal(t, image.Pt(50, 107), plan.Sections[0].Entries[0].Card.Min)
}

func TestGrid(t *testing.T) {
	tests := []struct {
		count, minColumns int
		want              layout.GridShape
	}{
		{count: 3, minColumns: 5, want: layout.GridShape{Columns: 5, Rows: 1}},
		{count: 36, minColumns: 5, want: layout.GridShape{Columns: 6, Rows: 6}},
		{count: 37, minColumns: 5, want: layout.GridShape{Columns: 7, Rows: 6}},
		{count: 0, minColumns: 5, want: layout.GridShape{Columns: 5}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, layout.Grid(tt.count, tt.minColumns))
	}

	col, row := layout.Grid(12, 5).Cell(7)
	assert.Equal(t, 2, col)
	assert.Equal(t, 1, row)
}

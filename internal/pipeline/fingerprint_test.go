package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/youruser/imageapi/internal/model"
)

func sections() []model.ShopSection {
	return []model.ShopSection{{
		ID:   "featured",
		Name: "Featured",
		Entries: []model.ShopEntry{
			{ID: "a", Size: 1, Name: "Renegade", RegularPrice: "1,500", FinalPrice: "1,200"},
			{ID: "b", Size: 0.5, Name: "Pickaxe", RegularPrice: "800", FinalPrice: "800"},
		},
	}}
}

func TestShopBaseFingerprint_IgnoresText(t *testing.T) {
	base := shopBaseFingerprint(sections())

	renamed := sections()
	renamed[0].Name = "Daily"
	renamed[0].Entries[0].Name = "Other"
	renamed[0].Entries[0].FinalPrice = "1"
	assert.Equal(t, base, shopBaseFingerprint(renamed))

	resized := sections()
	resized[0].Entries[1].Size = 1
	assert.NotEqual(t, base, shopBaseFingerprint(resized))

	unnamed := sections()
	unnamed[0].Name = ""
	assert.NotEqual(t, base, shopBaseFingerprint(unnamed))
}

func TestShopLocaleFingerprint(t *testing.T) {
	s := sections()
	base := shopBaseFingerprint(s)
	fp := shopLocaleFingerprint(base, "en", "Shop", "today", s)

	assert.Equal(t, fp, shopLocaleFingerprint(base, "en", "Shop", "today", sections()))
	assert.NotEqual(t, fp, shopLocaleFingerprint(base, "de", "Shop", "today", s))

	priced := sections()
	priced[0].Entries[0].FinalPrice = "1,000"
	assert.NotEqual(t, fp, shopLocaleFingerprint(base, "en", "Shop", "today", priced))
}

func TestFingerprint_SeparatesFields(t *testing.T) {
	a := newFingerprint().str("ab").str("c").sum()
	b := newFingerprint().str("a").str("bc").sum()
	assert.NotEqual(t, a, b)

	x := newFingerprint().strs([]string{"a", "b"}).str("c").sum()
	y := newFingerprint().strs([]string{"a"}).str("b").str("c").sum()
	assert.NotEqual(t, x, y)
	assert.Len(t, a, 16)
}

func TestShopFinalFingerprint(t *testing.T) {
	shop := &model.Shop{Title: "Shop"}
	fp := shopFinalFingerprint("locale", shop)

	shop.CreatorCode = "CODE"
	assert.NotEqual(t, fp, shopFinalFingerprint("locale", shop))
	assert.NotEqual(t, fp, shopFinalFingerprint("other", &model.Shop{Title: "Shop"}))
}

func TestLockerItemFingerprints(t *testing.T) {
	it := &model.LockerItem{ID: "cid", Rarity: "Epic", Name: "Name"}
	base := lockerItemBaseFingerprint(it)

	renamed := *it
	renamed.Name = "Other"
	assert.Equal(t, base, lockerItemBaseFingerprint(&renamed))
	assert.NotEqual(t,
		lockerItemLocaleFingerprint(base, "en", it),
		lockerItemLocaleFingerprint(base, "en", &renamed),
	)
}

func TestResizedImageURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{
			in:   "https://fortnite-api.com/images/cosmetics/br/cid_001/icon.png",
			want: "https://fortnite-api.com/images/cosmetics/br/cid_001/icon_256.png",
		},
		{
			in:   "https://Fortnite-API.com/images/cosmetics/br/cid_001/icon.png?v=2",
			want: "https://Fortnite-API.com/images/cosmetics/br/cid_001/icon_256.png?v=2",
		},
		{
			in:   "https://fortnite-api.com/images/cosmetics/br/cid_001/icon_256.png",
			want: "https://fortnite-api.com/images/cosmetics/br/cid_001/icon_256.png",
		},
		{in: "https://cdn.example.com/icon.png", want: "https://cdn.example.com/icon.png"},
		{in: "https://fortnite-api.com/", want: "https://fortnite-api.com/"},
		{in: "::not a url", want: "::not a url"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resizedImageURL(tt.in), tt.in)
	}
}

func TestResolveStatsLabels(t *testing.T) {
	l, locale := resolveStatsLabels("en")
	assert.Equal(t, "en", locale)
	assert.Equal(t, "SOLO", l.Solo)

	l, locale = resolveStatsLabels("pt-br")
	assert.Equal(t, model.DefaultLocale, locale)
	assert.Equal(t, "Top 25", l.Top25)
}

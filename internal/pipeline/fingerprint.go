package pipeline

import (
	"fmt"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/youruser/imageapi/internal/model"
)

// fingerprint is an order-sensitive content hash. Every field is followed by
// a zero byte so adjacent values cannot run together.
type fingerprint struct {
	d *xxhash.Digest
}

func newFingerprint() fingerprint {
	return fingerprint{d: xxhash.New()}
}

func (f fingerprint) str(s string) fingerprint {
	_, _ = f.d.WriteString(s)
	_, _ = f.d.Write([]byte{0})
	return f
}

func (f fingerprint) strs(ss []string) fingerprint {
	f.num(float64(len(ss)))
	for _, s := range ss {
		f.str(s)
	}
	return f
}

func (f fingerprint) num(v float64) fingerprint {
	return f.str(strconv.FormatUint(math.Float64bits(v), 16))
}

func (f fingerprint) flag(b bool) fingerprint {
	if b {
		return f.str("1")
	}
	return f.str("0")
}

// section marks the end of a group of fields.
func (f fingerprint) section() fingerprint {
	_, _ = f.d.Write([]byte{0})
	return f
}

func (f fingerprint) sum() string {
	return fmt.Sprintf("%016x", f.d.Sum64())
}

// shopBaseFingerprint covers what the structural stage draws: layout, card
// backgrounds and art. Names and prices are excluded.
func shopBaseFingerprint(sections []model.ShopSection) string {
	f := newFingerprint()
	for i := range sections {
		s := &sections[i]
		f.str(s.ID).flag(s.Name != "")
		for j := range s.Entries {
			e := &s.Entries[j]
			f.str(e.ID).num(e.Size).flag(e.Banner != nil)
			f.strs(e.BackgroundColors).str(e.TextBackgroundColor)
			f.str(e.ImageType).str(e.ImageURL).str(e.FallbackImageURL).flag(e.IsSpecial)
		}
		f.section()
	}
	return f.sum()
}

// shopLocaleFingerprint extends the base fingerprint with every text drawn by
// the locale stage.
func shopLocaleFingerprint(base, locale, title, date string, sections []model.ShopSection) string {
	f := newFingerprint().str(base).str(locale).str(title).str(date)
	for i := range sections {
		s := &sections[i]
		f.str(s.ID).str(s.Name)
		for j := range s.Entries {
			e := &s.Entries[j]
			f.str(e.ID).str(e.Name).str(e.FinalPrice).str(e.RegularPrice)
			if e.Banner != nil {
				f.str(e.Banner.Text).strs(e.Banner.Colors)
			}
			f.section()
		}
		f.section()
	}
	return f.sum()
}

// shopFinalFingerprint extends the locale fingerprint with the overlays of
// the whole-shop image.
func shopFinalFingerprint(localeFP string, shop *model.Shop) string {
	return newFingerprint().
		str(localeFP).
		str(shop.CreatorCodeTitle).
		str(shop.CreatorCode).
		str(shop.BackgroundImagePath).
		sum()
}

func lockerItemBaseFingerprint(it *model.LockerItem) string {
	return newFingerprint().
		str(it.ID).
		str(it.Rarity).
		str(it.RarityColor).
		str(it.ImageURL).
		num(float64(it.SourceType)).
		sum()
}

func lockerItemLocaleFingerprint(base, locale string, it *model.LockerItem) string {
	return newFingerprint().
		str(base).
		str(locale).
		str(it.Name).
		str(it.Description).
		str(it.Source).
		sum()
}

func statsBaseFingerprint(t model.StatsType, background string) string {
	return newFingerprint().str(string(t)).str(background).sum()
}

func urlFingerprint(url string) string {
	return newFingerprint().str(url).sum()
}

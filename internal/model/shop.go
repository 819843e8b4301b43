package model

import (
	"math"
	"strings"

	"go.trai.ch/zerr"
)

// DefaultLocale is used when a request does not name one.
const DefaultLocale = "en"

type Shop struct {
	Date                string        `json:"date"`
	Title               string        `json:"title"`
	CreatorCodeTitle    string        `json:"creatorCodeTitle,omitempty"`
	CreatorCode         string        `json:"creatorCode,omitempty"`
	BackgroundImagePath string        `json:"backgroundImagePath,omitempty"`
	Sections            []ShopSection `json:"sections"`
}

type ShopSection struct {
	ID      string      `json:"id"`
	Name    string      `json:"name,omitempty"`
	Entries []ShopEntry `json:"entries"`
}

type ShopEntry struct {
	ID                  string      `json:"id"`
	RegularPrice        string      `json:"regularPrice"`
	FinalPrice          string      `json:"finalPrice"`
	Banner              *ShopBanner `json:"banner,omitempty"`
	Size                float64     `json:"size"`
	BackgroundColors    []string    `json:"backgroundColors,omitempty"`
	TextBackgroundColor string      `json:"textBackgroundColor,omitempty"`
	Name                string      `json:"name"`
	ImageType           string      `json:"imageType,omitempty"`
	ImageURL            string      `json:"imageUrl,omitempty"`
	FallbackImageURL    string      `json:"fallbackImageUrl"`
	IsSpecial           bool        `json:"isSpecial"`
}

// ShopBanner is the pill drawn on top of an entry. Colors holds the
// background colour followed by the text colour.
type ShopBanner struct {
	Text   string   `json:"text"`
	Colors []string `json:"colors"`
}

// Image types with dedicated card treatment.
const (
	ImageTypeTrack      = "track"
	ImageTypeCarBundle  = "car-bundle"
	maxBackgroundColors = 3
)

// HasCreatorCode reports whether the final image carries the creator code box.
func (s *Shop) HasCreatorCode() bool {
	return s.CreatorCode != "" && s.CreatorCodeTitle != ""
}

// Discounted reports whether the regular price is shown struck out.
func (e *ShopEntry) Discounted() bool {
	return e.FinalPrice != e.RegularPrice
}

// ImageSource returns the URL to download the entry image from.
func (e *ShopEntry) ImageSource() string {
	if e.ImageURL != "" {
		return e.ImageURL
	}
	return e.FallbackImageURL
}

func (s *Shop) Validate() error {
	if len(s.Sections) == 0 {
		return invalid("shop has no sections")
	}
	seen := make(map[string]struct{}, len(s.Sections))
	for i := range s.Sections {
		sec := &s.Sections[i]
		if _, dup := seen[sec.ID]; dup {
			return zerr.With(invalid("duplicate section id"), "section", sec.ID)
		}
		seen[sec.ID] = struct{}{}
		if err := sec.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s *ShopSection) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return invalid("section id is required")
	}
	if len(s.Entries) == 0 {
		return zerr.With(invalid("section has no entries"), "section", s.ID)
	}
	for i := range s.Entries {
		if err := s.Entries[i].Validate(); err != nil {
			return zerr.With(err, "section", s.ID)
		}
	}
	return nil
}

func (e *ShopEntry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return invalid("entry id is required")
	}
	if e.Size <= 0 || math.IsNaN(e.Size) || math.IsInf(e.Size, 0) {
		return zerr.With(invalid("entry size must be positive"), "entry", e.ID)
	}
	if len(e.BackgroundColors) > maxBackgroundColors {
		return zerr.With(invalid("entry has too many background colors"), "entry", e.ID)
	}
	if e.Banner != nil && len(e.Banner.Colors) < 2 {
		return zerr.With(invalid("banner needs a background and a text color"), "entry", e.ID)
	}
	return nil
}

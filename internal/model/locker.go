package model

import (
	"strings"

	"go.trai.ch/zerr"
)

type Locker struct {
	RequestID  string       `json:"requestId"`
	Locale     string       `json:"locale"`
	PlayerName string       `json:"playerName"`
	UserName   string       `json:"userName"`
	Items      []LockerItem `json:"items"`
}

type LockerItem struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Rarity      string     `json:"rarity"`
	RarityColor string     `json:"rarityColor"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	SourceType  SourceType `json:"sourceType"`
	Source      string     `json:"source"`
}

// SourceType tells where an item was obtained. The numeric values are part of
// the request format.
type SourceType int

const (
	SourceOther          SourceType = 0
	SourceVBucks         SourceType = 1
	SourceBattlePassPaid SourceType = 2
	SourceBattlePassFree SourceType = 3
)

// AssetName is the file name stem of the source icon.
func (t SourceType) AssetName() string {
	switch t {
	case SourceVBucks:
		return "VBucks"
	case SourceBattlePassPaid:
		return "BattlePassPaid"
	case SourceBattlePassFree:
		return "BattlePassFree"
	default:
		return "Other"
	}
}

func (l *Locker) Validate() error {
	if len(l.Items) == 0 {
		return invalid("locker has no items")
	}
	for i := range l.Items {
		if err := l.Items[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (it *LockerItem) Validate() error {
	if !safeName(it.ID) {
		return zerr.With(invalid("item id must be a plain file name"), "item", it.ID)
	}
	if !safeName(it.Rarity) {
		return zerr.With(invalid("item rarity must be a plain file name"), "item", it.ID)
	}
	return nil
}

// safeName rejects values that would escape the directory they are joined to.
func safeName(s string) bool {
	if strings.TrimSpace(s) == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`)
}

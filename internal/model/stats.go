package model

import "go.trai.ch/zerr"

// StatsType selects the stats layout.
type StatsType string

const (
	StatsNormal      StatsType = "normal"
	StatsCompetitive StatsType = "competitive"
)

// ParseStatsType accepts the query value of the stats endpoint. An empty value
// selects the normal layout.
func ParseStatsType(s string) (StatsType, error) {
	switch StatsType(s) {
	case "", StatsNormal:
		return StatsNormal, nil
	case StatsCompetitive:
		return StatsCompetitive, nil
	default:
		return "", zerr.With(invalid("unknown stats type"), "type", s)
	}
}

type Stats struct {
	PlayerName               string            `json:"playerName"`
	UserName                 string            `json:"userName,omitempty"`
	InputType                string            `json:"inputType"`
	IsVerified               bool              `json:"isVerified"`
	BackgroundImagePath      string            `json:"backgroundImagePath,omitempty"`
	Locale                   string            `json:"locale,omitempty"`
	Overall                  PlaylistStats     `json:"overall"`
	Solo                     PlaylistStats     `json:"solo"`
	Duos                     PlaylistStats     `json:"duos"`
	Trios                    PlaylistStats     `json:"trios"`
	Squads                   PlaylistStats     `json:"squads"`
	Teams                    *PlaylistStats    `json:"teams,omitempty"`
	Playtime                 Playtime          `json:"playtime"`
	BattlePassLevel          float64           `json:"battlePassLevel"`
	BattlePassLevelBarColors []string          `json:"battlePassLevelBarColors"`
	Competitive              *CompetitiveStats `json:"competitive,omitempty"`
}

// PlaylistStats values arrive preformatted. TopN is the placement count shown
// for the playlist (top 25 solo, top 12 duos, top 6 trios and squads).
type PlaylistStats struct {
	MatchesPlayed string `json:"matchesPlayed"`
	Wins          string `json:"wins"`
	WinRatio      string `json:"winRatio"`
	Kills         string `json:"kills"`
	KD            string `json:"kd"`
	Top25         string `json:"top25,omitempty"`
	Top12         string `json:"top12,omitempty"`
	Top6          string `json:"top6,omitempty"`
}

type Playtime struct {
	Days    string `json:"days"`
	Hours   string `json:"hours"`
	Minutes string `json:"minutes"`
}

type CompetitiveStats struct {
	Earnings           string        `json:"earnings"`
	PowerRanking       string        `json:"powerRanking"`
	RankedStatsEntries []RankedStats `json:"rankedStatsEntries"`
}

// RankedType identifies a ranked ladder. The numeric values are part of the
// request format.
type RankedType int

const (
	RankedBattleRoyale RankedType = 0
	RankedZeroBuild    RankedType = 1
)

type RankedStats struct {
	RankingType         RankedType `json:"rankingType"`
	CurrentDivision     int        `json:"currentDivision"`
	CurrentDivisionName string     `json:"currentDivisionName"`
	// Ranking is set for the top division, which shows a leaderboard
	// position instead of a progress bar.
	Ranking  string  `json:"ranking,omitempty"`
	Progress float64 `json:"progress"`
}

// Unranked reports whether the player has not been placed yet. Division
// icons are numbered from one.
func (r *RankedStats) Unranked() bool {
	return r.CurrentDivision <= 0
}

// Validate checks that s carries the data required by the given layout.
func (s *Stats) Validate(t StatsType) error {
	switch t {
	case StatsNormal:
		if s.Teams == nil {
			return invalid("normal stats type requested but no team stats were provided")
		}
		if len(s.BattlePassLevelBarColors) < 2 {
			return invalid("battle pass bar needs two colors")
		}
	case StatsCompetitive:
		if s.Competitive == nil {
			return invalid("competitive stats type requested but no competitive stats were provided")
		}
		for _, e := range s.Competitive.RankedStatsEntries {
			if e.RankingType != RankedBattleRoyale && e.RankingType != RankedZeroBuild {
				return zerr.With(invalid("unknown ranking type"), "rankingType", int(e.RankingType))
			}
			if e.Ranking == "" && !e.Unranked() && len(s.BattlePassLevelBarColors) < 2 {
				return invalid("rank progress bar needs two colors")
			}
		}
	default:
		return zerr.With(invalid("unknown stats type"), "type", string(t))
	}
	if s.InputType != "" && !safeName(s.InputType) {
		return zerr.With(invalid("input type must be a plain file name"), "inputType", s.InputType)
	}
	return nil
}

package pipeline

import "github.com/youruser/imageapi/internal/model"

// statsLabels is the text drawn by the stats locale stage.
type statsLabels struct {
	Overall, Solo, Duos, Trios, Squads, Teams string

	Earnings, PowerRanking string
	Games, Wins, WinRatio  string
	Kills, KD              string
	Top25, Top12, Top6     string

	Playtime, Days, Hours, Minutes string
	BattlePassLevel                string
}

var statsLabelSets = map[string]statsLabels{
	"en": {
		Overall:         "OVERALL",
		Solo:            "SOLO",
		Duos:            "DUOS",
		Trios:           "TRIOS",
		Squads:          "SQUADS",
		Teams:           "TEAMS",
		Earnings:        "Earnings",
		PowerRanking:    "Power Ranking",
		Games:           "Games",
		Wins:            "Wins",
		WinRatio:        "Win%",
		Kills:           "Kills",
		KD:              "K/D",
		Top25:           "Top 25",
		Top12:           "Top 12",
		Top6:            "Top 6",
		Playtime:        "Playtime since Season 7",
		Days:            "days",
		Hours:           "hours",
		Minutes:         "minutes",
		BattlePassLevel: "BattlePass Level",
	},
}

// resolveStatsLabels returns the label set for locale and the locale it was
// found under. Unknown locales get English.
func resolveStatsLabels(locale string) (statsLabels, string) {
	if l, ok := statsLabelSets[locale]; ok {
		return l, locale
	}
	return statsLabelSets[model.DefaultLocale], model.DefaultLocale
}

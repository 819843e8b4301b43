package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strconv"

	imagepkg "github.com/youruser/imageapi/internal/image"
	"github.com/youruser/imageapi/internal/model"
	"go.trai.ch/zerr"
)

const (
	statsWidth             = 1505
	statsNormalHeight      = 777
	statsCompetitiveHeight = 624
	statsAssets            = "Assets/Images/Stats/"
)

var (
	statsGradientInner = color.NRGBA{R: 41, G: 165, B: 224, A: 255}
	statsGradientOuter = color.NRGBA{R: 9, G: 66, B: 180, A: 255}
)

// playlistBox places one playlist: its blurred box, icon, title and the two
// rows of label and value anchors.
type playlistBox struct {
	box     imagepkg.RectF
	icon    string
	iconAt  image.Point
	titleAt image.Point
	xs      [3]float64
	labelY  [2]float64
	valueY  [2]float64

	title     func(statsLabels) string
	topN      func(statsLabels) string
	stats     func(*model.Stats) *model.PlaylistStats
	topNValue func(*model.PlaylistStats) string
}

var playlistBoxes = []playlistBox{
	{
		box:       imagepkg.RectF{X: 517, Y: 159, W: 459, H: 185},
		icon:      "solo",
		iconAt:    image.Pt(648, 134),
		titleAt:   image.Pt(527, 134),
		xs:        [3]float64{537, 698, 837},
		labelY:    [2]float64{184, 261},
		valueY:    [2]float64{211, 288},
		title:     func(l statsLabels) string { return l.Solo },
		topN:      func(l statsLabels) string { return l.Top25 },
		stats:     func(s *model.Stats) *model.PlaylistStats { return &s.Solo },
		topNValue: func(p *model.PlaylistStats) string { return p.Top25 },
	},
	{
		box:       imagepkg.RectF{X: 996, Y: 159, W: 459, H: 185},
		icon:      "duos",
		iconAt:    image.Pt(1133, 134),
		titleAt:   image.Pt(1006, 134),
		xs:        [3]float64{1016, 1177, 1316},
		labelY:    [2]float64{184, 261},
		valueY:    [2]float64{211, 288},
		title:     func(l statsLabels) string { return l.Duos },
		topN:      func(l statsLabels) string { return l.Top12 },
		stats:     func(s *model.Stats) *model.PlaylistStats { return &s.Duos },
		topNValue: func(p *model.PlaylistStats) string { return p.Top12 },
	},
	{
		box:       imagepkg.RectF{X: 517, Y: 389, W: 459, H: 185},
		icon:      "trios",
		iconAt:    image.Pt(663, 364),
		titleAt:   image.Pt(527, 364),
		xs:        [3]float64{537, 698, 837},
		labelY:    [2]float64{414, 491},
		valueY:    [2]float64{441, 518},
		title:     func(l statsLabels) string { return l.Trios },
		topN:      func(l statsLabels) string { return l.Top6 },
		stats:     func(s *model.Stats) *model.PlaylistStats { return &s.Trios },
		topNValue: func(p *model.PlaylistStats) string { return p.Top6 },
	},
	{
		box:       imagepkg.RectF{X: 996, Y: 389, W: 459, H: 185},
		icon:      "squads",
		iconAt:    image.Pt(1191, 364),
		titleAt:   image.Pt(1006, 364),
		xs:        [3]float64{1016, 1177, 1316},
		labelY:    [2]float64{414, 491},
		valueY:    [2]float64{441, 518},
		title:     func(l statsLabels) string { return l.Squads },
		topN:      func(l statsLabels) string { return l.Top6 },
		stats:     func(s *model.Stats) *model.PlaylistStats { return &s.Squads },
		topNValue: func(p *model.PlaylistStats) string { return p.Top6 },
	},
}

var teamsBox = imagepkg.RectF{X: 517, Y: 619, W: 938, H: 108}

// Stats renders a player statistics card. The caller owns the returned
// surface.
func (p *Pipeline) Stats(ctx context.Context, stats *model.Stats, t model.StatsType) (*imagepkg.Surface, error) {
	if err := stats.Validate(t); err != nil {
		return nil, err
	}

	baseFP := statsBaseFingerprint(t, stats.BackgroundImagePath)
	base, err := p.artifact(ctx, Key(StageBase, KindStats, baseFP), 0, false, func(context.Context) (*Artifact, error) {
		return p.buildStatsBase(t, stats.BackgroundImagePath)
	})
	if err != nil {
		return nil, err
	}
	defer base.Release()

	labels, locale := resolveStatsLabels(normalizeLocale(stats.Locale))
	loc, err := p.artifact(ctx, Key(StageLocale, KindStats, locale, baseFP), 0, false, func(context.Context) (*Artifact, error) {
		return p.buildStatsLocale(base, t, labels), nil
	})
	if err != nil {
		return nil, err
	}
	defer loc.Release()

	out := loc.Surface.Clone()
	p.drawStatsValues(out.Image(), stats, t)
	return out, nil
}

func (p *Pipeline) buildStatsBase(t model.StatsType, backgroundPath string) (*Artifact, error) {
	height := statsNormalHeight
	if t == model.StatsCompetitive {
		height = statsCompetitiveHeight
	}
	surface, err := imagepkg.NewSurface(statsWidth, height)
	if err != nil {
		return nil, zerr.Wrap(err, "stats canvas")
	}
	dst := surface.Image()

	bg, _ := p.dataImage(backgroundPath)
	background(dst, bg, imagepkg.CornerRadialGradient(dst.Rect, statsGradientInner, statsGradientOuter), backgroundRadius)
	imagepkg.FillRoundRect(dst, imagepkg.RectF{X: 134, Y: 57, W: 5, H: 50}, imagepkg.Uniform(3), imagepkg.Solid(imagepkg.Gray))

	if t == model.StatsCompetitive {
		glassBox(dst, imagepkg.RectF{X: 50, Y: 159, W: 437, H: 415})
		imagepkg.FillRoundRect(dst, imagepkg.RectF{X: 49, Y: 159, W: 437, H: 158},
			imagepkg.Radii{TopLeft: 30, TopRight: 30}, imagepkg.Solid(imagepkg.WithAlpha(imagepkg.White, 0.2)))
		imagepkg.FillRoundRect(dst, imagepkg.RectF{X: 267, Y: 192, W: 1, H: 77},
			imagepkg.Uniform(1), imagepkg.Solid(imagepkg.WithAlpha(imagepkg.White, 0.5)))
		if img := p.bitmap(statsAssets + "BuildLogo.png"); img != nil {
			imagepkg.DrawImage(dst, img, image.Pt(115, 277))
		}
		if img := p.bitmap(statsAssets + "ZeroBuildLogo.png"); img != nil {
			imagepkg.DrawImage(dst, img, image.Pt(317, 277))
		}
	} else {
		glassBox(dst, imagepkg.RectF{X: 50, Y: 159, W: 437, H: 568})
		imagepkg.FillRoundRect(dst, imagepkg.RectF{X: 158, Y: 483, W: 309, H: 20},
			imagepkg.Uniform(10), imagepkg.Solid(imagepkg.WithAlpha(imagepkg.White, 0.3)))
	}

	for _, b := range playlistBoxes {
		glassBox(dst, b.box)
	}
	if t == model.StatsNormal {
		glassBox(dst, teamsBox)
	}
	for _, b := range playlistBoxes {
		p.drawPlaylistIcon(dst, b.icon, b.iconAt)
	}
	if t == model.StatsNormal {
		p.drawPlaylistIcon(dst, "teams", image.Pt(683, 594))
	}
	return &Artifact{Surface: surface}, nil
}

// glassBox blurs the region under r and tints it white.
func glassBox(dst *image.RGBA, r imagepkg.RectF) {
	imagepkg.BlurRoundRect(dst, r, imagepkg.Uniform(30), 5)
	imagepkg.FillRoundRect(dst, r, imagepkg.Uniform(30), imagepkg.Solid(imagepkg.WithAlpha(imagepkg.White, 0.2)))
}

func (p *Pipeline) drawPlaylistIcon(dst *image.RGBA, name string, at image.Point) {
	if img := p.bitmap(statsAssets + "PlaylistIcons/" + name + ".png"); img != nil {
		imagepkg.DrawImage(dst, img, at)
	}
}

func (p *Pipeline) buildStatsLocale(base *Artifact, t model.StatsType, l statsLabels) *Artifact {
	surface := base.Surface.Clone()
	dst := surface.Image()
	title := p.face(fontFortnite, 50)
	label := p.face(fontSegoe, 20)
	gray := imagepkg.LightGray

	drawTitle := func(s string, at image.Point) {
		title.Draw(dst, s, float64(at.X), float64(at.Y), imagepkg.White, imagepkg.AlignLeft)
	}
	drawLabel := func(s string, x, y float64) {
		label.DrawTop(dst, s, x, y, gray, imagepkg.AlignLeft)
	}

	if t == model.StatsCompetitive {
		p.face(fontFortnite, 25).Draw(dst, l.Overall, 211, 305, imagepkg.White, imagepkg.AlignLeft)
		drawLabel(l.Earnings, 70, 338)
		drawLabel(l.PowerRanking, 250, 338)
		drawLabel(l.Games, 70, 414)
		drawLabel(l.Wins, 231, 414)
		drawLabel(l.WinRatio, 370, 414)
		drawLabel(l.Kills, 70, 491)
		drawLabel(l.KD, 231, 491)
	} else {
		drawTitle(l.Overall, image.Pt(60, 134))
		drawLabel(l.Games, 70, 184)
		drawLabel(l.Wins, 231, 184)
		drawLabel(l.WinRatio, 370, 184)
		drawLabel(l.Kills, 70, 261)
		drawLabel(l.KD, 231, 261)
		drawLabel(l.Playtime, 70, 338)
		drawLabel(l.Days, 70, 397)
		drawLabel(l.Hours, 147, 397)
		drawLabel(l.Minutes, 231, 397)
		drawLabel(l.BattlePassLevel, 70, 442)
	}

	for _, b := range playlistBoxes {
		drawTitle(b.title(l), b.titleAt)
		drawLabel(l.Games, b.xs[0], b.labelY[0])
		drawLabel(l.Wins, b.xs[1], b.labelY[0])
		drawLabel(l.WinRatio, b.xs[2], b.labelY[0])
		drawLabel(l.Kills, b.xs[0], b.labelY[1])
		drawLabel(l.KD, b.xs[1], b.labelY[1])
		drawLabel(b.topN(l), b.xs[2], b.labelY[1])
	}

	if t == model.StatsNormal {
		drawTitle(l.Teams, image.Pt(527, 594))
		for i, s := range []string{l.Games, l.Wins, l.WinRatio, l.Kills, l.KD} {
			drawLabel(s, teamsXs[i], 644)
		}
	}
	return &Artifact{Surface: surface}
}

var teamsXs = [5]float64{537, 698, 837, 954, 1115}

// drawStatsValues draws the per-player header and numbers on a private copy.
func (p *Pipeline) drawStatsValues(dst *image.RGBA, s *model.Stats, t model.StatsType) {
	value := p.face(fontFortnite, 35)
	put := func(v string, x, y float64) {
		value.DrawTop(dst, v, x, y, imagepkg.White, imagepkg.AlignLeft)
	}

	p.drawStatsHeader(dst, s)

	if t == model.StatsCompetitive {
		c := s.Competitive
		put(c.Earnings, 70, 365)
		put(c.PowerRanking, 250, 365)
		put(s.Overall.MatchesPlayed, 70, 441)
		put(s.Overall.Wins, 231, 441)
		put(s.Overall.WinRatio, 370, 441)
		put(s.Overall.Kills, 70, 518)
		put(s.Overall.KD, 231, 518)
		p.drawRanked(dst, s, value)
	} else {
		put(s.Overall.MatchesPlayed, 70, 211)
		put(s.Overall.Wins, 231, 211)
		put(s.Overall.WinRatio, 370, 211)
		put(s.Overall.Kills, 70, 288)
		put(s.Overall.KD, 231, 288)
		put(s.Playtime.Days, 70, 369)
		put(s.Playtime.Hours, 147, 369)
		put(s.Playtime.Minutes, 213, 369)

		level := int(s.BattlePassLevel)
		put(strconv.Itoa(level), 70, 479)
		from, to := barColors(s.BattlePassLevelBarColors)
		imagepkg.ProgressBar(dst, 158, 483, 309, 20, s.BattlePassLevel-float64(level), 20, from, to)
	}

	for _, b := range playlistBoxes {
		ps := b.stats(s)
		put(ps.MatchesPlayed, b.xs[0], b.valueY[0])
		put(ps.Wins, b.xs[1], b.valueY[0])
		put(ps.WinRatio, b.xs[2], b.valueY[0])
		put(ps.Kills, b.xs[0], b.valueY[1])
		put(ps.KD, b.xs[1], b.valueY[1])
		put(b.topNValue(ps), b.xs[2], b.valueY[1])
	}

	if t == model.StatsNormal && s.Teams != nil {
		for i, v := range []string{s.Teams.MatchesPlayed, s.Teams.Wins, s.Teams.WinRatio, s.Teams.Kills, s.Teams.KD} {
			put(v, teamsXs[i], 671)
		}
	}
}

func (p *Pipeline) drawStatsHeader(dst *image.RGBA, s *model.Stats) {
	if s.InputType != "" {
		if icon := p.bitmap(statsAssets + "InputTypes/" + s.InputType + ".png"); icon != nil {
			imagepkg.DrawImage(dst, icon, image.Pt(50, 50))
		}
	}

	segoe := p.face(fontSegoe, 64)
	segoe.DrawTop(dst, s.PlayerName, 159, 58, imagepkg.White, imagepkg.AlignLeft)
	if !s.IsVerified {
		return
	}

	if badge := p.bitmap(statsAssets + "Verified.png"); badge != nil {
		imagepkg.DrawImage(dst, badge, image.Pt(159+int(segoe.Measure(s.PlayerName))+5, 47))
	}
	username := s.UserName
	if username == "" {
		username = "???#0000"
	}
	box := imagepkg.DiscordBox(segoe, p.bitmap(bitmapDiscordLogo), username, 1)
	imagepkg.DrawImage(dst, box, image.Pt(statsWidth-50-box.Rect.Dx(), 39))
}

// drawRanked draws the division icon, name and progress of each ranked
// ladder above the competitive overall box.
func (p *Pipeline) drawRanked(dst *image.RGBA, s *model.Stats, value *imagepkg.Face) {
	ranking := p.face(fontFortnite, 20)
	percent := p.face(fontSegoe, 16)
	from, to := barColors(s.BattlePassLevelBarColors)

	for i := range s.Competitive.RankedStatsEntries {
		r := &s.Competitive.RankedStatsEntries[i]
		x := 151.0
		if r.RankingType == model.RankedZeroBuild {
			x = 379
		}

		icon := "Unranked"
		if !r.Unranked() {
			icon = strconv.Itoa(r.CurrentDivision)
		}
		if img := p.bitmap(statsAssets + "DivisionIcons/" + icon + ".png"); img != nil {
			imagepkg.DrawImage(dst, img, image.Pt(int(x)-img.Bounds().Dx()/2, 109))
		}
		value.DrawTop(dst, r.CurrentDivisionName, x, 206, imagepkg.White, imagepkg.AlignCenter)

		if r.Ranking != "" {
			ranking.DrawTop(dst, r.Ranking, x, 245, imagepkg.White, imagepkg.AlignCenter)
			continue
		}

		text := fmt.Sprintf("%d%%", int(r.Progress*100))
		barX := x - percent.Measure(text)/2 - 65
		imagepkg.FillRoundRect(dst, imagepkg.RectF{X: float32(barX), Y: 250, W: 130, H: 6},
			imagepkg.Uniform(10), imagepkg.Solid(imagepkg.WithAlpha(imagepkg.White, 0.2)))
		imagepkg.ProgressBar(dst, barX, 250, 130, 6, r.Progress, 6, from, to)
		percent.DrawTop(dst, text, barX+137, 247, imagepkg.WithAlpha(imagepkg.White, 0.7), imagepkg.AlignLeft)
	}
}

// barColors returns the first two configured colours, white when missing.
func barColors(colors []string) (color.NRGBA, color.NRGBA) {
	from, to := imagepkg.White, imagepkg.White
	if len(colors) > 0 {
		from = imagepkg.ParseColorOr(colors[0], imagepkg.White)
	}
	if len(colors) > 1 {
		to = imagepkg.ParseColorOr(colors[1], imagepkg.White)
	}
	return from, to
}

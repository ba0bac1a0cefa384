package core

// Color is the foreground color of a screen cell. The terminal layer maps each
// value to an ANSI 256-color style.
type Color uint8

// Palette.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightBlue
	ColorBrightMagenta
	ColorBrightCyan
	ColorBrightWhite
	ColorOrange
	ColorGray
)

// Board roles.
const (
	ColorGrid     = ColorGray
	ColorCursor   = ColorBrightWhite
	ColorSelected = ColorBrightYellow
	ColorFlash    = ColorBrightGreen
)

// tierColors colors tokens by level, cycling from coins through notes and
// valuables to the gem tier.
var tierColors = []Color{
	ColorYellow, ColorYellow, ColorOrange, ColorOrange, // small coins and notes
	ColorGreen, ColorGreen, ColorBrightGreen, ColorBrightGreen, // large notes
	ColorWhite, ColorBrightYellow, ColorBrightCyan, ColorBrightWhite, // check, gold, diamond, skyscraper
	ColorRed, ColorBlue, ColorBrightGreen, ColorMagenta, ColorBrightMagenta, // gems
	ColorOrange, // bitcoin
}

// TierColor returns the color of a token at level (1-based). Out-of-range levels are gray.
func TierColor(level int) Color {
	if level < 1 || level > len(tierColors) {
		return ColorGray
	}
	return tierColors[level-1]
}

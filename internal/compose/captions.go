package compose

import (
	"fmt"
	"math/rand"

	"github.com/keagan/slopforge/internal/ffmpeg"
)

const defaultFontSize = 75

// stockCaptions are the built-in hook lines drawn when no custom text is set.
// Entries containing %d are formatted with the output number.
var stockCaptions = []string{
	"WATCH TILL THE END 😱",
	"POV: you can't stop watching",
	"this is so satisfying",
	"wait for it...",
	"Part %d",
	"no way this is real",
	"rate this 1-10",
}

// pickCaption returns the custom text when set, otherwise a random stock
// caption with the output number substituted where the line asks for it.
func pickCaption(rng *rand.Rand, custom string, outputNum int) string {
	if custom != "" {
		return custom
	}
	line := stockCaptions[rng.Intn(len(stockCaptions))]
	if line == "Part %d" {
		return fmt.Sprintf(line, outputNum)
	}
	return line
}

// captionY maps a named position to a drawtext y expression.
func captionY(position string) string {
	switch position {
	case "bottom":
		return "h-text_h-150"
	case "center":
		return "(h-text_h)/2"
	default: // top
		return "h/4-text_h/2"
	}
}

// captionTiers returns drawtext filter bodies in decreasing order of
// styling. The renderer tries each in turn so that a missing font or an
// unsupported option degrades the overlay instead of dropping it.
func captionTiers(text string, fontSize int, position string) []string {
	if fontSize <= 0 {
		fontSize = defaultFontSize
	}
	escaped := ffmpeg.EscapeText(text)
	x := "(w-text_w)/2"
	y := captionY(position)

	styled := fmt.Sprintf(
		"text='%s':fontsize=%d:fontcolor=white:borderw=3:bordercolor=black:box=1:boxcolor=black@0.5:boxborderw=18:x=%s:y=%s",
		escaped, fontSize, x, y)

	outlined := fmt.Sprintf(
		"text='%s':fontsize=%d:fontcolor=white:borderw=2:bordercolor=black:x=%s:y=%s",
		escaped, fontSize, x, y)

	minimal := fmt.Sprintf(
		"text='%s':fontcolor=white:x=%s:y=%s",
		escaped, x, y)

	return []string{styled, outlined, minimal}
}

// Package draw renders the bot's image replies: text-over-avatar cards for
// !draw and welcome cards for room joins.
package draw

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	avatarSize     = 800
	avatarBlur     = 15
	avatarTextTop  = 300
	welcomeWidth   = 800
	welcomeHeight  = 600
	welcomeTextTop = 150
	fontSize       = 60
	wrapWidth      = 25 // display cells per line
	lineSpacing    = 5
)

// palette matches the classic card colors.
var palette = []string{
	"#F0F8FF", "#FAEBD7", "#0000FF", "#8A2BE2", "#FFD700", "#DC143C", "#00FFFF",
}

// Renderer draws cards with one loaded typeface. Safe for concurrent use;
// each render builds its own face.
type Renderer struct {
	fnt    *opentype.Font
	client *http.Client
}

// NewRenderer loads the card typeface. An empty path falls back to the
// bundled Go Regular face so rendering always works out of the box.
func NewRenderer(fontPath string) (*Renderer, error) {
	ttf := goregular.TTF
	if fontPath != "" {
		data, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("draw: read font: %w", err)
		}
		ttf = data
	}
	fnt, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("draw: parse font: %w", err)
	}
	return &Renderer{
		fnt:    fnt,
		client: &http.Client{Timeout: 20 * time.Second},
	}, nil
}

// AvatarCard fetches the user's avatar, blurs it, and draws the text over
// it. Returns PNG bytes.
func (r *Renderer) AvatarCard(ctx context.Context, avatarURL, text string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, avatarURL, nil)
	if err != nil {
		return nil, fmt.Errorf("draw: avatar request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("draw: avatar fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("draw: avatar status %d", resp.StatusCode)
	}

	avatar, err := imaging.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("draw: avatar decode: %w", err)
	}

	img := imaging.Blur(imaging.Resize(avatar, avatarSize, avatarSize, imaging.Lanczos), avatarBlur)
	if err := r.drawText(img, text, randomColor(), avatarTextTop); err != nil {
		return nil, err
	}
	return encodePNG(img)
}

// WelcomeCard renders the join greeting card for a new room member.
func (r *Renderer) WelcomeCard(room, user string) ([]byte, error) {
	img := imaging.Blur(imaging.New(welcomeWidth, welcomeHeight, randomColor()), 40)
	text := fmt.Sprintf("Welcome to %s\n%s", room, user)
	if err := r.drawText(img, text, randomColor(), welcomeTextTop); err != nil {
		return nil, err
	}
	return encodePNG(img)
}

// drawText writes wrapped, centered lines starting at the given height.
func (r *Renderer) drawText(img *image.NRGBA, text string, col color.NRGBA, top int) error {
	face, err := opentype.NewFace(r.fnt, &opentype.FaceOptions{
		Size: fontSize, DPI: 72, Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("draw: build face: %w", err)
	}
	defer face.Close()

	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil() + lineSpacing
	width := img.Bounds().Dx()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
	}

	y := top + metrics.Ascent.Ceil()
	for _, block := range strings.Split(text, "\n") {
		for _, line := range wrapLines(block, wrapWidth) {
			adv := d.MeasureString(line)
			x := (width - adv.Ceil()) / 2
			if x < 0 {
				x = 0
			}
			d.Dot = fixed.P(x, y)
			d.DrawString(line)
			y += lineHeight
		}
	}
	return nil
}

// wrapLines breaks text into lines of at most limit display cells, never
// splitting inside a word.
func wrapLines(text string, limit int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if runewidth.StringWidth(current)+1+runewidth.StringWidth(word) <= limit {
			current += " " + word
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("draw: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func randomColor() color.NRGBA {
	return parseHexColor(palette[rand.Intn(len(palette))])
}

// parseHexColor converts "#RRGGBB" to a color. Bad input yields white.
func parseHexColor(s string) color.NRGBA {
	c := color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	if len(s) != 7 || s[0] != '#' {
		return c
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return c
	}
	return color.NRGBA{R: r, G: g, B: b, A: 0xFF}
}

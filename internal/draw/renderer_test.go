package draw

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/disintegration/imaging"
)

func TestWrapLines(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  []string
	}{
		{"empty", "", 25, nil},
		{"short", "hello world", 25, []string{"hello world"}},
		{"wraps at word boundary", "the quick brown fox jumps over", 10, []string{"the quick", "brown fox", "jumps over"}},
		{"long word kept whole", "antidisestablishmentarianism now", 10, []string{"antidisestablishmentarianism", "now"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapLines(tt.in, tt.limit)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("wrapLines(%q, %d) = %v, want %v", tt.in, tt.limit, got, tt.want)
			}
		})
	}
}

func TestParseHexColor(t *testing.T) {
	if got := parseHexColor("#DC143C"); got != (color.NRGBA{R: 0xDC, G: 0x14, B: 0x3C, A: 0xFF}) {
		t.Errorf("parseHexColor crimson = %v", got)
	}
	white := color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	if got := parseHexColor("oops"); got != white {
		t.Errorf("parseHexColor bad input = %v, want white", got)
	}
}

func TestNewRendererMissingFont(t *testing.T) {
	if _, err := NewRenderer("/no/such/font.ttf"); err == nil {
		t.Fatal("expected error for missing font file")
	}
}

func TestWelcomeCard(t *testing.T) {
	r, err := NewRenderer("")
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	data, err := r.WelcomeCard("lounge", "visitor")
	if err != nil {
		t.Fatalf("WelcomeCard: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != welcomeWidth || b.Dy() != welcomeHeight {
		t.Errorf("card size %dx%d, want %dx%d", b.Dx(), b.Dy(), welcomeWidth, welcomeHeight)
	}
}

func TestAvatarCard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		avatar := imaging.New(64, 64, color.NRGBA{R: 0x30, G: 0x60, B: 0x90, A: 0xFF})
		w.Header().Set("Content-Type", "image/png")
		_ = png.Encode(w, avatar)
	}))
	defer srv.Close()

	r, err := NewRenderer("")
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	data, err := r.AvatarCard(context.Background(), srv.URL, "hello there friend")
	if err != nil {
		t.Fatalf("AvatarCard: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := img.Bounds(); b != image.Rect(0, 0, avatarSize, avatarSize) {
		t.Errorf("card bounds %v, want %dx%d", b, avatarSize, avatarSize)
	}
}

func TestAvatarCardFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	r, err := NewRenderer("")
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	if _, err := r.AvatarCard(context.Background(), srv.URL, "x"); err == nil {
		t.Fatal("expected error for 404 avatar")
	}
}

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// zodiacSigns maps sign names to the site's numeric sign parameter.
var zodiacSigns = map[string]int{
	"aries": 1, "taurus": 2, "gemini": 3, "cancer": 4,
	"leo": 5, "virgo": 6, "libra": 7, "scorpio": 8,
	"sagittarius": 9, "capricorn": 10, "aquarius": 11, "pisces": 12,
}

var validDays = map[string]bool{"yesterday": true, "today": true, "tomorrow": true}

// Literal fallback strings; chat users see these verbatim.
const (
	msgInvalidSign  = "Invalid sign."
	msgInvalidDay   = "Invalid day."
	msgHoroscopeErr = "Error fetching horoscope."
)

// SignNumber resolves a zodiac sign name to its numeric parameter.
func SignNumber(sign string) (int, bool) {
	n, ok := zodiacSigns[strings.ToLower(sign)]
	return n, ok
}

// HoroscopeClient scrapes the daily general horoscope page.
type HoroscopeClient struct {
	BaseURL string
	Client  *http.Client
}

// NewHoroscope returns a client against horoscope.com.
func NewHoroscope() *HoroscopeClient {
	return &HoroscopeClient{
		BaseURL: "https://www.horoscope.com",
		Client:  &http.Client{Timeout: 20 * time.Second},
	}
}

// Daily returns the horoscope text for a sign and day. Invalid input and
// fetch failures come back as literal strings, never as errors: the reply
// goes straight to chat either way.
func (h *HoroscopeClient) Daily(ctx context.Context, sign, day string) string {
	n, ok := SignNumber(sign)
	if !ok {
		return msgInvalidSign
	}
	day = strings.ToLower(day)
	if !validDays[day] {
		return msgInvalidDay
	}

	pageURL := fmt.Sprintf("%s/us/horoscopes/general/horoscope-general-daily-%s.aspx?sign=%d", h.BaseURL, day, n)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return msgHoroscopeErr
	}
	req.Header.Set("User-Agent", desktopUserAgent)

	resp, err := h.Client.Do(req)
	if err != nil {
		slog.Warn("horoscope fetch failed", "sign", sign, "error", err)
		return msgHoroscopeErr
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return msgHoroscopeErr
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return msgHoroscopeErr
	}

	text := msgHoroscopeErr
	walk(doc, func(node *html.Node) bool {
		if node.Type != html.ElementNode || node.Data != "div" || !hasClass(node, "main-horoscope") {
			return true
		}
		walk(node, func(p *html.Node) bool {
			if p.Type == html.ElementNode && p.Data == "p" {
				if t := textContent(p); t != "" {
					text = t
					return false
				}
			}
			return true
		})
		return false
	})
	return text
}

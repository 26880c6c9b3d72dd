package tools

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const bingFixture = `<!DOCTYPE html><html><body>
<div class="results">
  <a class="other" href="#">nope</a>
  <a class="iusc" m="not valid json">broken</a>
  <a class="iusc" m='{"murl":"https://pics.example/first.jpg","t":"First"}'>hit</a>
  <a class="iusc" m='{"murl":"https://pics.example/second.jpg"}'>later</a>
</div>
</body></html>`

func TestBingImages_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("q"); q != "cute cat" {
			t.Errorf("query = %q", q)
		}
		io.WriteString(w, bingFixture)
	}))
	defer srv.Close()

	b := &BingImages{BaseURL: srv.URL, Client: srv.Client()}
	url, err := b.Search(context.Background(), "cute cat")
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://pics.example/first.jpg" {
		t.Errorf("url = %q, want the first parsable hit", url)
	}
}

func TestBingImages_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `<html><body><p>no images</p></body></html>`)
	}))
	defer srv.Close()

	b := &BingImages{BaseURL: srv.URL, Client: srv.Client()}
	url, err := b.Search(context.Background(), "nothing")
	if err != nil {
		t.Fatal(err)
	}
	if url != "" {
		t.Errorf("url = %q, want empty for no results", url)
	}
}

func TestSignNumber(t *testing.T) {
	if n, ok := SignNumber("aries"); !ok || n != 1 {
		t.Errorf("aries = %d, %v; want 1", n, ok)
	}
	if n, ok := SignNumber("Pisces"); !ok || n != 12 {
		t.Errorf("Pisces = %d, %v; want 12", n, ok)
	}
	if _, ok := SignNumber("ophiuchus"); ok {
		t.Error("ophiuchus is not a sign")
	}
}

func TestHoroscope_Daily(t *testing.T) {
	var gotPath, gotSign string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSign = r.URL.Query().Get("sign")
		io.WriteString(w, `<html><body>
			<div class="main-horoscope"><p>Great things await you today.</p></div>
		</body></html>`)
	}))
	defer srv.Close()

	h := &HoroscopeClient{BaseURL: srv.URL, Client: srv.Client()}

	t.Run("valid sign and day", func(t *testing.T) {
		got := h.Daily(context.Background(), "aries", "tomorrow")
		if got != "Great things await you today." {
			t.Errorf("Daily = %q", got)
		}
		if !strings.Contains(gotPath, "daily-tomorrow") {
			t.Errorf("path = %q, want the tomorrow page", gotPath)
		}
		if gotSign != "1" {
			t.Errorf("sign param = %q, want 1 for aries", gotSign)
		}
	})

	t.Run("invalid day is a literal string, not an error", func(t *testing.T) {
		if got := h.Daily(context.Background(), "aries", "blursday"); got != msgInvalidDay {
			t.Errorf("Daily = %q, want %q", got, msgInvalidDay)
		}
	})

	t.Run("invalid sign", func(t *testing.T) {
		if got := h.Daily(context.Background(), "dragon", "today"); got != msgInvalidSign {
			t.Errorf("Daily = %q, want %q", got, msgInvalidSign)
		}
	})

	t.Run("day is case-insensitive", func(t *testing.T) {
		if got := h.Daily(context.Background(), "leo", "Today"); got != "Great things await you today." {
			t.Errorf("Daily = %q", got)
		}
	})
}

func TestHoroscope_FetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := &HoroscopeClient{BaseURL: srv.URL, Client: srv.Client()}
	if got := h.Daily(context.Background(), "leo", "today"); got != msgHoroscopeErr {
		t.Errorf("Daily = %q, want %q", got, msgHoroscopeErr)
	}
}

func TestProfileClient_DisplayName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("auth header = %q", got)
		}
		if got := r.URL.Query().Get("user_id"); got != "42" {
			t.Errorf("user_id = %q", got)
		}
		io.WriteString(w, `{"name":"Alice A.","level":3}`)
	}))
	defer srv.Close()

	p := &ProfileClient{BaseURL: srv.URL, Client: srv.Client()}
	name, err := p.DisplayName(context.Background(), "tok-1", 42)
	if err != nil {
		t.Fatal(err)
	}
	if name != "Alice A." {
		t.Errorf("name = %q", name)
	}

	t.Run("missing token fails fast", func(t *testing.T) {
		if _, err := p.DisplayName(context.Background(), "", 42); err == nil {
			t.Error("expected error without a token")
		}
	})
}

func TestCDNUploader_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatal(err)
		}
		if got := r.FormValue("jid"); got != "Luna" {
			t.Errorf("jid = %q", got)
		}
		if got := r.FormValue("room"); got != "lounge" {
			t.Errorf("room = %q", got)
		}
		if got := r.FormValue("is_private"); got != "no" {
			t.Errorf("is_private = %q", got)
		}
		if got := r.FormValue("device_id"); len(got) != 16 {
			t.Errorf("device_id = %q, want 16 chars", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatal(err)
		}
		defer file.Close()
		if header.Filename != "image.png" {
			t.Errorf("filename = %q", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "fake-png-bytes" {
			t.Errorf("file content = %q", data)
		}
		io.WriteString(w, "https://cdn.example/abc.png\n")
	}))
	defer srv.Close()

	u := &CDNUploader{URL: srv.URL, Client: srv.Client()}
	link, err := u.Upload(context.Background(), []byte("fake-png-bytes"), "lounge", "Luna")
	if err != nil {
		t.Fatal(err)
	}
	if link != "https://cdn.example/abc.png" {
		t.Errorf("link = %q", link)
	}
}

func TestCDNUploader_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	u := &CDNUploader{URL: srv.URL, Client: srv.Client()}
	if _, err := u.Upload(context.Background(), []byte("x"), "r", "b"); err == nil {
		t.Error("expected error on non-200 status")
	}
}

package tools

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
)

const uploadUserAgent = "okhttp/3.12.1"

// CDNUploader posts rendered images to the chat service's CDN, which replies
// with the public URL as its plain-text body.
type CDNUploader struct {
	URL    string
	Client *http.Client
}

// NewCDNUploader returns an uploader against the production CDN endpoint.
func NewCDNUploader() *CDNUploader {
	return &CDNUploader{
		URL:    "https://cdn.talkinchat.com/post.php",
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload stores a PNG and returns its URL.
func (u *CDNUploader) Upload(ctx context.Context, png []byte, room, identity string) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="image.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := w.CreatePart(hdr)
	if err != nil {
		return "", fmt.Errorf("tools: upload form: %w", err)
	}
	if _, err := part.Write(png); err != nil {
		return "", fmt.Errorf("tools: upload form: %w", err)
	}

	fields := map[string]string{
		"jid":        identity,
		"is_private": "no",
		"room":       room,
		"device_id":  deviceID(),
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return "", fmt.Errorf("tools: upload form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("tools: upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.URL, &buf)
	if err != nil {
		return "", fmt.Errorf("tools: upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("User-Agent", uploadUserAgent)

	resp, err := u.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tools: upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tools: upload status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("tools: upload read: %w", err)
	}
	link := strings.TrimSpace(string(body))
	if link == "" {
		return "", fmt.Errorf("tools: upload returned empty body")
	}
	return link, nil
}

// deviceID mimics the mobile client's per-upload device token.
func deviceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// Package httpupload sends documents to the collector as multipart form
// uploads and reports how much of the request body has been written.
package httpupload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vrsandeep/xmlup/internal/transfer"
)

// DefaultField is the form field the collector reads the file from.
const DefaultField = "file"

// Transport posts one multipart request per document.
type Transport struct {
	URL    string
	Field  string
	Client *http.Client
}

func New(url string, timeout time.Duration) *Transport {
	return &Transport{
		URL:    url,
		Field:  DefaultField,
		Client: &http.Client{Timeout: timeout},
	}
}

func (t *Transport) Send(ctx context.Context, name string, data []byte, report transfer.ProgressFunc) error {
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(t.Field, name)
	if err != nil {
		return fmt.Errorf("could not build upload body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("could not build upload body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("could not build upload body: %w", err)
	}

	total := int64(body.Len())
	pr := &progressReader{r: body, total: total, report: report}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, pr)
	if err != nil {
		return err
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := t.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("collector responded with %s%s", resp.Status, reason(resp.Body))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// reason extracts a short message from an error response, either the
// "error" field of a JSON body or the first line of a text body.
func reason(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Error != "" {
			return ": " + payload.Error
		}
		if payload.Message != "" {
			return ": " + payload.Message
		}
	}
	line := strings.TrimSpace(strings.SplitN(string(raw), "\n", 2)[0])
	if line == "" || strings.HasPrefix(line, "{") || strings.HasPrefix(line, "<") {
		return ""
	}
	return ": " + line
}

type progressReader struct {
	r      io.Reader
	sent   int64
	total  int64
	report transfer.ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.report != nil {
			p.report(p.sent, p.total)
		}
	}
	return n, err
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agenthands/annuaire/internal/record"
)

const (
	DefaultBaseURL = "http://127.0.0.1:5000"
	DefaultTimeout = 5 * time.Minute
)

// APIError carries a non-success reply from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Input is an import submission. Any subset of the fields may be set.
type Input struct {
	Text     string
	URL      string
	FileName string
	File     io.Reader
}

// Outcome is the reply to a submission. Duplicates is non-empty when the server
// answered 409.
type Outcome struct {
	Message    string               `json:"message"`
	Inserted   []record.Record      `json:"successful_inserts"`
	Duplicates record.ConflictBatch `json:"duplicates"`
}

func (o Outcome) HasConflicts() bool {
	return len(o.Duplicates) > 0
}

type Client struct {
	baseURL string
	http    *http.Client
	log     logrus.FieldLogger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit sends raw input to be parsed and imported.
func (c *Client) Submit(ctx context.Context, kind record.Kind, in Input) (Outcome, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("text", in.Text); err != nil {
		return Outcome{}, fmt.Errorf("client: encode text: %w", err)
	}
	if err := mw.WriteField("url", in.URL); err != nil {
		return Outcome{}, fmt.Errorf("client: encode url: %w", err)
	}
	if in.File != nil {
		name := in.FileName
		if name == "" {
			name = "upload.txt"
		}
		fw, err := mw.CreateFormFile("file", name)
		if err != nil {
			return Outcome{}, fmt.Errorf("client: encode file: %w", err)
		}
		if _, err := io.Copy(fw, in.File); err != nil {
			return Outcome{}, fmt.Errorf("client: read file: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return Outcome{}, fmt.Errorf("client: encode form: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, kind.SubmitPath(), mw.FormDataContentType(), &body)
	if err != nil {
		return Outcome{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusConflict:
		var out Outcome
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
			return Outcome{}, fmt.Errorf("client: decode submit reply: %w", err)
		}
		if resp.StatusCode == http.StatusConflict {
			if err := out.Duplicates.Validate(); err != nil {
				return Outcome{}, fmt.Errorf("client: conflict reply: %w", err)
			}
		}
		c.log.WithFields(logrus.Fields{
			"kind":       kind.String(),
			"inserted":   len(out.Inserted),
			"duplicates": len(out.Duplicates),
		}).Debug("submit settled")
		return out, nil
	default:
		return Outcome{}, readError(resp)
	}
}

// Create stores rec as a new record. Its numero, if any, is not sent.
func (c *Client) Create(ctx context.Context, kind record.Kind, rec record.Record) error {
	return c.sendJSON(ctx, http.MethodPost, kind.CreatePath(), rec.WithoutKey(), http.StatusCreated)
}

// Replace overwrites each stored record named by the numero of recs.
func (c *Client) Replace(ctx context.Context, kind record.Kind, recs []record.Record) error {
	return c.sendJSON(ctx, http.MethodPut, kind.ReplacePath(), recs, http.StatusOK, http.StatusNoContent)
}

// List fetches every record of kind.
func (c *Client) List(ctx context.Context, kind record.Kind) ([]record.Record, error) {
	resp, err := c.do(ctx, http.MethodGet, kind.ListPath(), "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}
	var recs []record.Record
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		return nil, fmt.Errorf("client: decode %s list: %w", kind, err)
	}
	return recs, nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, v any, ok ...int) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("client: encode body: %w", err)
	}
	resp, err := c.do(ctx, method, path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	for _, code := range ok {
		if resp.StatusCode == code {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
	}
	return readError(resp)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	return resp, nil
}

func readError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

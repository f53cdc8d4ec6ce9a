package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

var (
	ErrFetch   = errors.New("failed to scrape content from the provided URL")
	ErrDecode  = errors.New("failed to process file")
	ErrNoInput = errors.New("no input provided")
)

// Input is one submission. The first non-empty of URL, File and Text wins.
type Input struct {
	Text     string
	URL      string
	FileName string
	File     io.Reader
}

type Acquirer struct {
	HTTP *http.Client
	Log  logrus.FieldLogger
}

func NewAcquirer(timeout time.Duration, log logrus.FieldLogger) *Acquirer {
	return &Acquirer{
		HTTP: &http.Client{Timeout: timeout},
		Log:  log,
	}
}

// Acquire turns an input into the text handed to extraction.
func (a *Acquirer) Acquire(ctx context.Context, in Input) (string, error) {
	text := in.Text
	switch {
	case strings.TrimSpace(in.URL) != "":
		scraped, err := a.Fetch(ctx, strings.TrimSpace(in.URL))
		if err != nil {
			a.Log.WithError(err).WithField("url", in.URL).Warn("scrape failed")
			return "", ErrFetch
		}
		text = scraped
	case in.File != nil:
		decoded, err := DecodeFile(in.FileName, in.File)
		if err != nil {
			return "", err
		}
		text = decoded
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrNoInput
	}
	return text, nil
}

// Fetch downloads a page and returns the visible text of its body.
func (a *Acquirer) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("source: build request: %w", err)
	}
	req.Header.Set("User-Agent", "annuaire-import/1.0")

	resp, err := a.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("source: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("source: fetch %s: status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("source: parse %s: %w", url, err)
	}
	return PageText(doc), nil
}

// PageText returns the body text with scripts and styles removed, one block per line.
func PageText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, template").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	var lines []string
	for _, line := range strings.Split(body.Text(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// DecodeFile reads an uploaded file. Spreadsheets become a JSON array of row objects,
// anything else must be UTF-8 text.
func DecodeFile(name string, r io.Reader) (string, error) {
	var (
		table Table
		err   error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		table, err = ReadCSV(r)
	case ".xlsx":
		table, err = ReadXLSX(r)
	default:
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrDecode, err)
		}
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrDecode, name)
		}
		return string(data), nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	out, err := table.JSON()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return out, nil
}

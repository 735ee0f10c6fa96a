// Package openparlamento fetches biographical person records from the
// OpenParlamento API and hands them to the pipeline or saves them to disk.
package openparlamento

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/politia/politia/internal/errors"
	"github.com/politia/politia/internal/pipeline"
)

// DefaultBaseURL is the versioned API root for the current legislature.
const DefaultBaseURL = "https://service.opdm.openpolis.io/api-openparlamento/v1/19"

// ErrAPIUnavailable signals that the API answered with an unexpected status.
var ErrAPIUnavailable = errors.NewSentinel("openparlamento api unavailable")

// IngestFunc consumes one fetched person record with its raw payload.
type IngestFunc func(ctx context.Context, record *pipeline.PersonRecord, raw json.RawMessage) error

// Fetcher walks the paginated persons listing and fetches each person's detail
// record.
type Fetcher struct {
	client  *http.Client
	baseURL string
	delay   time.Duration
	logger  *slog.Logger
}

func NewFetcher(baseURL string, delay time.Duration, logger *slog.Logger) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		delay:   delay,
		logger:  logger.With("source", "openparlamento.Fetcher"),
	}
}

// listPage is one page of the persons listing. Next is nil on the last page.
type listPage struct {
	Next    *string       `json:"next"`
	Results []listSummary `json:"results"`
}

type listSummary struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

// FetchAllPersons walks the listing and fetches every person's detail record,
// passing each to ingest. Persons that fail to fetch or ingest are logged and
// skipped; a listing page failure ends the walk early with the summaries
// gathered so far. It returns the number of records successfully ingested.
func (f *Fetcher) FetchAllPersons(ctx context.Context, ingest IngestFunc) (int, error) {
	summaries, err := f.listPersons(ctx)
	if err != nil {
		return 0, err
	}
	f.logger.LogAttrs(ctx, slog.LevelInfo, "person listing fetched", slog.Int("persons", len(summaries)))

	count := 0
	for i, summary := range summaries {
		if err = ctx.Err(); err != nil {
			return count, errors.Wrap(err, "person fetch cancelled")
		}
		detailURL := summary.URL
		if detailURL == "" {
			f.logger.LogAttrs(ctx, slog.LevelWarn, "person summary without detail url",
				slog.Int("id", summary.ID))
			continue
		}

		record, raw, err := f.fetchPerson(ctx, detailURL)
		if err != nil {
			f.logger.LogAttrs(ctx, slog.LevelError, "failed to fetch person detail",
				slog.String("url", detailURL), errors.SlogError(err))
			continue
		}
		if err = ingest(ctx, record, raw); err != nil {
			f.logger.LogAttrs(ctx, slog.LevelError, "failed to ingest person",
				slog.Int("id", record.ID), errors.SlogError(err))
			continue
		}
		count++
		if count%50 == 0 {
			f.logger.LogAttrs(ctx, slog.LevelInfo, "person fetch progress",
				slog.Int("processed", i+1), slog.Int("total", len(summaries)))
		}
		if i < len(summaries)-1 {
			if err = f.pause(ctx); err != nil {
				return count, err
			}
		}
	}
	f.logger.LogAttrs(ctx, slog.LevelInfo, "person fetch finished", slog.Int("ingested", count))
	return count, nil
}

// listPersons follows the paginated listing via its next cursor. A page failure
// after the first is logged and truncates the walk instead of failing it.
func (f *Fetcher) listPersons(ctx context.Context) ([]listSummary, error) {
	var summaries []listSummary
	pageURL := f.baseURL + "/persons/?page=1"
	for pageNum := 1; pageURL != ""; pageNum++ {
		payload, err := f.get(ctx, pageURL)
		if err != nil {
			if pageNum == 1 {
				return nil, err
			}
			f.logger.LogAttrs(ctx, slog.LevelError, "failed to fetch listing page, continuing with partial listing",
				slog.Int("page", pageNum), errors.SlogError(err))
			break
		}
		var page listPage
		if err = json.Unmarshal(payload, &page); err != nil {
			return nil, errors.Wrap(err, "unmarshal listing page", slog.String("url", pageURL))
		}
		summaries = append(summaries, page.Results...)
		f.logger.LogAttrs(ctx, slog.LevelDebug, "listing page fetched",
			slog.Int("page", pageNum), slog.Int("persons", len(page.Results)))

		pageURL = ""
		if page.Next != nil {
			pageURL = *page.Next
			if err = f.pause(ctx); err != nil {
				return nil, err
			}
		}
	}
	return summaries, nil
}

// FetchPersonByID fetches one person's detail record.
func (f *Fetcher) FetchPersonByID(ctx context.Context, personID int) (*pipeline.PersonRecord, json.RawMessage, error) {
	return f.fetchPerson(ctx, fmt.Sprintf("%s/persons/%d/", f.baseURL, personID))
}

func (f *Fetcher) fetchPerson(ctx context.Context, url string) (*pipeline.PersonRecord, json.RawMessage, error) {
	payload, err := f.get(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	var record pipeline.PersonRecord
	if err = json.Unmarshal(payload, &record); err != nil {
		return nil, nil, errors.Wrap(err, "unmarshal person detail", slog.String("url", url))
	}
	return &record, payload, nil
}

// CheckHealth verifies the listing endpoint answers.
func (f *Fetcher) CheckHealth(ctx context.Context) error {
	_, err := f.get(ctx, f.baseURL+"/persons/?page=1")
	return err
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request", slog.String("url", url))
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed", slog.String("url", url))
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrap(ErrAPIUnavailable, "unexpected status",
			slog.String("url", url), slog.Int("status", resp.StatusCode))
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response", slog.String("url", url))
	}
	return payload, nil
}

func (f *Fetcher) pause(ctx context.Context) error {
	if f.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "fetch cancelled")
	}
}

// SavePersonFile writes one raw person payload under its canonical name,
// "<family>__<given>_openparlamento.json", and returns the full path.
func SavePersonFile(dir string, record *pipeline.PersonRecord, raw json.RawMessage) (string, error) {
	familyName := record.FamilyName
	if familyName == "" {
		familyName = "Unknown"
	}
	givenName := record.GivenName
	if givenName == "" {
		givenName = "Unknown"
	}
	name := sanitizeFileName(fmt.Sprintf("%s__%s_openparlamento.json", familyName, givenName))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", errors.Wrap(err, "write person file", slog.String("path", path))
	}
	return path, nil
}

func sanitizeFileName(name string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(name)
}

// Package camera fetches stenographic transcripts of Camera dei Deputati
// sittings and converts them into transcript units for the pipeline.
package camera

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/politia/politia/internal/errors"
	"github.com/politia/politia/internal/pipeline"
)

const defaultBaseURL = "https://documenti.camera.it/apps/commonServices/getDocumento.ashx"

// ErrNoTranscript signals that a sitting has no usable transcript: either the
// document lacks a <seduta> element or it contains no debates. Such sittings
// are skipped, not retried.
var ErrNoTranscript = errors.NewSentinel("no transcript for sitting")

// Fetcher downloads sitting transcripts from the Camera document service.
// It implements discovery.Prober via SessionExists.
type Fetcher struct {
	client      *http.Client
	baseURL     string
	legislature int
	delay       time.Duration
	logger      *slog.Logger
}

func NewFetcher(legislature int, delay time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client:      &http.Client{Timeout: 30 * time.Second},
		baseURL:     defaultBaseURL,
		legislature: legislature,
		delay:       delay,
		logger:      logger.With("source", "camera.Fetcher"),
	}
}

func (f *Fetcher) sessionURL(sessionNumber int) string {
	return fmt.Sprintf(
		"%s?sezione=assemblea&tipoDoc=formato_xml&tipologia=stenografico&idNumero=%04d&idLegislatura=%d",
		f.baseURL, sessionNumber, f.legislature)
}

// FetchSession downloads and parses one sitting. It returns ErrNoTranscript
// when the service answers but the document carries no debates.
func (f *Fetcher) FetchSession(ctx context.Context, sessionNumber int) (*pipeline.TranscriptUnit, error) {
	url := f.sessionURL(sessionNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build sitting request", slog.String("url", url))
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch sitting", slog.Int("sessionNumber", sessionNumber))
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrap(ErrNoTranscript, "unexpected status",
			slog.Int("sessionNumber", sessionNumber), slog.Int("status", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "parse sitting document", slog.Int("sessionNumber", sessionNumber))
	}
	return f.parseDocument(ctx, doc, sessionNumber)
}

// parseDocument walks the stenographic XML. The document goes through an HTML
// parser, which lowercases element and attribute names, so every selector and
// attribute below is lowercase.
func (f *Fetcher) parseDocument(ctx context.Context, doc *goquery.Document, sessionNumber int) (*pipeline.TranscriptUnit, error) {
	seduta := doc.Find("seduta").First()
	if seduta.Length() == 0 {
		f.logger.LogAttrs(ctx, slog.LevelWarn, "sitting document has no seduta element",
			slog.Int("sessionNumber", sessionNumber))
		return nil, errors.Wrap(ErrNoTranscript, "missing seduta element",
			slog.Int("sessionNumber", sessionNumber))
	}

	unit := pipeline.TranscriptUnit{
		Legislature:   intAttrOr(seduta, "legislatura", f.legislature),
		SessionNumber: intAttrOr(seduta, "numero", sessionNumber),
		Contents:      map[string][]pipeline.Intervention{},
	}
	date := seduta.AttrOr("data", seduta.AttrOr("dataseduta", ""))
	if _, err := time.Parse("2006-01-02", date); err == nil {
		unit.Date = date
	}

	doc.Find("dibattito").Each(func(_ int, dibattito *goquery.Selection) {
		title := strings.TrimSpace(dibattito.Find("titolo").First().Text())
		if title == "" {
			return
		}
		interventions := gatherInterventions(dibattito)
		if len(interventions) > 0 {
			unit.Contents[title] = interventions
		}
	})
	if len(unit.Contents) == 0 {
		f.logger.LogAttrs(ctx, slog.LevelWarn, "sitting document has no debates",
			slog.Int("sessionNumber", sessionNumber))
		return nil, errors.Wrap(ErrNoTranscript, "no debates",
			slog.Int("sessionNumber", sessionNumber))
	}
	return &unit, nil
}

// gatherInterventions collects the interventions directly under a debate, descending
// into procedural <fase> wrappers in document order.
func gatherInterventions(parent *goquery.Selection) []pipeline.Intervention {
	var interventions []pipeline.Intervention
	parent.Children().Each(func(_ int, child *goquery.Selection) {
		switch goquery.NodeName(child) {
		case "intervento":
			if intervention, ok := parseIntervention(child); ok {
				interventions = append(interventions, intervention)
			}
		case "fase":
			interventions = append(interventions, gatherInterventions(child)...)
		}
	})
	return interventions
}

func parseIntervention(intervento *goquery.Selection) (pipeline.Intervention, bool) {
	speaker := "Unknown"
	if nominativo := intervento.Find("nominativo").First(); nominativo.Length() > 0 {
		speaker = nominativo.AttrOr("cognomenome", speaker)
	}

	var blocks []string
	if testo := intervento.Find("testoxhtml").First(); testo.Length() > 0 {
		blocks = append(blocks, strings.TrimSpace(testo.Text()))
	}
	intervento.Find("interventovirtuale").Each(func(_ int, iv *goquery.Selection) {
		blocks = append(blocks, iv.Text())
	})

	text := strings.TrimSpace(strings.Join(blocks, "\n"))
	if text == "" {
		return pipeline.Intervention{}, false
	}
	return pipeline.Intervention{Speaker: speaker, Text: text}, true
}

// SessionExists probes the document service with a HEAD request.
func (f *Fetcher) SessionExists(ctx context.Context, sessionNumber int) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, f.sessionURL(sessionNumber), nil)
	if err != nil {
		return false, errors.Wrap(err, "build probe request", slog.Int("sessionNumber", sessionNumber))
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return false, errors.Wrap(err, "probe sitting", slog.Int("sessionNumber", sessionNumber))
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK, nil
}

// FetchRange downloads the sittings start..end inclusive into dir, skipping
// numbers present in skip and files already on disk. It returns the number of
// sittings saved. Individual failures are logged and skipped.
func (f *Fetcher) FetchRange(ctx context.Context, dir string, start, end int, skip map[int]bool) (int, error) {
	count := 0
	for sessionNumber := start; sessionNumber <= end; sessionNumber++ {
		if err := ctx.Err(); err != nil {
			return count, errors.Wrap(err, "sitting fetch cancelled")
		}
		if skip[sessionNumber] {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, pipeline.UnitFileName(f.legislature, sessionNumber))); err == nil {
			f.logger.LogAttrs(ctx, slog.LevelDebug, "sitting already downloaded",
				slog.Int("sessionNumber", sessionNumber))
			continue
		}

		unit, err := f.FetchSession(ctx, sessionNumber)
		if err != nil {
			level := slog.LevelError
			if errors.Is(err, ErrNoTranscript) {
				level = slog.LevelDebug
			}
			f.logger.LogAttrs(ctx, level, "sitting not fetched",
				slog.Int("sessionNumber", sessionNumber), errors.SlogError(err))
		} else {
			path, err := pipeline.WriteUnitFile(dir, unit)
			if err != nil {
				return count, err
			}
			count++
			f.logger.LogAttrs(ctx, slog.LevelInfo, "saved sitting",
				slog.Int("sessionNumber", sessionNumber), slog.String("path", path))
		}

		if sessionNumber < end && f.delay > 0 {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return count, errors.Wrap(ctx.Err(), "sitting fetch cancelled")
			}
		}
	}
	f.logger.LogAttrs(ctx, slog.LevelInfo, "sitting range fetched",
		slog.Int("start", start), slog.Int("end", end), slog.Int("saved", count))
	return count, nil
}

func intAttrOr(s *goquery.Selection, attr string, fallback int) int {
	if value, ok := s.Attr(attr); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

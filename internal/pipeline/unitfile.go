package pipeline

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/politia/politia/internal/errors"
)

// ErrRecordParse signals a malformed source record or file. It is fatal to that
// record only; batch processing catches it and continues.
var ErrRecordParse = errors.NewSentinel("record parse failure")

// unitFile is the on-disk JSON shape of a transcript unit. The numeric fields
// are strings because they come straight from XML attributes upstream.
type unitFile struct {
	Legislature   string                    `json:"legislature"`
	SessionNumber string                    `json:"session_number"`
	Date          *string                   `json:"date"`
	Contents      map[string][]Intervention `json:"contents"`
}

// UnitFileName is the canonical file name for a transcript unit, e.g. "19__347.json".
func UnitFileName(legislature, sessionNumber int) string {
	return fmt.Sprintf("%d__%d.json", legislature, sessionNumber)
}

// WriteUnitFile saves a transcript unit under its canonical name in dir and
// returns the full path.
func WriteUnitFile(dir string, unit *TranscriptUnit) (string, error) {
	file := unitFile{
		Legislature:   strconv.Itoa(unit.Legislature),
		SessionNumber: strconv.Itoa(unit.SessionNumber),
		Contents:      unit.Contents,
	}
	if unit.Date != "" {
		file.Date = &unit.Date
	}
	payload, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshal transcript unit")
	}
	path := filepath.Join(dir, UnitFileName(unit.Legislature, unit.SessionNumber))
	if err = os.WriteFile(path, payload, 0o644); err != nil {
		return "", errors.Wrap(err, "write transcript unit", slog.String("path", path))
	}
	return path, nil
}

// ReadUnitFile loads a transcript unit. The (legislature, session number) key
// comes from the file name stem, e.g. "19__347.json", with the payload fields as
// fallback.
func ReadUnitFile(path string) (*TranscriptUnit, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read transcript unit", slog.String("path", path))
	}

	var file unitFile
	if err = json.Unmarshal(payload, &file); err != nil {
		return nil, errors.Wrap(ErrRecordParse, "unmarshal transcript unit",
			slog.String("path", path), slog.String("cause", err.Error()))
	}

	unit := TranscriptUnit{Contents: file.Contents}
	if file.Date != nil {
		unit.Date = *file.Date
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if legislature, sessionNumber, ok := parseUnitStem(stem); ok {
		unit.Legislature, unit.SessionNumber = legislature, sessionNumber
	} else {
		if unit.Legislature, err = strconv.Atoi(file.Legislature); err != nil {
			return nil, errors.Wrap(ErrRecordParse, "parse legislature", slog.String("path", path))
		}
		if unit.SessionNumber, err = strconv.Atoi(file.SessionNumber); err != nil {
			return nil, errors.Wrap(ErrRecordParse, "parse session number", slog.String("path", path))
		}
	}
	return &unit, nil
}

func parseUnitStem(stem string) (legislature, sessionNumber int, ok bool) {
	parts := strings.SplitN(stem, "__", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	var err error
	if legislature, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, false
	}
	if sessionNumber, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, false
	}
	return legislature, sessionNumber, true
}

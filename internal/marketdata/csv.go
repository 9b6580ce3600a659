package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/antoniolpaulos/stoxx50-trade-filter-sub002/internal/models"
)

// CSVSource reads daily bars from a local CSV file with a header row of
// date,open,high,low,close. High and low may be empty for days where the
// feed only delivered open and close.
type CSVSource struct {
	Path string
}

// Bars implements Source. Only rows inside [start, end] are returned.
func (c *CSVSource) Bars(_ context.Context, start, end time.Time) ([]models.PriceBar, error) {
	f, err := os.Open(c.Path) // #nosec G304 -- path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("opening bar file: %w", err)
	}
	defer f.Close()

	bars, err := parseBars(f, start, end)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", c.Path, err)
	}
	return bars, nil
}

func parseBars(r io.Reader, start, end time.Time) ([]models.PriceBar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 5
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if strings.ToLower(strings.TrimSpace(header[0])) != "date" {
		return nil, fmt.Errorf("unexpected header %q, want date,open,high,low,close", strings.Join(header, ","))
	}

	start, end = normalizeDate(start), normalizeDate(end)
	var bars []models.PriceBar
	line := 1
	for {
		line++
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		bar, err := parseBarRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if bar.Date.Before(start) || bar.Date.After(end) {
			continue
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseBarRecord(rec []string) (models.PriceBar, error) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(rec[0]))
	if err != nil {
		return models.PriceBar{}, fmt.Errorf("bad date %q: %w", rec[0], err)
	}

	open, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
	if err != nil {
		return models.PriceBar{}, fmt.Errorf("bad open %q: %w", rec[1], err)
	}
	closePx, err := strconv.ParseFloat(strings.TrimSpace(rec[4]), 64)
	if err != nil {
		return models.PriceBar{}, fmt.Errorf("bad close %q: %w", rec[4], err)
	}

	bar := models.PriceBar{Date: date, Open: open, Close: closePx}

	highStr, lowStr := strings.TrimSpace(rec[2]), strings.TrimSpace(rec[3])
	if highStr != "" && lowStr != "" {
		high, err := strconv.ParseFloat(highStr, 64)
		if err != nil {
			return models.PriceBar{}, fmt.Errorf("bad high %q: %w", rec[2], err)
		}
		low, err := strconv.ParseFloat(lowStr, 64)
		if err != nil {
			return models.PriceBar{}, fmt.Errorf("bad low %q: %w", rec[3], err)
		}
		bar.High, bar.Low, bar.HasIntraday = high, low, true
	}
	return bar, nil
}

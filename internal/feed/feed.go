package feed

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"marketplace-sync-service/internal/clients"
)

// The supplier workbook carries 17 rows of preamble; row 18 is the header.
const headerRowOffset = 17

// Column headers in the supplier workbook
const (
	codeColumn     = "Код"
	quantityColumn = "Количество"
	priceColumn    = "Цена"
)

// Remnant is one row of the supplier stock feed. Quantity and Price keep the
// feed's raw string encoding; normalization happens during reconciliation.
type Remnant struct {
	Code     string
	Quantity string
	Price    string
}

// Fetcher downloads and parses the supplier stock feed
type Fetcher struct {
	httpClient *http.Client
	feedURL    string
}

// NewFetcher creates a fetcher for the given feed archive URL
func NewFetcher(feedURL string) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		feedURL:    feedURL,
	}
}

// Fetch downloads the zipped workbook, extracts it and returns its rows.
// The extracted file lives in a temp dir that is removed before returning,
// on parse failure as well.
func (f *Fetcher) Fetch(ctx context.Context) ([]Remnant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.feedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &clients.StatusError{Status: resp.StatusCode, URL: f.feedURL, Body: string(body)}
	}

	archive, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to download feed archive: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "stock-feed-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	workbook, err := extractWorkbook(archive, tmpDir)
	if err != nil {
		return nil, err
	}

	return parseWorkbook(workbook)
}

// extractWorkbook unpacks the first spreadsheet in the archive into dir and
// returns its path
func extractWorkbook(archive []byte, dir string) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return "", fmt.Errorf("failed to open feed archive: %w", err)
	}

	for _, file := range reader.File {
		if file.FileInfo().IsDir() || !strings.HasSuffix(file.Name, ".xlsx") {
			continue
		}

		src, err := file.Open()
		if err != nil {
			return "", err
		}
		defer src.Close()

		path := filepath.Join(dir, filepath.Base(file.Name))
		dst, err := os.Create(path)
		if err != nil {
			return "", err
		}
		defer dst.Close()

		if _, err := io.Copy(dst, src); err != nil {
			return "", fmt.Errorf("failed to extract %s: %w", file.Name, err)
		}
		return path, nil
	}

	return "", fmt.Errorf("feed archive contains no spreadsheet")
}

// parseWorkbook reads the stock sheet into remnant records, addressing
// columns by their header names
func parseWorkbook(path string) ([]Remnant, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) <= headerRowOffset {
		return nil, fmt.Errorf("sheet %s has no header row", sheets[0])
	}

	columns := make(map[string]int)
	for i, name := range rows[headerRowOffset] {
		columns[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{codeColumn, quantityColumn, priceColumn} {
		if _, ok := columns[required]; !ok {
			return nil, &clients.ParseError{Field: "header", Value: required}
		}
	}

	var remnants []Remnant
	for _, row := range rows[headerRowOffset+1:] {
		code := cell(row, columns[codeColumn])
		if code == "" {
			continue
		}
		remnants = append(remnants, Remnant{
			Code:     code,
			Quantity: cell(row, columns[quantityColumn]),
			Price:    cell(row, columns[priceColumn]),
		})
	}
	return remnants, nil
}

func cell(row []string, index int) string {
	if index < len(row) {
		return strings.TrimSpace(row[index])
	}
	return ""
}

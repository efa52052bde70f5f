package store

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"bidwatch/internal/logging"
)

// compressionMarkers maps leading magic bytes to the block-compression
// scheme they indicate. The embedded engine only ingests plain text, so any
// of these is rejected up front with the scheme named in the error.
var compressionMarkers = []struct {
	magic  []byte
	scheme string
}{
	{[]byte{0x1f, 0x8b}, "gzip"},
	{[]byte{0x28, 0xb5, 0x2f, 0xfd}, "zstd"},
	{[]byte("BZh"), "bzip2"},
	{[]byte{0xfd, '7', 'z', 'X', 'Z', 0x00}, "xz"},
	{[]byte("PK\x03\x04"), "zip"},
	{[]byte{0xff, 0x06, 0x00, 0x00, 's', 'N', 'a', 'P', 'p', 'Y'}, "snappy"},
}

// columnAliases maps normalized CSV header names to contract fields. Export
// tools disagree on header spelling, so each field accepts several aliases.
var columnAliases = map[string]string{
	"award_id":          "award_id",
	"id":                "award_id",
	"award_no":          "award_id",
	"reference_id":      "reference_id",
	"ref_id":            "reference_id",
	"refid":             "reference_id",
	"award_title":       "award_title",
	"title":             "award_title",
	"notice_title":      "award_title",
	"awardee":           "awardee",
	"awardee_name":      "awardee",
	"supplier":          "awardee",
	"organization":      "organization",
	"organization_name": "organization",
	"org_name":          "organization",
	"procuring_entity":  "organization",
	"area":              "area",
	"area_of_delivery":  "area",
	"delivery_area":     "area",
	"category":          "category",
	"business_category": "category",
	"amount":            "amount",
	"contract_amount":   "amount",
	"contract_amt":      "amount",
	"award_amount":      "amount",
	"award_date":        "award_date",
	"date":              "award_date",
	"publish_date":      "award_date",
	"status":            "status",
	"award_status":      "status",
}

// LoadDataset ingests the CSV file at path, replacing any previously loaded
// dataset, and returns the number of rows stored. Compressed or unreadable
// input fails with a *DataLoadError.
func (s *Store) LoadDataset(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, &DataLoadError{Reason: fmt.Sprintf("open %s: %v", path, err)}
	}
	defer f.Close()

	n, err := s.LoadReader(f)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	if s.watcher != nil {
		s.watcher.stop()
		s.watcher = nil
	}
	s.mu.Unlock()

	return n, nil
}

// LoadReader ingests CSV data from r, replacing any previously loaded
// dataset. The first bytes are sniffed for block-compression markers before
// any parsing happens.
func (s *Store) LoadReader(r io.Reader) (int, error) {
	timer := logging.StartTimer(logging.CategoryStore, "LoadReader")
	defer timer.Stop()

	br := bufio.NewReaderSize(r, 64<<10)
	if scheme := sniffCompression(br); scheme != "" {
		logging.StoreError("rejected %s-compressed dataset", scheme)
		return 0, &DataLoadError{
			Encoding: scheme,
			Reason:   "the embedded engine cannot decode block-compressed files",
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1 // tolerate ragged rows; they are skipped below

	header, err := reader.Read()
	if err != nil {
		return 0, &DataLoadError{Reason: fmt.Sprintf("read header: %v", err)}
	}
	columns, err := mapHeader(header)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin ingest transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM contracts"); err != nil {
		return 0, fmt.Errorf("clear previous dataset: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO contracts (award_id, reference_id, award_title, awardee, organization, area, category, amount, award_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted, skipped := 0, 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		c, ok := recordToContract(record, columns)
		if !ok {
			skipped++
			continue
		}
		if _, err := stmt.Exec(c.AwardID, c.ReferenceID, c.AwardTitle, c.Awardee,
			c.Organization, c.Area, c.Category, c.Amount, c.AwardDate, c.Status); err != nil {
			return 0, fmt.Errorf("insert row: %w", err)
		}
		inserted++
	}

	if inserted == 0 {
		return 0, &DataLoadError{Reason: fmt.Sprintf("no usable rows (%d skipped)", skipped)}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ingest: %w", err)
	}

	logging.Store("ingested %d rows (%d skipped)", inserted, skipped)
	return inserted, nil
}

// sniffCompression peeks at the buffered reader without consuming it and
// returns the matched scheme name, or "".
func sniffCompression(br *bufio.Reader) string {
	peek, _ := br.Peek(16)
	for _, m := range compressionMarkers {
		if bytes.HasPrefix(peek, m.magic) {
			return m.scheme
		}
	}
	return ""
}

// mapHeader resolves CSV columns to contract fields via the alias table.
// The award identifier and amount columns are mandatory.
func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int)
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(strings.Trim(raw, "\uFEFF")))
		name = strings.ReplaceAll(name, " ", "_")
		if field, ok := columnAliases[name]; ok {
			if _, dup := columns[field]; !dup {
				columns[field] = i
			}
		}
	}
	for _, required := range []string{"award_id", "amount"} {
		if _, ok := columns[required]; !ok {
			return nil, &DataLoadError{Reason: fmt.Sprintf("required column %q not found in header", required)}
		}
	}
	return columns, nil
}

// recordToContract converts one CSV record; rows missing the identifier or
// with an unparseable amount are skipped rather than failing the load.
func recordToContract(record []string, columns map[string]int) (Contract, bool) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	c := Contract{
		AwardID:      field("award_id"),
		ReferenceID:  field("reference_id"),
		AwardTitle:   field("award_title"),
		Awardee:      field("awardee"),
		Organization: field("organization"),
		Area:         field("area"),
		Category:     field("category"),
		AwardDate:    field("award_date"),
		Status:       field("status"),
	}
	if c.AwardID == "" {
		return Contract{}, false
	}

	rawAmount := strings.ReplaceAll(field("amount"), ",", "")
	if rawAmount == "" {
		return Contract{}, false
	}
	amount, err := strconv.ParseFloat(rawAmount, 64)
	if err != nil {
		return Contract{}, false
	}
	c.Amount = amount
	return c, true
}

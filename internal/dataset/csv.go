// Package dataset loads chat transcripts from exported CSV files.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/chatlens/chatlens/internal/transcript"
)

// Row represents a single CSV row with column name to value mapping.
type Row map[string]string

// Expected transcript export columns. conversation_id groups rows into
// conversations; rows within a conversation keep file order.
const (
	ColumnConversationID = "conversation_id"
	ColumnRole           = "role"
	ColumnMessage        = "message"
)

// LoadCSV reads a CSV file and returns rows as maps of column to value.
// The first row is treated as headers (column names).
func LoadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %s: %w", path, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("csv: %s is empty (no header row)", path)
	}

	headers := records[0]
	rows := make([]Row, 0, len(records)-1)

	for i, record := range records[1:] {
		if len(record) != len(headers) {
			return nil, fmt.Errorf("csv: row %d has %d columns, expected %d", i+2, len(record), len(headers))
		}
		row := make(Row, len(headers))
		for j, h := range headers {
			row[h] = record[j]
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// LoadTranscripts reads a transcript export and groups its rows into
// conversations by conversation_id, preserving row order within each
// conversation and the order in which conversations first appear.
func LoadTranscripts(path string) ([]transcript.Transcript, error) {
	rows, err := LoadCSV(path)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*transcript.Transcript)
	var order []string

	for i, row := range rows {
		id := row[ColumnConversationID]
		if id == "" {
			return nil, fmt.Errorf("csv: row %d missing %s", i+2, ColumnConversationID)
		}

		role, err := transcript.ParseRole(row[ColumnRole])
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: %w", i+2, err)
		}

		tr, ok := byID[id]
		if !ok {
			tr = &transcript.Transcript{ID: id}
			byID[id] = tr
			order = append(order, id)
		}
		tr.Messages = append(tr.Messages, transcript.Message{
			Role:    role,
			Content: row[ColumnMessage],
		})
	}

	transcripts := make([]transcript.Transcript, 0, len(order))
	for _, id := range order {
		tr := byID[id]
		if err := tr.Validate(); err != nil {
			return nil, fmt.Errorf("csv: conversation %q: %w", id, err)
		}
		transcripts = append(transcripts, *tr)
	}

	return transcripts, nil
}

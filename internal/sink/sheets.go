// Package sink appends finished briefs to a durable tabular store. Downstream
// consumers read columns by position, so the row layout is a versioned
// contract, not an implementation detail.
package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/jonathan/shorts-planner/internal/brief"
)

// RowVersion documents the column order contract below. Bump it whenever the
// order changes so spreadsheet readers can tell layouts apart.
//
// v1: timestamp, titleEnglish, titleLocal, primaryPrompt, secondaryPrompt,
// scriptEnglish, scriptLocal, tags (space-joined), comment, sourceURL, status.
const RowVersion = 1

// statusUnpublished marks a freshly appended row; a human flips it after the
// short is actually posted.
const statusUnpublished = "unpublished"

// Sink accepts one finished row. Implementations must append atomically;
// the pipeline neither batches nor deduplicates rows.
type Sink interface {
	Append(ctx context.Context, row []string) error
}

// BuildRow flattens a brief into the fixed v1 column order.
func BuildRow(b *brief.CreativeBrief, media brief.SourceMedia, now time.Time) []string {
	return []string{
		now.Format("2006-01-02 15:04"),
		b.TitleEnglish,
		b.TitleLocal,
		b.PrimaryPrompt,
		b.SecondaryPrompt,
		b.ScriptEnglish,
		b.ScriptLocal,
		strings.Join(b.Tags, " "),
		b.Comment,
		media.URL(),
		statusUnpublished,
	}
}

// SheetsSink appends rows to a Google Sheet.
type SheetsSink struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsSink creates a sink writing to the named sheet of a spreadsheet,
// authenticated with a service account credentials file.
func NewSheetsSink(ctx context.Context, credentialsFile, spreadsheetID, sheetName string) (*SheetsSink, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is required")
	}
	if sheetName == "" {
		sheetName = "Sheet1"
	}

	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets client: %w", err)
	}
	return &SheetsSink{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// Append adds one row after the sheet's current data. The call is a single
// values.append, which the API applies atomically.
func (s *SheetsSink) Append(ctx context.Context, row []string) error {
	values := make([]any, len(row))
	for i, cell := range row {
		values[i] = cell
	}

	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.sheetName, &sheets.ValueRange{Values: [][]any{values}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheet append failed: %w", err)
	}
	return nil
}

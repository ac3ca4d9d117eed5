package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

var spreadsheetURL = regexp.MustCompile(`/d/([a-zA-Z0-9-_]+)`)

// ParseSpreadsheetID accepts either a bare spreadsheet id or a full
// docs.google.com URL and returns the id.
func ParseSpreadsheetID(value string) string {
	value = strings.TrimSpace(value)
	if m := spreadsheetURL.FindStringSubmatch(value); len(m) == 2 {
		return m[1]
	}
	return value
}

// SheetsConfig carries the settings the Sheets driver needs.
type SheetsConfig struct {
	SpreadsheetID   string
	CredentialsFile string
	CredentialsJSON string
}

// Sheets stores each collection as a tab of one Google spreadsheet.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	logger        *zap.Logger

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// NewSheets authenticates with a service account and returns the driver.
// Without explicit credentials it falls back to Application Default
// Credentials.
func NewSheets(ctx context.Context, cfg SheetsConfig, logger *zap.Logger) (*Sheets, error) {
	id := ParseSpreadsheetID(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("spreadsheet id is required")
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		if _, err := os.Stat(cfg.CredentialsFile); err != nil {
			return nil, fmt.Errorf("credentials file: %w", err)
		}
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}

	return newSheets(svc, id, logger), nil
}

func newSheets(svc *sheets.Service, spreadsheetID string, logger *zap.Logger) *Sheets {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sheets{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger,
		sheetIDs:      make(map[string]int64),
	}
}

func (s *Sheets) ReadAllRows(ctx context.Context, collection string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quoteSheet(collection)).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, translate(err, collection)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// AppendRow adds row at the end of the collection, creating the tab first
// when the spreadsheet does not have it yet.
func (s *Sheets) AppendRow(ctx context.Context, collection string, row []string) error {
	err := s.appendRow(ctx, collection, row)
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := s.addSheet(ctx, collection); err != nil {
		return err
	}
	return s.appendRow(ctx, collection, row)
}

func (s *Sheets) appendRow(ctx context.Context, collection string, row []string) error {
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, quoteSheet(collection), valueRange(row)).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return translate(err, collection)
}

func (s *Sheets) addSheet(ctx context.Context, collection string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: collection},
			},
		}},
	}
	resp, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return translate(err, collection)
	}
	s.logger.Info("created sheet tab", zap.String("collection", collection))
	if len(resp.Replies) == 1 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		s.mu.Lock()
		s.sheetIDs[collection] = resp.Replies[0].AddSheet.Properties.SheetId
		s.mu.Unlock()
	}
	return nil
}

func (s *Sheets) ReplaceRow(ctx context.Context, collection string, index int, row []string) error {
	if index < 0 {
		return fmt.Errorf("%w: %s row %d", ErrNotFound, collection, index)
	}
	rng := fmt.Sprintf("%s!A%d", quoteSheet(collection), index+1)
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, valueRange(row)).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return translate(err, collection)
}

func (s *Sheets) DeleteRow(ctx context.Context, collection string, index int) error {
	if index < 0 {
		return fmt.Errorf("%w: %s row %d", ErrNotFound, collection, index)
	}
	sheetID, err := s.sheetID(ctx, collection)
	if err != nil {
		return err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(index),
					EndIndex:   int64(index + 1),
				},
			},
		}},
	}
	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	return translate(err, collection)
}

// Describe reports the spreadsheet title and its tab names.
func (s *Sheets) Describe(ctx context.Context) (Description, error) {
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("properties.title", "sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return Description{}, translate(err, "")
	}
	d := Description{Title: "untitled"}
	if ss.Properties != nil && ss.Properties.Title != "" {
		d.Title = ss.Properties.Title
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sh := range ss.Sheets {
		if sh.Properties == nil {
			continue
		}
		d.Collections = append(d.Collections, sh.Properties.Title)
		s.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
	}
	return d, nil
}

// sheetID resolves the numeric tab id needed by structural requests.
func (s *Sheets) sheetID(ctx context.Context, collection string) (int64, error) {
	s.mu.Lock()
	id, ok := s.sheetIDs[collection]
	s.mu.Unlock()
	if ok {
		return id, nil
	}
	if _, err := s.Describe(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok = s.sheetIDs[collection]
	if !ok {
		return 0, fmt.Errorf("%w: sheet %q", ErrNotFound, collection)
	}
	return id, nil
}

func valueRange(row []string) *sheets.ValueRange {
	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}
	return &sheets.ValueRange{MajorDimension: "ROWS", Values: [][]interface{}{values}}
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// translate maps Google API failures onto the backend error taxonomy.
func translate(err error, collection string) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusNotFound:
			return fmt.Errorf("%w: %s: %v", ErrNotFound, collection, err)
		case apiErr.Code == http.StatusBadRequest && strings.Contains(apiErr.Message, "Unable to parse range"):
			return fmt.Errorf("%w: sheet %q: %v", ErrNotFound, collection, err)
		case apiErr.Code == http.StatusForbidden || apiErr.Code == http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrPermission, err)
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return err
}

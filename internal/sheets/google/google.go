package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"lifedash/internal/docstore"
	ports "lifedash/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// Ensure interface conformance
var (
	_ ports.DocumentMirror = (*Client)(nil)
	_ ports.TableReader    = (*Client)(nil)
)

// New wraps an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetIDs: map[string]int64{}}
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Auth: an OAuth client plus token (see OAuthConfigFromEnv), otherwise
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID), nil
}

// credentialsFromEnv returns the service account key from the environment.
func credentialsFromEnv() ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	httpClient, err := oauthClientFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		slog.InfoContext(ctx, "Creating Google Sheets service with OAuth user token")
		return gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
	}

	credentialsJSON, err := credentialsFromEnv()
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// quote makes a tab title safe to use in A1 notation.
func quote(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func (c *Client) ReadTable(ctx context.Context, rng string) ([][]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return toStrings(resp.Values), nil
}

// ensureSheet returns the numeric id of a tab, creating the tab when the
// spreadsheet does not have it yet.
func (c *Client) ensureSheet(ctx context.Context, title string) (int64, error) {
	c.mu.Lock()
	id, ok := c.sheetIDs[title]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			c.remember(title, sh.Properties.SheetId)
			return sh.Properties.SheetId, nil
		}
	}

	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{AddSheet: &gsheet.AddSheetRequest{
			Properties: &gsheet.SheetProperties{Title: title},
		}}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("add sheet %s: %w", title, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("add sheet %s: empty reply", title)
	}
	id = resp.Replies[0].AddSheet.Properties.SheetId
	c.remember(title, id)
	slog.InfoContext(ctx, "Created spreadsheet tab", "title", title, "sheet_id", id)
	return id, nil
}

func (c *Client) remember(title string, id int64) {
	c.mu.Lock()
	c.sheetIDs[title] = id
	c.mu.Unlock()
}

// MirrorDocument writes the document into the tab named after its
// collection, adding header columns for new fields and replacing the row
// that already carries the same id.
func (c *Client) MirrorDocument(ctx context.Context, doc docstore.Document) (string, error) {
	if err := docstore.ValidateCollection(doc.Collection); err != nil {
		return "", err
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if _, err := c.ensureSheet(ctx, doc.Collection); err != nil {
		return "", err
	}

	tab := quote(doc.Collection)
	values, err := c.ReadTable(ctx, tab)
	if err != nil {
		return "", err
	}
	var existing []string
	if len(values) > 0 {
		existing = values[0]
	}

	header := ports.Header(existing, doc)
	if ports.HeaderChanged(existing, header) {
		vr := &gsheet.ValueRange{Values: [][]any{toCells(header)}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, tab+"!A1", vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("write header of %s: %w", doc.Collection, err)
		}
	}

	vr := &gsheet.ValueRange{Values: [][]any{toCells(ports.Row(header, doc))}}
	if idx := ports.FindRow(values, doc.ID); idx > 0 {
		ref := fmt.Sprintf("%s!A%d", tab, idx+1)
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, ref, vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("update row %s: %w", ref, err)
		}
		return ref, nil
	}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, tab+"!A1", vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", doc.Collection, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return fmt.Sprintf("%s!A%d", tab, max(len(values), 1)+1), nil
}

// RemoveDocument deletes the row carrying id from the collection's tab.
func (c *Client) RemoveDocument(ctx context.Context, collection, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheetID, err := c.ensureSheet(ctx, collection)
	if err != nil {
		return err
	}
	values, err := c.ReadTable(ctx, quote(collection))
	if err != nil {
		return err
	}
	idx := ports.FindRow(values, id)
	if idx < 0 {
		slog.DebugContext(ctx, "Row already absent", "collection", collection, "id", id)
		return nil
	}

	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{DeleteDimension: &gsheet.DeleteDimensionRequest{
			Range: &gsheet.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "ROWS",
				StartIndex: int64(idx),
				EndIndex:   int64(idx + 1),
			},
		}}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete row %d of %s: %w", idx+1, collection, err)
	}
	return nil
}

func toStrings(in [][]any) [][]string {
	out := make([][]string, len(in))
	for i, row := range in {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func toCells(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

package sheets

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"lifedash/internal/docstore"
)

const (
	IDColumn        = "id"
	CreatedAtColumn = "created_at"
)

// Header extends an existing header row with the document's fields that are
// not yet present. A new header starts with the id and creation time; new
// field columns are appended in name order so earlier columns never move.
func Header(existing []string, doc docstore.Document) []string {
	out := make([]string, 0, len(existing)+len(doc.Fields)+2)
	seen := map[string]bool{}
	for _, h := range existing {
		h = strings.TrimSpace(h)
		out = append(out, h)
		seen[h] = true
	}
	for _, h := range []string{IDColumn, CreatedAtColumn} {
		if !seen[h] {
			out = append(out, h)
			seen[h] = true
		}
	}
	var missing []string
	for k := range doc.Fields {
		if !seen[k] {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return append(out, missing...)
}

// Row lays out a document under header. Columns the document has no value
// for are left empty.
func Row(header []string, doc docstore.Document) []string {
	row := make([]string, len(header))
	for i, h := range header {
		switch h {
		case IDColumn:
			row[i] = doc.ID
		case CreatedAtColumn:
			if !doc.CreatedAt.IsZero() {
				row[i] = doc.CreatedAt.UTC().Format(time.RFC3339)
			}
		default:
			row[i] = CellString(doc.Fields[h])
		}
	}
	return row
}

// CellString renders a field value for a spreadsheet cell. Nested values
// are written as JSON.
func CellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// FindRow returns the index of the row whose id column equals id, skipping
// the header row, or -1.
func FindRow(values [][]string, id string) int {
	if len(values) == 0 {
		return -1
	}
	col := indexOf(values[0], IDColumn)
	if col < 0 {
		return -1
	}
	for i := 1; i < len(values); i++ {
		if col < len(values[i]) && values[i][col] == id {
			return i
		}
	}
	return -1
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return i
		}
	}
	return -1
}

// HeaderChanged reports whether Header added columns to existing.
func HeaderChanged(existing, header []string) bool {
	return !slices.Equal(existing, header)
}

package google

import (
	"fmt"
	"strings"
	"time"

	"studentspend/internal/core"
)

// parseRoster turns a values matrix into header-keyed rows. Blank rows are
// skipped and cells beyond the header width are ignored.
func parseRoster(values [][]interface{}) []map[string]any {
	if len(values) == 0 {
		return nil
	}
	headers := toStrings(values[0])

	var out []map[string]any
	for _, raw := range values[1:] {
		if isBlank(raw) {
			continue
		}
		row := make(map[string]any, len(headers))
		for i, h := range headers {
			if h == "" || i >= len(raw) {
				continue
			}
			row[h] = raw[i]
		}
		out = append(out, row)
	}
	return out
}

func contactRow(m core.ContactMessage, receivedAt time.Time) []interface{} {
	return []interface{}{
		receivedAt.UTC().Format(time.RFC3339),
		strings.TrimSpace(m.Name),
		strings.TrimSpace(m.Email),
		m.Message,
	}
}

func isBlank(row []interface{}) bool {
	for _, v := range row {
		if strings.TrimSpace(fmt.Sprint(v)) != "" {
			return false
		}
	}
	return true
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

package engine

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"gradeflow/internal/feature"
	"gradeflow/internal/models"
)

// Format selects an export serialization.
type Format string

const (
	FormatTxt  Format = "txt"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatTxt:
		return FormatTxt, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported export format %q (txt, csv, json)", s)
}

// Render serializes result items into an export artifact. Pure and
// deterministic: identical inputs produce byte-identical output. With
// approvedOnly, only signed-off items (approved or edited) are included.
func Render(items []models.ResultItem, fields []feature.ExportField, format Format, approvedOnly bool) (string, error) {
	if approvedOnly {
		kept := make([]models.ResultItem, 0, len(items))
		for _, it := range items {
			if it.Status.SignedOff() {
				kept = append(kept, it)
			}
		}
		items = kept
	}

	switch format {
	case FormatTxt:
		return renderTxt(items, fields), nil
	case FormatCSV:
		return renderCSV(items, fields)
	case FormatJSON:
		return renderJSON(items, fields)
	}
	return "", fmt.Errorf("unsupported export format %q", format)
}

// renderTxt writes one block per item with a fixed field order, suitable
// for pasting into a gradebook.
func renderTxt(items []models.ResultItem, fields []feature.ExportField) string {
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, f := range fields {
			fmt.Fprintf(&b, "%s: %s\n", f.Name, f.Value(it))
		}
	}
	return b.String()
}

// renderCSV writes a header from the fixed field list plus one row per
// item. encoding/csv applies RFC 4180 quoting.
func renderCSV(items []models.ResultItem, fields []feature.ExportField) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)

	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, len(fields))
	for _, it := range items {
		for i, f := range fields {
			row[i] = f.Value(it)
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return b.String(), nil
}

// renderJSON writes an array of full item records with stable field names,
// suitable for archival round-trip.
func renderJSON(items []models.ResultItem, fields []feature.ExportField) (string, error) {
	records := make([]map[string]string, 0, len(items))
	for _, it := range items {
		rec := make(map[string]string, len(fields))
		for _, f := range fields {
			rec[f.Name] = f.Value(it)
		}
		records = append(records, rec)
	}

	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export: %w", err)
	}
	return string(out), nil
}

// RenderExport serializes the session's current results with the feature's
// export field contract.
func (s *Session) RenderExport(format Format, approvedOnly bool) (string, error) {
	return Render(s.store.Items(), s.feat.ExportFields, format, approvedOnly)
}

// RemoteExport fetches the backend-rendered artifact for the current job.
// On failure no partial artifact is returned.
func (s *Session) RemoteExport(ctx context.Context, format Format, approvedOnly bool) (string, error) {
	s.mu.Lock()
	job := s.job
	s.mu.Unlock()
	if job == nil || job.ID == "" {
		return "", ErrNoJob
	}
	artifact, err := s.backend.Export(ctx, job.ID, string(format), approvedOnly)
	if err != nil {
		return "", fmt.Errorf("fetch export: %w", err)
	}
	return artifact, nil
}

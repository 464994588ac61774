package engine

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradeflow/internal/feature"
	"gradeflow/internal/models"
)

func exportItems() []models.ResultItem {
	return []models.ResultItem{
		{Key: "AB", Name: "Alice", Content: "Great work", Status: models.StatusApproved, WordCount: 2},
		{Key: "CD", Name: "Chen, D.", Content: "Needs \"focus\", see notes\nand margins", Status: models.StatusReadyForReview, WordCount: 6},
		{Key: "EF", Name: "Eve", Content: "Solid improvement", Status: models.StatusEdited, WordCount: 2},
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"txt", "CSV", "Json"} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestRenderDeterministic(t *testing.T) {
	fields := feature.GradingFeedback.ExportFields
	for _, format := range []Format{FormatTxt, FormatCSV, FormatJSON} {
		a, err := Render(exportItems(), fields, format, false)
		require.NoError(t, err)
		b, err := Render(exportItems(), fields, format, false)
		require.NoError(t, err)
		assert.Equal(t, a, b, "two renders of identical input must be byte-identical (%s)", format)
	}
}

func TestApprovedOnlyIsSubset(t *testing.T) {
	fields := feature.GradingFeedback.ExportFields
	for _, format := range []Format{FormatTxt, FormatCSV, FormatJSON} {
		full, err := Render(exportItems(), fields, format, false)
		require.NoError(t, err)
		approved, err := Render(exportItems(), fields, format, true)
		require.NoError(t, err)

		// Signed-off items appear in both renderings.
		for _, key := range []string{"AB", "EF"} {
			assert.Contains(t, full, key, format)
			assert.Contains(t, approved, key, format)
		}
		// Non-approved items appear only in the full export.
		assert.Contains(t, full, "CD", format)
		assert.NotContains(t, approved, "CD", format)
	}
}

func TestCSVEscaping(t *testing.T) {
	out, err := Render(exportItems(), feature.GradingFeedback.ExportFields, FormatCSV, false)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err, "rendered csv must parse cleanly")
	require.Len(t, records, 4, "header plus one row per item")

	assert.Equal(t, []string{"student_id", "student", "feedback", "status", "words"}, records[0])
	assert.Equal(t, "Chen, D.", records[2][1], "embedded comma survives round-trip")
	assert.Equal(t, "Needs \"focus\", see notes\nand margins", records[2][2], "quotes and newline survive")
}

func TestJSONRoundTrip(t *testing.T) {
	out, err := Render(exportItems(), feature.GradingFeedback.ExportFields, FormatJSON, false)
	require.NoError(t, err)

	var records []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 3)

	keys := make(map[string]bool)
	for _, r := range records {
		keys[r["student_id"]] = true
	}
	assert.Equal(t, map[string]bool{"AB": true, "CD": true, "EF": true}, keys)
}

func TestEditThenExportScenario(t *testing.T) {
	fields := feature.GradingFeedback.ExportFields
	approved := []models.ResultItem{
		{Key: "AB", Name: "Alice", Content: "Great work", Status: models.StatusApproved, WordCount: 2},
	}

	out, err := Render(approved, fields, FormatTxt, true)
	require.NoError(t, err)
	assert.Contains(t, out, "Great work")

	// Same item not yet approved: approved-only export has zero entries.
	unapproved := []models.ResultItem{
		{Key: "AB", Name: "Alice", Content: "Great work", Status: models.StatusReadyForReview, WordCount: 2},
	}
	out, err = Render(unapproved, fields, FormatTxt, true)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRenderEmptyInputs(t *testing.T) {
	fields := feature.NarrativeSynthesis.ExportFields

	out, err := Render(nil, fields, FormatJSON, false)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)

	out, err = Render(nil, fields, FormatCSV, false)
	require.NoError(t, err)
	assert.Equal(t, "student_id,student,narrative,status,words\n", out)
}

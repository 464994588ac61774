// Package feature parameterizes the generation engine. A Feature supplies
// the data shapes a workflow works with: its step list, required setup
// fields, export column contract, and backend path segment. The engine
// itself carries no feature-specific logic.
package feature

import (
	"fmt"
	"strconv"

	"gradeflow/internal/models"
)

// StepKind drives gating and completion semantics for a workflow step.
// Features may rename or reorder steps; the controller switches on kind.
type StepKind string

const (
	StepSetup    StepKind = "setup"
	StepInput    StepKind = "input"
	StepGenerate StepKind = "generate"
	StepReview   StepKind = "review"
	StepExport   StepKind = "export"
)

// Step is one entry in a feature's ordered step list.
type Step struct {
	Name string
	Kind StepKind
}

// ExportField is one column in a feature's export contract. The field list
// is fixed per feature so exports have a stable column set, never inferred
// from result content.
type ExportField struct {
	Name  string
	Value func(models.ResultItem) string
}

// Feature binds one generation workflow: grading feedback or narrative
// synthesis. Both share the engine; only these shapes differ.
type Feature struct {
	Name          string // CLI identifier
	Title         string
	Slug          string // backend path segment
	Steps         []Step
	RequiredSetup []string
	ExportFields  []ExportField
}

// StepIndex returns the 1-based index of the first step with the given
// kind, or 0 if the feature has no such step.
func (f Feature) StepIndex(kind StepKind) int {
	for i, s := range f.Steps {
		if s.Kind == kind {
			return i + 1
		}
	}
	return 0
}

func standardSteps() []Step {
	return []Step{
		{Name: "Setup", Kind: StepSetup},
		{Name: "Input", Kind: StepInput},
		{Name: "Generate", Kind: StepGenerate},
		{Name: "Review", Kind: StepReview},
		{Name: "Export", Kind: StepExport},
	}
}

func commonFields(contentColumn string) []ExportField {
	return []ExportField{
		{Name: "student_id", Value: func(it models.ResultItem) string { return it.Key }},
		{Name: "student", Value: func(it models.ResultItem) string { return it.Name }},
		{Name: contentColumn, Value: func(it models.ResultItem) string { return it.Content }},
		{Name: "status", Value: func(it models.ResultItem) string { return string(it.Status) }},
		{Name: "words", Value: func(it models.ResultItem) string { return strconv.Itoa(it.WordCount) }},
	}
}

// GradingFeedback generates per-submission feedback for an assignment.
var GradingFeedback = Feature{
	Name:          "feedback",
	Title:         "Grading Feedback",
	Slug:          "feedback",
	Steps:         standardSteps(),
	RequiredSetup: []string{"assignment", "class"},
	ExportFields:  commonFields("feedback"),
}

// NarrativeSynthesis generates report-card narratives from student records.
var NarrativeSynthesis = Feature{
	Name:          "narratives",
	Title:         "Narrative Synthesis",
	Slug:          "narratives",
	Steps:         standardSteps(),
	RequiredSetup: []string{"class", "term"},
	ExportFields:  commonFields("narrative"),
}

var registry = []Feature{GradingFeedback, NarrativeSynthesis}

// ByName looks up a built-in feature by its CLI identifier.
func ByName(name string) (Feature, error) {
	for _, f := range registry {
		if f.Name == name {
			return f, nil
		}
	}
	return Feature{}, fmt.Errorf("unknown feature %q (have: %v)", name, Names())
}

// Names lists the built-in feature identifiers.
func Names() []string {
	names := make([]string, len(registry))
	for i, f := range registry {
		names[i] = f.Name
	}
	return names
}

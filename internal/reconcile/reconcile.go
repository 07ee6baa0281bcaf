// Package reconcile derives per-suburb display status from the completion
// mapping, independent of the roster's Assigned column: an editor may
// complete a suburb allocated to someone else, and the completion fact is
// what counts.
//
// A suburb can appear under multiple editors in the log. The owning
// editor is then the lexicographically smallest editor name whose set
// contains the suburb. This is a policy choice made here so the outcome
// is deterministic; it is applied uniformly by Status and StatusTable.
package reconcile

import (
	"math"
	"sort"

	"github.com/sjvdm/roadprog/internal/completion"
	"github.com/sjvdm/roadprog/internal/roster"
)

// State is a suburb's completion state.
type State string

const (
	// Complete means some editor has marked the suburb done.
	Complete State = "Complete"
	// NotStarted means no editor has marked the suburb done.
	NotStarted State = "Not Started"
)

// StatusRow is one line of the per-suburb status table.
type StatusRow struct {
	Suburb         string `json:"suburb"`
	AssignedEditor string `json:"assigned_editor,omitempty"`
	State          State  `json:"state"`
	CompletedBy    string `json:"completed_by,omitempty"`
}

// EditorSummary aggregates one editor's progress over their assigned set.
type EditorSummary struct {
	Editor    string  `json:"editor"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// Progress aggregates completion over the whole roster.
type Progress struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// Status returns the suburb's state and owning editor.
//
// The suburb is Complete iff any editor's set contains it. When several
// do, editors are checked in sorted name order and the first match owns
// the completion.
func Status(suburb string, sets completion.Sets) (State, string) {
	key := roster.NormalizeName(suburb)
	for _, editor := range sets.Editors() {
		if sets[editor][key] {
			return Complete, editor
		}
	}
	return NotStarted, ""
}

// StatusTable joins the roster against the completion mapping, one row
// per suburb in roster order.
func StatusTable(records []roster.Suburb, sets completion.Sets) []StatusRow {
	editors := sets.Editors()

	rows := make([]StatusRow, 0, len(records))
	for _, r := range records {
		row := StatusRow{
			Suburb:         r.Name,
			AssignedEditor: r.AssignedEditor,
			State:          NotStarted,
		}
		key := roster.NormalizeName(r.Name)
		for _, editor := range editors {
			if sets[editor][key] {
				row.State = Complete
				row.CompletedBy = editor
				break
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Summary returns per-editor progress over the suburbs assigned to them,
// sorted by editor name. An editor with no assigned suburbs reports
// percent 0. Completion counts use the editor's own set only: finishing
// someone else's suburb does not move your percentage.
func Summary(records []roster.Suburb, sets completion.Sets) []EditorSummary {
	byEditor := map[string][]string{}
	for _, r := range records {
		if r.AssignedEditor == "" {
			continue
		}
		byEditor[r.AssignedEditor] = append(byEditor[r.AssignedEditor], roster.NormalizeName(r.Name))
	}

	editors := make([]string, 0, len(byEditor))
	for editor := range byEditor {
		editors = append(editors, editor)
	}
	sort.Strings(editors)

	summaries := make([]EditorSummary, 0, len(editors))
	for _, editor := range editors {
		assigned := byEditor[editor]
		completed := 0
		for _, suburb := range assigned {
			if sets[editor][suburb] {
				completed++
			}
		}
		summaries = append(summaries, EditorSummary{
			Editor:    editor,
			Completed: completed,
			Total:     len(assigned),
			Percent:   percent(completed, len(assigned)),
		})
	}
	return summaries
}

// OverallProgress counts Complete suburbs across the whole roster.
func OverallProgress(records []roster.Suburb, sets completion.Sets) Progress {
	completed := 0
	for _, r := range records {
		if state, _ := Status(r.Name, sets); state == Complete {
			completed++
		}
	}
	return Progress{
		Completed: completed,
		Total:     len(records),
		Percent:   percent(completed, len(records)),
	}
}

// percent rounds completed/total*100 to one decimal, returning 0 for an
// empty total rather than dividing by zero.
func percent(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*1000) / 10
}

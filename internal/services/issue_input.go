package services

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/flowtrack-dev/flowtrack/internal/types"
)

// IssueFields is the request body for creating or patching an issue. The
// loosely typed members accept every shape clients send and are narrowed by
// CreateInput and Patch before reaching the service.
type IssueFields struct {
	Type        *types.IssueType     `json:"type"`
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Status      *types.IssueStatus   `json:"status"`
	Priority    *types.IssuePriority `json:"priority"`
	AssigneeID  json.RawMessage      `json:"assigneeId"`
	Assignee    json.RawMessage      `json:"assignee"`
	ReporterID  json.RawMessage      `json:"reporterId"`
	Reporter    json.RawMessage      `json:"reporter"`
	StoryPoints json.RawMessage      `json:"storyPoints"`
	SprintID    json.RawMessage      `json:"sprintId"`
	Labels      json.RawMessage      `json:"labels"`
	DueDate     json.RawMessage      `json:"dueDate"`

	// Immutable after creation; accepted so clients can echo a full issue
	// back and then dropped.
	ProjectID *string `json:"projectId"`
	Key       *string `json:"key"`
}

type CreateIssueInput struct {
	Type        types.IssueType
	Title       string
	Description string
	Status      types.IssueStatus
	Priority    types.IssuePriority
	AssigneeID  *string
	ReporterID  string
	StoryPoints *int
	SprintID    *string
	Labels      []string
	DueDate     *time.Time
}

// IssuePatch is a partial issue update. Nil pointers and unset optionals
// leave the stored value alone.
type IssuePatch struct {
	Type        *types.IssueType
	Title       *string
	Description *string
	Status      *types.IssueStatus
	Priority    *types.IssuePriority
	AssigneeID  types.Optional[string]
	StoryPoints types.Optional[int]
	SprintID    types.Optional[string]
	Labels      types.Optional[[]string]
	DueDate     types.Optional[time.Time]
}

// CreateInput narrows the body for issue creation. An authenticated caller
// is always the reporter; the body's reporter only counts without a session.
func (f IssueFields) CreateInput(sessionUser string) (CreateIssueInput, error) {
	var in CreateIssueInput

	if f.Type != nil {
		in.Type = *f.Type
	}
	if f.Title != nil {
		in.Title = *f.Title
	}
	if f.Description != nil {
		in.Description = *f.Description
	}
	if f.Status != nil {
		in.Status = *f.Status
	}
	if f.Priority != nil {
		in.Priority = *f.Priority
	}

	assignee, err := f.assignee()
	if err != nil {
		return in, err
	}
	in.AssigneeID = assignee.Value

	if sessionUser != "" {
		in.ReporterID = sessionUser
	} else {
		reporter := types.Optional[string]{}
		if present(f.Reporter) {
			if reporter, err = parseRef(f.Reporter, "reporter"); err != nil {
				return in, err
			}
		}
		if !reporter.Set && present(f.ReporterID) {
			if reporter, err = parseRef(f.ReporterID, "reporterId"); err != nil {
				return in, err
			}
		}
		if reporter.Value != nil {
			in.ReporterID = *reporter.Value
		}
	}

	points, err := parseStoryPoints(f.StoryPoints)
	if err != nil {
		return in, err
	}
	in.StoryPoints = points.Value

	sprint, err := parseRef(f.SprintID, "sprintId")
	if err != nil {
		return in, err
	}
	in.SprintID = sprint.Value

	labels, err := parseLabels(f.Labels)
	if err != nil {
		return in, err
	}
	if labels.Value != nil {
		in.Labels = *labels.Value
	}

	due, err := parseDate(f.DueDate, "due date")
	if err != nil {
		return in, err
	}
	in.DueDate = due.Value

	return in, nil
}

// Patch narrows the body for a partial update. projectId, key and the
// reporter are dropped.
func (f IssueFields) Patch() (IssuePatch, error) {
	patch := IssuePatch{
		Type:        f.Type,
		Title:       f.Title,
		Description: f.Description,
		Status:      f.Status,
		Priority:    f.Priority,
	}

	var err error
	if patch.AssigneeID, err = f.assignee(); err != nil {
		return patch, err
	}
	if patch.StoryPoints, err = parseStoryPoints(f.StoryPoints); err != nil {
		return patch, err
	}
	if patch.SprintID, err = parseRef(f.SprintID, "sprintId"); err != nil {
		return patch, err
	}
	if patch.Labels, err = parseLabels(f.Labels); err != nil {
		return patch, err
	}
	if patch.DueDate, err = parseDate(f.DueDate, "due date"); err != nil {
		return patch, err
	}

	return patch, nil
}

// assignee prefers the assignee member over assigneeId when both are sent.
func (f IssueFields) assignee() (types.Optional[string], error) {
	if present(f.Assignee) {
		return parseRef(f.Assignee, "assignee")
	}
	return parseRef(f.AssigneeID, "assigneeId")
}

func present(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) > 0
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// parseRef accepts an id string or an object carrying an id. Empty strings
// and null clear the reference.
func parseRef(raw json.RawMessage, field string) (types.Optional[string], error) {
	if !present(raw) {
		return types.Optional[string]{}, nil
	}
	if isNull(raw) {
		return types.Null[string](), nil
	}

	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		var object struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &object); err != nil {
			return types.Optional[string]{}, types.Validation("Invalid %s", field)
		}
		id = object.ID
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return types.Null[string](), nil
	}
	return types.Some(id), nil
}

// parseStoryPoints accepts a number or a numeric string. Values that are not
// integers become null; negative values are rejected.
func parseStoryPoints(raw json.RawMessage) (types.Optional[int], error) {
	if !present(raw) {
		return types.Optional[int]{}, nil
	}
	if isNull(raw) {
		return types.Null[int](), nil
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err != nil {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return types.Null[int](), nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return types.Null[int](), nil
		}
		number = parsed
	}

	// Values that do not fit an integer coerce to null like other junk.
	if math.IsNaN(number) || math.IsInf(number, 0) || number > math.MaxInt32 {
		return types.Null[int](), nil
	}
	if number < 0 {
		return types.Optional[int]{}, types.Validation("Story points must not be negative")
	}
	return types.Some(int(number)), nil
}

// parseLabels accepts a list of strings or a single string. Blank and
// repeated labels are dropped.
func parseLabels(raw json.RawMessage) (types.Optional[[]string], error) {
	if !present(raw) {
		return types.Optional[[]string]{}, nil
	}

	var list []string
	if !isNull(raw) {
		if err := json.Unmarshal(raw, &list); err != nil {
			var single string
			if err := json.Unmarshal(raw, &single); err != nil {
				return types.Optional[[]string]{}, types.Validation("Labels must be a list of strings")
			}
			list = []string{single}
		}
	}

	seen := make(map[string]struct{}, len(list))
	labels := make([]string, 0, len(list))
	for _, label := range list {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return types.Some(labels), nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(raw json.RawMessage, field string) (types.Optional[time.Time], error) {
	if !present(raw) {
		return types.Optional[time.Time]{}, nil
	}
	if isNull(raw) {
		return types.Null[time.Time](), nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return types.Optional[time.Time]{}, types.Validation("Invalid %s", field)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return types.Null[time.Time](), nil
	}

	for _, layout := range []string{time.DateOnly, time.RFC3339Nano} {
		if parsed, err := time.Parse(layout, text); err == nil {
			return types.Some(parsed.UTC()), nil
		}
	}
	return types.Optional[time.Time]{}, types.Validation("Invalid %s %q", field, text)
}

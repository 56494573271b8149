package client

import (
	"bytes"
	"encoding/json"

	"github.com/flowtrack-dev/flowtrack/internal/types"
)

// wireIssue accepts assignee as either an id string or an expanded user.
// The outer Assignee shadows the embedded one during decoding.
type wireIssue struct {
	types.IssueResponse
	Assignee json.RawMessage `json:"assignee"`
}

func (w wireIssue) normalize() types.IssueResponse {
	issue := w.IssueResponse
	issue.Assignee = nil

	raw := bytes.TrimSpace(w.Assignee)
	if len(raw) == 0 || string(raw) == "null" {
		return withLabels(issue)
	}

	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		if id != "" {
			issue.AssigneeID = &id
		}
		return withLabels(issue)
	}

	var summary types.UserSummary
	if err := json.Unmarshal(raw, &summary); err == nil && summary.ID != "" {
		issue.Assignee = &summary
		issue.AssigneeID = &summary.ID
	}
	return withLabels(issue)
}

func withLabels(issue types.IssueResponse) types.IssueResponse {
	if issue.Labels == nil {
		issue.Labels = []string{}
	}
	return issue
}

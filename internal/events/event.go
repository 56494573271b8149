package events

import (
	"time"

	"github.com/flowtrack-dev/flowtrack/internal/types"
)

type Type string

const (
	IssueCreated       Type = "issue.created"
	IssueUpdated       Type = "issue.updated"
	IssueStatusChanged Type = "issue.status_changed"
	IssueDeleted       Type = "issue.deleted"
	CommentCreated     Type = "comment.created"
	CommentDeleted     Type = "comment.deleted"
	MemberAdded        Type = "member.added"
	MemberRemoved      Type = "member.removed"
)

// ProjectRef identifies the project an event belongs to. Webhook URLs stay
// out of serialized payloads.
type ProjectRef struct {
	ID             string `json:"id"`
	Key            string `json:"key"`
	Name           string `json:"name"`
	DiscordWebhook string `json:"-"`
	SlackWebhook   string `json:"-"`
}

type IssueRef struct {
	ID             string              `json:"id"`
	Key            string              `json:"key"`
	Title          string              `json:"title"`
	Status         types.IssueStatus   `json:"status"`
	PreviousStatus types.IssueStatus   `json:"previousStatus,omitempty"`
	Priority       types.IssuePriority `json:"priority,omitempty"`
}

type Event struct {
	Type         Type       `json:"type"`
	OccurredAt   time.Time  `json:"occurredAt"`
	ActorID      string     `json:"actorId,omitempty"`
	Project      ProjectRef `json:"project"`
	Issue        *IssueRef  `json:"issue,omitempty"`
	CommentID    string     `json:"commentId,omitempty"`
	MemberUserID string     `json:"memberUserId,omitempty"`
	MemberRole   types.Role `json:"memberRole,omitempty"`
}

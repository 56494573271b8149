package types

const ContextUserKey = "user"

const ContextRequestIDKey = "request_id"

// Role is used both as a user's global role and as a project-scoped
// membership role.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleProjectManager Role = "project_manager"
	RoleDeveloper      Role = "developer"
	RoleViewer         Role = "viewer"
)

var Roles = []Role{RoleAdmin, RoleProjectManager, RoleDeveloper, RoleViewer}

func (r Role) Valid() bool {
	for _, candidate := range Roles {
		if r == candidate {
			return true
		}
	}
	return false
}

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
)

func (s ProjectStatus) Valid() bool {
	return s == ProjectActive || s == ProjectArchived
}

type SprintStatus string

const (
	SprintPlanned   SprintStatus = "planned"
	SprintActive    SprintStatus = "active"
	SprintCompleted SprintStatus = "completed"
)

func (s SprintStatus) Valid() bool {
	return s == SprintPlanned || s == SprintActive || s == SprintCompleted
}

// IssueStatus is a board column. Any status may move to any other status.
type IssueStatus string

const (
	StatusToDo       IssueStatus = "to_do"
	StatusInProgress IssueStatus = "in_progress"
	StatusInReview   IssueStatus = "in_review"
	StatusDone       IssueStatus = "done"
)

// Statuses is ordered left-to-right as the board shows them.
var Statuses = []IssueStatus{StatusToDo, StatusInProgress, StatusInReview, StatusDone}

func (s IssueStatus) Valid() bool {
	for _, candidate := range Statuses {
		if s == candidate {
			return true
		}
	}
	return false
}

type IssuePriority string

const (
	PriorityLow    IssuePriority = "low"
	PriorityMedium IssuePriority = "medium"
	PriorityHigh   IssuePriority = "high"
	PriorityUrgent IssuePriority = "urgent"
)

func (p IssuePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type IssueType string

const (
	TypeStory IssueType = "story"
	TypeBug   IssueType = "bug"
	TypeTask  IssueType = "task"
	TypeEpic  IssueType = "epic"
)

func (t IssueType) Valid() bool {
	switch t {
	case TypeStory, TypeBug, TypeTask, TypeEpic:
		return true
	}
	return false
}

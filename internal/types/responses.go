package types

import "time"

type MemberResponse struct {
	ID        string       `json:"id"`
	ProjectID string       `json:"projectId"`
	UserID    string       `json:"userId"`
	Role      Role         `json:"role"`
	User      *UserSummary `json:"user,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

type ProjectResponse struct {
	ID          string           `json:"id"`
	Key         string           `json:"key"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Status      ProjectStatus    `json:"status"`
	CreatorID   string           `json:"creatorId"`
	Creator     *UserSummary     `json:"creator,omitempty"`
	Members     []MemberResponse `json:"members"`
	IssueCount  int64            `json:"issueCount"`
	// Webhook URLs embed credentials; responses only report whether one is set.
	HasDiscordWebhook bool      `json:"hasDiscordWebhook"`
	HasSlackWebhook   bool      `json:"hasSlackWebhook"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type SprintSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SprintResponse struct {
	ID        string       `json:"id"`
	ProjectID string       `json:"projectId"`
	Name      string       `json:"name"`
	Goal      string       `json:"goal"`
	StartDate *time.Time   `json:"startDate"`
	EndDate   *time.Time   `json:"endDate"`
	Status    SprintStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

type IssueResponse struct {
	ID              string         `json:"id"`
	ProjectID       string         `json:"projectId"`
	Key             string         `json:"key"`
	Type            IssueType      `json:"type"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	DescriptionHTML string         `json:"descriptionHtml"`
	Status          IssueStatus    `json:"status"`
	Priority        IssuePriority  `json:"priority"`
	AssigneeID      *string        `json:"assigneeId"`
	Assignee        *UserSummary   `json:"assignee"`
	ReporterID      string         `json:"reporterId"`
	Reporter        *UserSummary   `json:"reporter"`
	StoryPoints     *int           `json:"storyPoints"`
	SprintID        *string        `json:"sprintId"`
	Sprint          *SprintSummary `json:"sprint"`
	Labels          []string       `json:"labels"`
	DueDate         *time.Time     `json:"dueDate"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

type CommentResponse struct {
	ID          string       `json:"id"`
	IssueID     string       `json:"issueId"`
	UserID      string       `json:"userId"`
	Content     string       `json:"content"`
	ContentHTML string       `json:"contentHtml"`
	User        *UserSummary `json:"user"`
	CreatedAt   time.Time    `json:"createdAt"`
}

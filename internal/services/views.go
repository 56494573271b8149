package services

import (
	"github.com/flowtrack-dev/flowtrack/internal/models"
	"github.com/flowtrack-dev/flowtrack/internal/render"
	"github.com/flowtrack-dev/flowtrack/internal/types"
)

func userSummary(user *models.User) *types.UserSummary {
	if user == nil || user.ID == "" {
		return nil
	}
	return &types.UserSummary{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Avatar: user.Avatar,
	}
}

func userResponse(user models.User) types.UserResponse {
	return types.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func memberResponse(member models.ProjectMember) types.MemberResponse {
	return types.MemberResponse{
		ID:        member.ID,
		ProjectID: member.ProjectID,
		UserID:    member.UserID,
		Role:      member.Role,
		User:      userSummary(member.User),
		CreatedAt: member.CreatedAt,
	}
}

func projectResponse(project models.Project, issueCount int64) types.ProjectResponse {
	members := make([]types.MemberResponse, 0, len(project.Members))
	for _, member := range project.Members {
		members = append(members, memberResponse(member))
	}
	return types.ProjectResponse{
		ID:                project.ID,
		Key:               project.Key,
		Name:              project.Name,
		Description:       project.Description,
		Status:            project.Status,
		CreatorID:         project.CreatorID,
		Creator:           userSummary(project.Creator),
		Members:           members,
		IssueCount:        issueCount,
		HasDiscordWebhook: project.DiscordWebhook != "",
		HasSlackWebhook:   project.SlackWebhook != "",
		CreatedAt:         project.CreatedAt,
		UpdatedAt:         project.UpdatedAt,
	}
}

func sprintResponse(sprint models.Sprint) types.SprintResponse {
	return types.SprintResponse{
		ID:        sprint.ID,
		ProjectID: sprint.ProjectID,
		Name:      sprint.Name,
		Goal:      sprint.Goal,
		StartDate: sprint.StartDate,
		EndDate:   sprint.EndDate,
		Status:    sprint.Status,
		CreatedAt: sprint.CreatedAt,
		UpdatedAt: sprint.UpdatedAt,
	}
}

func issueResponse(issue models.Issue) types.IssueResponse {
	labels := []string(issue.Labels)
	if labels == nil {
		labels = []string{}
	}

	var sprint *types.SprintSummary
	if issue.Sprint != nil && issue.Sprint.ID != "" {
		sprint = &types.SprintSummary{ID: issue.Sprint.ID, Name: issue.Sprint.Name}
	}

	return types.IssueResponse{
		ID:              issue.ID,
		ProjectID:       issue.ProjectID,
		Key:             issue.Key,
		Type:            issue.Type,
		Title:           issue.Title,
		Description:     issue.Description,
		DescriptionHTML: render.Markdown(issue.Description),
		Status:          issue.Status,
		Priority:        issue.Priority,
		AssigneeID:      issue.AssigneeID,
		Assignee:        userSummary(issue.Assignee),
		ReporterID:      issue.ReporterID,
		Reporter:        userSummary(issue.Reporter),
		StoryPoints:     issue.StoryPoints,
		SprintID:        issue.SprintID,
		Sprint:          sprint,
		Labels:          labels,
		DueDate:         issue.DueDate,
		CreatedAt:       issue.CreatedAt,
		UpdatedAt:       issue.UpdatedAt,
	}
}

func commentResponse(comment models.Comment) types.CommentResponse {
	return types.CommentResponse{
		ID:          comment.ID,
		IssueID:     comment.IssueID,
		UserID:      comment.UserID,
		Content:     comment.Content,
		ContentHTML: render.Markdown(comment.Content),
		User:        userSummary(comment.User),
		CreatedAt:   comment.CreatedAt,
	}
}

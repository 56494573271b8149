// Package mirror keeps an in-memory copy of server resources for a client
// session. Reads come from the cache; writes go to the server first and the
// cache is reconciled with the server's response.
package mirror

import (
	"context"
	"sync"

	"github.com/flowtrack-dev/flowtrack/internal/client"
	"github.com/flowtrack-dev/flowtrack/internal/types"
)

// API is the subset of the REST client the store needs.
type API interface {
	ListProjects(ctx context.Context) ([]types.ProjectResponse, error)
	GetProject(ctx context.Context, id string) (types.ProjectResponse, error)
	CreateProject(ctx context.Context, in client.ProjectInput) (types.ProjectResponse, error)
	UpdateProject(ctx context.Context, id string, patch client.Patch) (types.ProjectResponse, error)
	DeleteProject(ctx context.Context, id string) error
	AddMember(ctx context.Context, projectID, userID string, role types.Role) (types.MemberResponse, error)
	RemoveMember(ctx context.Context, projectID, userID string) error

	ListIssues(ctx context.Context, projectID string) ([]types.IssueResponse, error)
	CreateIssue(ctx context.Context, projectID string, in client.IssueInput) (types.IssueResponse, error)
	UpdateIssue(ctx context.Context, id string, patch client.Patch) (types.IssueResponse, error)
	UpdateIssueStatus(ctx context.Context, id string, status types.IssueStatus) (types.IssueResponse, error)
	DeleteIssue(ctx context.Context, id string) error

	ListUsers(ctx context.Context) ([]types.UserResponse, error)

	ListComments(ctx context.Context, issueID string) ([]types.CommentResponse, error)
	CreateComment(ctx context.Context, issueID, content, userID string) (types.CommentResponse, error)
	DeleteComment(ctx context.Context, id string) error
}

// Column is one board column.
type Column struct {
	Status types.IssueStatus
	Issues []types.IssueResponse
}

type Store struct {
	api API

	mu             sync.Mutex
	projects       []types.ProjectResponse
	issues         []types.IssueResponse
	users          []types.UserResponse
	comments       []types.CommentResponse
	currentProject *types.ProjectResponse
	err            error
}

func New(api API) *Store {
	return &Store{api: api}
}

// Err is the last error surfaced by a server call, or nil after a success.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store) record(err error) error {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	return err
}

func (s *Store) FetchProjects(ctx context.Context) ([]types.ProjectResponse, error) {
	projects, err := s.api.ListProjects(ctx)
	if err != nil {
		return nil, s.record(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	s.projects = append([]types.ProjectResponse(nil), projects...)
	return cloneSlice(s.projects), nil
}

// FetchProject loads one project and makes it current.
func (s *Store) FetchProject(ctx context.Context, id string) (types.ProjectResponse, error) {
	project, err := s.api.GetProject(ctx, id)
	if err != nil {
		return types.ProjectResponse{}, s.record(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	s.currentProject = &project
	s.replaceProject(project)
	return project, nil
}

// SetCurrentProject selects a cached project. Unknown ids clear the selection.
func (s *Store) SetCurrentProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentProject = nil
	for _, project := range s.projects {
		if project.ID == id {
			selected := project
			s.currentProject = &selected
			return
		}
	}
}

func (s *Store) CurrentProject() (types.ProjectResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentProject == nil {
		return types.ProjectResponse{}, false
	}
	return *s.currentProject, true
}

func (s *Store) Projects() []types.ProjectResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSlice(s.projects)
}

func (s *Store) CreateProject(ctx context.Context, in client.ProjectInput) (types.ProjectResponse, error) {
	project, err := s.api.CreateProject(ctx, in)
	if err != nil {
		return types.ProjectResponse{}, s.record(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	s.projects = append(s.projects, project)
	return project, nil
}

func (s *Store) UpdateProject(ctx context.Context, id string, patch client.Patch) (types.ProjectResponse, error) {
	project, err := s.api.UpdateProject(ctx, id, patch)
	if err != nil {
		return types.ProjectResponse{}, s.record(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	s.replaceProject(project)
	return project, nil
}

// DeleteProject also drops the project's cached issues.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	if err := s.api.DeleteProject(ctx, id); err != nil {
		return s.record(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	s.projects = filter(s.projects, func(p types.ProjectResponse) bool { return p.ID != id })
	s.issues = filter(s.issues, func(i types.IssueResponse) bool { return i.ProjectID != id })
	if s.currentProject != nil && s.currentProject.ID == id {
		s.currentProject = nil
	}
	return nil
}

func (s *Store) AddProjectMember(ctx context.Context, projectID, userID string, role types.Role) (types.MemberResponse, error) {
	member, err := s.api.AddMember(ctx, projectID, userID, role)
	if err != nil {
		return types.MemberResponse{}, s.record(err)
	}
	if err := s.refreshProject(ctx, projectID); err != nil {
		return member, err
	}
	return member, nil
}

func (s *Store) RemoveProjectMember(ctx context.Context, projectID, userID string) error {
	if err := s.api.RemoveMember(ctx, projectID, userID); err != nil {
		return s.record(err)
	}
	return s.refreshProject(ctx, projectID)
}

// refreshProject refetches a project after a roster change.
func (s *Store) refreshProject(ctx context.Context, id string) error {
	project, err := s.api.GetProject(ctx, id)
	if err != nil {
		return s.record(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	s.replaceProject(project)
	return nil
}

// replaceProject swaps the cached copy, including the current project.
// Callers hold mu.
func (s *Store) replaceProject(project types.ProjectResponse) {
	for i := range s.projects {
		if s.projects[i].ID == project.ID {
			s.projects[i] = project
		}
	}
	if s.currentProject != nil && s.currentProject.ID == project.ID {
		updated := project
		s.currentProject = &updated
	}
}

// FetchProjectIssues replaces the cached issues of one project and keeps
// every other project's issues.
func (s *Store) FetchProjectIssues(ctx context.Context, projectID string) ([]types.IssueResponse, error) {
	issues, err := s.api.ListIssues(ctx, projectID)
	if err != nil {
		return nil, s.record(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	kept := filter(s.issues, func(i types.IssueResponse) bool { return i.ProjectID != projectID })
	s.issues = append(kept, issues...)
	return cloneSlice(issues), nil
}

func (s *Store) ProjectIssues(projectID string) []types.IssueResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter(s.issues, func(i types.IssueResponse) bool { return i.ProjectID == projectID })
}

// Board groups a project's cached issues into the ordered status columns.
func (s *Store) Board(projectID string) []Column {
	issues := s.ProjectIssues(projectID)

	columns := make([]Column, 0, len(types.Statuses))
	for _, status := range types.Statuses {
		column := Column{Status: status, Issues: []types.IssueResponse{}}
		for _, issue := range issues {
			if issue.Status == status {
				column.Issues = append(column.Issues, issue)
			}
		}
		columns = append(columns, column)
	}
	return columns
}

func (s *Store) CreateIssue(ctx context.Context, projectID string, in client.IssueInput) (types.IssueResponse, error) {
	issue, err := s.api.CreateIssue(ctx, projectID, in)
	if err != nil {
		return types.IssueResponse{}, s.record(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	s.issues = append(s.issues, issue)
	return issue, nil
}

func (s *Store) UpdateIssue(ctx context.Context, id string, patch client.Patch) (types.IssueResponse, error) {
	issue, err := s.api.UpdateIssue(ctx, id, patch)
	if err != nil {
		return types.IssueResponse{}, s.record(err)
	}
	s.reconcileIssue(issue)
	return issue, nil
}

// MoveIssue changes only the status, as a board drag does. A rejected move
// leaves the cached issue as it was.
func (s *Store) MoveIssue(ctx context.Context, id string, status types.IssueStatus) (types.IssueResponse, error) {
	issue, err := s.api.UpdateIssueStatus(ctx, id, status)
	if err != nil {
		return types.IssueResponse{}, s.record(err)
	}
	s.reconcileIssue(issue)
	return issue, nil
}

func (s *Store) reconcileIssue(issue types.IssueResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	for i := range s.issues {
		if s.issues[i].ID == issue.ID {
			s.issues[i] = issue
		}
	}
}

func (s *Store) DeleteIssue(ctx context.Context, id string) error {
	if err := s.api.DeleteIssue(ctx, id); err != nil {
		return s.record(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	s.issues = filter(s.issues, func(i types.IssueResponse) bool { return i.ID != id })
	s.comments = filter(s.comments, func(c types.CommentResponse) bool { return c.IssueID != id })
	return nil
}

func (s *Store) FetchUsers(ctx context.Context) ([]types.UserResponse, error) {
	users, err := s.api.ListUsers(ctx)
	if err != nil {
		return nil, s.record(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	s.users = append([]types.UserResponse(nil), users...)
	return cloneSlice(s.users), nil
}

func (s *Store) Users() []types.UserResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSlice(s.users)
}

// FetchIssueComments replaces one issue's cached thread.
func (s *Store) FetchIssueComments(ctx context.Context, issueID string) ([]types.CommentResponse, error) {
	comments, err := s.api.ListComments(ctx, issueID)
	if err != nil {
		return nil, s.record(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	kept := filter(s.comments, func(c types.CommentResponse) bool { return c.IssueID != issueID })
	s.comments = append(kept, comments...)
	return cloneSlice(comments), nil
}

// IssueComments returns the cached thread oldest first.
func (s *Store) IssueComments(issueID string) []types.CommentResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread := filter(s.comments, func(c types.CommentResponse) bool { return c.IssueID == issueID })
	sortByCreated(thread)
	return thread
}

func (s *Store) CreateComment(ctx context.Context, issueID, content, userID string) (types.CommentResponse, error) {
	comment, err := s.api.CreateComment(ctx, issueID, content, userID)
	if err != nil {
		return types.CommentResponse{}, s.record(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	s.comments = append(s.comments, comment)
	return comment, nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	if err := s.api.DeleteComment(ctx, id); err != nil {
		return s.record(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	s.comments = filter(s.comments, func(c types.CommentResponse) bool { return c.ID != id })
	return nil
}

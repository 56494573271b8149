// Package client is a typed HTTP client for the FlowTrack REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flowtrack-dev/flowtrack/internal/types"
)

// APIError is a failure reported by the server. Message is the server's
// error.message, meant to be shown to users as is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrRequestFailed wraps failures where no response arrived.
var ErrRequestFailed = errors.New("request failed")

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// New builds a client for baseURL, e.g. "http://localhost:5000/api".
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Token() string {
	return c.token
}

// Patch is a partial update body. A nil value clears the field.
type Patch map[string]any

type ProjectInput struct {
	Name           string `json:"name"`
	Key            string `json:"key"`
	Description    string `json:"description,omitempty"`
	DiscordWebhook string `json:"discordWebhook,omitempty"`
	SlackWebhook   string `json:"slackWebhook,omitempty"`
}

type IssueInput struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Type        types.IssueType     `json:"type,omitempty"`
	Status      types.IssueStatus   `json:"status,omitempty"`
	Priority    types.IssuePriority `json:"priority,omitempty"`
	AssigneeID  string              `json:"assigneeId,omitempty"`
	ReporterID  string              `json:"reporterId,omitempty"`
	StoryPoints *int                `json:"storyPoints,omitempty"`
	SprintID    string              `json:"sprintId,omitempty"`
	Labels      []string            `json:"labels,omitempty"`
	DueDate     string              `json:"dueDate,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrRequestFailed, err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	return json.Unmarshal(unwrap(raw), out)
}

// unwrap returns the payload of a {"data": ...} envelope, or the body itself
// when the server sent a bare entity.
func unwrap(raw []byte) []byte {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Data) > 0 {
			return envelope.Data
		}
	}
	return trimmed
}

func decodeError(status int, raw []byte) error {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		return &APIError{Status: status, Message: envelope.Error.Message}
	}
	return &APIError{Status: status, Message: http.StatusText(status)}
}

func (c *Client) Login(ctx context.Context, email, password string) (types.AuthResponse, error) {
	var res types.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &res)
	if err == nil {
		c.token = res.Token
	}
	return res, err
}

func (c *Client) Me(ctx context.Context) (types.UserResponse, error) {
	var user types.UserResponse
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user)
	return user, err
}

// Logout only forgets the token locally.
func (c *Client) Logout() {
	c.token = ""
}

func (c *Client) ListUsers(ctx context.Context) ([]types.UserResponse, error) {
	var users []types.UserResponse
	err := c.do(ctx, http.MethodGet, "/users", nil, &users)
	return users, err
}

func (c *Client) ListProjects(ctx context.Context) ([]types.ProjectResponse, error) {
	var projects []types.ProjectResponse
	err := c.do(ctx, http.MethodGet, "/projects", nil, &projects)
	return projects, err
}

func (c *Client) GetProject(ctx context.Context, id string) (types.ProjectResponse, error) {
	var project types.ProjectResponse
	err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil, &project)
	return project, err
}

func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (types.ProjectResponse, error) {
	var project types.ProjectResponse
	err := c.do(ctx, http.MethodPost, "/projects", in, &project)
	return project, err
}

func (c *Client) UpdateProject(ctx context.Context, id string, patch Patch) (types.ProjectResponse, error) {
	var project types.ProjectResponse
	err := c.do(ctx, http.MethodPut, "/projects/"+url.PathEscape(id), patch, &project)
	return project, err
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, nil)
}

func (c *Client) AddMember(ctx context.Context, projectID, userID string, role types.Role) (types.MemberResponse, error) {
	var member types.MemberResponse
	body := map[string]string{"userId": userID, "role": string(role)}
	err := c.do(ctx, http.MethodPost, "/projects/"+url.PathEscape(projectID)+"/members", body, &member)
	return member, err
}

func (c *Client) RemoveMember(ctx context.Context, projectID, userID string) error {
	path := "/projects/" + url.PathEscape(projectID) + "/members/" + url.PathEscape(userID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) ListIssues(ctx context.Context, projectID string) ([]types.IssueResponse, error) {
	var wire []wireIssue
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectID)+"/issues", nil, &wire); err != nil {
		return nil, err
	}
	issues := make([]types.IssueResponse, 0, len(wire))
	for _, w := range wire {
		issues = append(issues, w.normalize())
	}
	return issues, nil
}

func (c *Client) GetIssue(ctx context.Context, id string) (types.IssueResponse, error) {
	return c.issueCall(ctx, http.MethodGet, "/issues/"+url.PathEscape(id), nil)
}

func (c *Client) CreateIssue(ctx context.Context, projectID string, in IssueInput) (types.IssueResponse, error) {
	return c.issueCall(ctx, http.MethodPost, "/projects/"+url.PathEscape(projectID)+"/issues", in)
}

func (c *Client) UpdateIssue(ctx context.Context, id string, patch Patch) (types.IssueResponse, error) {
	return c.issueCall(ctx, http.MethodPut, "/issues/"+url.PathEscape(id), patch)
}

func (c *Client) UpdateIssueStatus(ctx context.Context, id string, status types.IssueStatus) (types.IssueResponse, error) {
	return c.issueCall(ctx, http.MethodPatch, "/issues/"+url.PathEscape(id)+"/status", map[string]types.IssueStatus{"status": status})
}

func (c *Client) DeleteIssue(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/issues/"+url.PathEscape(id), nil, nil)
}

func (c *Client) issueCall(ctx context.Context, method, path string, body any) (types.IssueResponse, error) {
	var wire wireIssue
	if err := c.do(ctx, method, path, body, &wire); err != nil {
		return types.IssueResponse{}, err
	}
	return wire.normalize(), nil
}

func (c *Client) ListComments(ctx context.Context, issueID string) ([]types.CommentResponse, error) {
	var comments []types.CommentResponse
	err := c.do(ctx, http.MethodGet, "/issues/"+url.PathEscape(issueID)+"/comments", nil, &comments)
	return comments, err
}

func (c *Client) CreateComment(ctx context.Context, issueID, content, userID string) (types.CommentResponse, error) {
	var comment types.CommentResponse
	body := map[string]string{"content": content}
	if userID != "" {
		body["userId"] = userID
	}
	err := c.do(ctx, http.MethodPost, "/issues/"+url.PathEscape(issueID)+"/comments", body, &comment)
	return comment, err
}

func (c *Client) DeleteComment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/comments/"+url.PathEscape(id), nil, nil)
}

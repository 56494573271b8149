package mirror

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/flowtrack-dev/flowtrack/internal/client"
	"github.com/flowtrack-dev/flowtrack/internal/types"
)

var errBoom = errors.New("boom")

// fakeAPI serves canned data and fails every call while fail is set.
type fakeAPI struct {
	fail     bool
	projects map[string]types.ProjectResponse
	issues   map[string][]types.IssueResponse
	comments map[string][]types.CommentResponse
	users    []types.UserResponse
	next     int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		projects: map[string]types.ProjectResponse{},
		issues:   map[string][]types.IssueResponse{},
		comments: map[string][]types.CommentResponse{},
	}
}

func (f *fakeAPI) id(prefix string) string {
	f.next++
	return prefix + "-" + strconv.Itoa(f.next)
}

func (f *fakeAPI) ListProjects(context.Context) ([]types.ProjectResponse, error) {
	if f.fail {
		return nil, errBoom
	}
	out := []types.ProjectResponse{}
	for _, p := range f.projects {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeAPI) GetProject(_ context.Context, id string) (types.ProjectResponse, error) {
	if f.fail {
		return types.ProjectResponse{}, errBoom
	}
	p, ok := f.projects[id]
	if !ok {
		return p, &client.APIError{Status: 404, Message: "Project not found"}
	}
	return p, nil
}

func (f *fakeAPI) CreateProject(_ context.Context, in client.ProjectInput) (types.ProjectResponse, error) {
	if f.fail {
		return types.ProjectResponse{}, errBoom
	}
	p := types.ProjectResponse{ID: f.id("p"), Key: in.Key, Name: in.Name}
	f.projects[p.ID] = p
	return p, nil
}

func (f *fakeAPI) UpdateProject(_ context.Context, id string, patch client.Patch) (types.ProjectResponse, error) {
	if f.fail {
		return types.ProjectResponse{}, errBoom
	}
	p := f.projects[id]
	if name, ok := patch["name"].(string); ok {
		p.Name = name
	}
	f.projects[id] = p
	return p, nil
}

func (f *fakeAPI) DeleteProject(_ context.Context, id string) error {
	if f.fail {
		return errBoom
	}
	delete(f.projects, id)
	return nil
}

func (f *fakeAPI) AddMember(_ context.Context, projectID, userID string, role types.Role) (types.MemberResponse, error) {
	if f.fail {
		return types.MemberResponse{}, errBoom
	}
	m := types.MemberResponse{ID: f.id("m"), ProjectID: projectID, UserID: userID, Role: role}
	p := f.projects[projectID]
	p.Members = append(p.Members, m)
	f.projects[projectID] = p
	return m, nil
}

func (f *fakeAPI) RemoveMember(_ context.Context, projectID, userID string) error {
	if f.fail {
		return errBoom
	}
	p := f.projects[projectID]
	p.Members = filter(p.Members, func(m types.MemberResponse) bool { return m.UserID != userID })
	f.projects[projectID] = p
	return nil
}

func (f *fakeAPI) ListIssues(_ context.Context, projectID string) ([]types.IssueResponse, error) {
	if f.fail {
		return nil, errBoom
	}
	return cloneSlice(f.issues[projectID]), nil
}

func (f *fakeAPI) CreateIssue(_ context.Context, projectID string, in client.IssueInput) (types.IssueResponse, error) {
	if f.fail {
		return types.IssueResponse{}, errBoom
	}
	status := in.Status
	if status == "" {
		status = types.StatusToDo
	}
	issue := types.IssueResponse{ID: f.id("i"), ProjectID: projectID, Title: in.Title, Status: status, Labels: []string{}}
	f.issues[projectID] = append(f.issues[projectID], issue)
	return issue, nil
}

func (f *fakeAPI) findIssue(id string) (string, int) {
	for projectID, issues := range f.issues {
		for i := range issues {
			if issues[i].ID == id {
				return projectID, i
			}
		}
	}
	return "", -1
}

func (f *fakeAPI) UpdateIssue(_ context.Context, id string, patch client.Patch) (types.IssueResponse, error) {
	if f.fail {
		return types.IssueResponse{}, errBoom
	}
	projectID, i := f.findIssue(id)
	if title, ok := patch["title"].(string); ok {
		f.issues[projectID][i].Title = title
	}
	return f.issues[projectID][i], nil
}

func (f *fakeAPI) UpdateIssueStatus(_ context.Context, id string, status types.IssueStatus) (types.IssueResponse, error) {
	if f.fail {
		return types.IssueResponse{}, errBoom
	}
	if !status.Valid() {
		return types.IssueResponse{}, &client.APIError{Status: 400, Message: "Invalid status"}
	}
	projectID, i := f.findIssue(id)
	f.issues[projectID][i].Status = status
	return f.issues[projectID][i], nil
}

func (f *fakeAPI) DeleteIssue(_ context.Context, id string) error {
	if f.fail {
		return errBoom
	}
	projectID, _ := f.findIssue(id)
	f.issues[projectID] = filter(f.issues[projectID], func(i types.IssueResponse) bool { return i.ID != id })
	return nil
}

func (f *fakeAPI) ListUsers(context.Context) ([]types.UserResponse, error) {
	if f.fail {
		return nil, errBoom
	}
	return f.users, nil
}

func (f *fakeAPI) ListComments(_ context.Context, issueID string) ([]types.CommentResponse, error) {
	if f.fail {
		return nil, errBoom
	}
	return cloneSlice(f.comments[issueID]), nil
}

func (f *fakeAPI) CreateComment(_ context.Context, issueID, content, userID string) (types.CommentResponse, error) {
	if f.fail {
		return types.CommentResponse{}, errBoom
	}
	c := types.CommentResponse{ID: f.id("c"), IssueID: issueID, Content: content, UserID: userID, CreatedAt: time.Now()}
	f.comments[issueID] = append(f.comments[issueID], c)
	return c, nil
}

func (f *fakeAPI) DeleteComment(_ context.Context, id string) error {
	if f.fail {
		return errBoom
	}
	return nil
}

func TestProjectCacheLifecycle(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	store := New(api)

	created, err := store.CreateProject(ctx, client.ProjectInput{Name: "Web", Key: "WEB"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if got := store.Projects(); len(got) != 1 || got[0].ID != created.ID {
		t.Fatalf("projects after create = %+v", got)
	}

	store.SetCurrentProject(created.ID)
	if _, err := store.UpdateProject(ctx, created.ID, client.Patch{"name": "Web App"}); err != nil {
		t.Fatalf("update project: %v", err)
	}
	current, ok := store.CurrentProject()
	if !ok || current.Name != "Web App" {
		t.Fatalf("current project not reconciled: %+v %v", current, ok)
	}

	if _, err := store.CreateIssue(ctx, created.ID, client.IssueInput{Title: "one"}); err != nil {
		t.Fatalf("create issue: %v", err)
	}
	if err := store.DeleteProject(ctx, created.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if len(store.Projects()) != 0 {
		t.Fatal("project still cached after delete")
	}
	if len(store.ProjectIssues(created.ID)) != 0 {
		t.Fatal("issues of deleted project still cached")
	}
	if _, ok := store.CurrentProject(); ok {
		t.Fatal("current project not cleared after delete")
	}
}

func TestSetCurrentProjectUnknownClears(t *testing.T) {
	store := New(newFakeAPI())
	if _, err := store.CreateProject(context.Background(), client.ProjectInput{Name: "A", Key: "AA"}); err != nil {
		t.Fatal(err)
	}
	store.SetCurrentProject(store.Projects()[0].ID)
	store.SetCurrentProject("missing")
	if _, ok := store.CurrentProject(); ok {
		t.Fatal("expected no current project")
	}
}

func TestFailedMutationLeavesCacheUntouched(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	store := New(api)

	project, err := store.CreateProject(ctx, client.ProjectInput{Name: "Web", Key: "WEB"})
	if err != nil {
		t.Fatal(err)
	}
	issue, err := store.CreateIssue(ctx, project.ID, client.IssueInput{Title: "one"})
	if err != nil {
		t.Fatal(err)
	}

	api.fail = true
	if _, err := store.UpdateIssue(ctx, issue.ID, client.Patch{"title": "changed"}); !errors.Is(err, errBoom) {
		t.Fatalf("update err = %v", err)
	}
	if err := store.DeleteProject(ctx, project.ID); !errors.Is(err, errBoom) {
		t.Fatalf("delete err = %v", err)
	}
	if !errors.Is(store.Err(), errBoom) {
		t.Fatalf("recorded err = %v", store.Err())
	}

	issues := store.ProjectIssues(project.ID)
	if len(issues) != 1 || issues[0].Title != "one" {
		t.Fatalf("cache changed after failures: %+v", issues)
	}
	if len(store.Projects()) != 1 {
		t.Fatal("project dropped after failed delete")
	}

	api.fail = false
	if _, err := store.FetchProjects(ctx); err != nil {
		t.Fatal(err)
	}
	if store.Err() != nil {
		t.Fatalf("error not cleared after success: %v", store.Err())
	}
}

func TestFetchProjectIssuesKeepsOtherProjects(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	store := New(api)

	a, _ := store.CreateProject(ctx, client.ProjectInput{Name: "A", Key: "AA"})
	b, _ := store.CreateProject(ctx, client.ProjectInput{Name: "B", Key: "BB"})
	if _, err := store.CreateIssue(ctx, a.ID, client.IssueInput{Title: "a1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateIssue(ctx, b.ID, client.IssueInput{Title: "b1"}); err != nil {
		t.Fatal(err)
	}

	api.issues[a.ID] = append(api.issues[a.ID], types.IssueResponse{ID: "server-side", ProjectID: a.ID, Status: types.StatusDone})
	fetched, err := store.FetchProjectIssues(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(fetched) != 2 {
		t.Fatalf("fetched %d issues, want 2", len(fetched))
	}
	if got := store.ProjectIssues(a.ID); len(got) != 2 {
		t.Fatalf("project A cached %d issues, want 2", len(got))
	}
	if got := store.ProjectIssues(b.ID); len(got) != 1 || got[0].Title != "b1" {
		t.Fatalf("project B issues disturbed: %+v", got)
	}
}

func TestBoardColumnsAndMove(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	store := New(api)

	project, _ := store.CreateProject(ctx, client.ProjectInput{Name: "A", Key: "AA"})
	first, _ := store.CreateIssue(ctx, project.ID, client.IssueInput{Title: "first"})
	if _, err := store.CreateIssue(ctx, project.ID, client.IssueInput{Title: "second", Status: types.StatusInReview}); err != nil {
		t.Fatal(err)
	}

	board := store.Board(project.ID)
	if len(board) != len(types.Statuses) {
		t.Fatalf("board has %d columns", len(board))
	}
	for i, column := range board {
		if column.Status != types.Statuses[i] {
			t.Fatalf("column %d = %s, want %s", i, column.Status, types.Statuses[i])
		}
		if column.Issues == nil {
			t.Fatalf("column %s has nil issues", column.Status)
		}
	}
	if len(board[0].Issues) != 1 || len(board[2].Issues) != 1 {
		t.Fatalf("unexpected board: %+v", board)
	}

	if _, err := store.MoveIssue(ctx, first.ID, types.StatusDone); err != nil {
		t.Fatalf("move: %v", err)
	}
	board = store.Board(project.ID)
	if len(board[0].Issues) != 0 || len(board[3].Issues) != 1 {
		t.Fatalf("move not reflected: %+v", board)
	}

	var apiErr *client.APIError
	if _, err := store.MoveIssue(ctx, first.ID, "archived"); !errors.As(err, &apiErr) {
		t.Fatalf("expected API error, got %v", err)
	}
	if got := store.Board(project.ID)[3].Issues; len(got) != 1 || got[0].ID != first.ID {
		t.Fatalf("rejected move changed cache: %+v", got)
	}

	if err := store.DeleteIssue(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	if len(store.ProjectIssues(project.ID)) != 1 {
		t.Fatal("deleted issue still cached")
	}
}

func TestMemberChangesRefreshProject(t *testing.T) {
	ctx := context.Background()
	store := New(newFakeAPI())

	project, _ := store.CreateProject(ctx, client.ProjectInput{Name: "A", Key: "AA"})
	store.SetCurrentProject(project.ID)

	if _, err := store.AddProjectMember(ctx, project.ID, "user-1", types.RoleDeveloper); err != nil {
		t.Fatal(err)
	}
	current, _ := store.CurrentProject()
	if len(current.Members) != 1 || store.Projects()[0].Members[0].UserID != "user-1" {
		t.Fatalf("member not reflected: %+v", current.Members)
	}

	if err := store.RemoveProjectMember(ctx, project.ID, "user-1"); err != nil {
		t.Fatal(err)
	}
	current, _ = store.CurrentProject()
	if len(current.Members) != 0 {
		t.Fatalf("member not removed: %+v", current.Members)
	}
}

func TestCommentsOrderedAndScoped(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	store := New(api)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	api.comments["i-x"] = []types.CommentResponse{
		{ID: "late", IssueID: "i-x", CreatedAt: base.Add(time.Hour)},
		{ID: "early", IssueID: "i-x", CreatedAt: base},
	}
	api.comments["i-y"] = []types.CommentResponse{{ID: "other", IssueID: "i-y", CreatedAt: base}}

	if _, err := store.FetchIssueComments(ctx, "i-x"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.FetchIssueComments(ctx, "i-y"); err != nil {
		t.Fatal(err)
	}
	thread := store.IssueComments("i-x")
	if len(thread) != 2 || thread[0].ID != "early" || thread[1].ID != "late" {
		t.Fatalf("thread = %+v", thread)
	}

	added, err := store.CreateComment(ctx, "i-x", "hello", "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if got := store.IssueComments("i-x"); len(got) != 3 || got[2].ID != added.ID {
		t.Fatalf("new comment not appended: %+v", got)
	}
	if err := store.DeleteComment(ctx, "early"); err != nil {
		t.Fatal(err)
	}
	if got := store.IssueComments("i-x"); len(got) != 2 {
		t.Fatalf("comment not removed: %+v", got)
	}
	if got := store.IssueComments("i-y"); len(got) != 1 {
		t.Fatalf("other thread disturbed: %+v", got)
	}
}

func TestFetchUsers(t *testing.T) {
	api := newFakeAPI()
	api.users = []types.UserResponse{{ID: "u1", Name: "Ada"}}
	store := New(api)
	if _, err := store.FetchUsers(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := store.Users(); len(got) != 1 || got[0].Name != "Ada" {
		t.Fatalf("users = %+v", got)
	}
}

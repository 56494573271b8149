package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL+"/api", server.Client())
}

func TestUnwrapsEnvelopeAndBareEntity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/projects":
			_, _ = w.Write([]byte(`{"data":[{"id":"p1","key":"DEM","name":"Demo","members":[]}]}`))
		case "/api/projects/p1":
			_, _ = w.Write([]byte(`{"id":"p1","key":"DEM","name":"Demo","members":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	projects, err := c.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(projects) != 1 || projects[0].Key != "DEM" {
		t.Fatalf("unexpected projects: %+v", projects)
	}

	project, err := c.GetProject(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if project.ID != "p1" {
		t.Fatalf("unexpected project: %+v", project)
	}
}

func TestNormalizesAssigneeShapes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"id":"i1","projectId":"p1","key":"DEM-1","assignee":"u1"},
			{"id":"i2","projectId":"p1","key":"DEM-2","assignee":{"id":"u2","name":"Ben"}},
			{"id":"i3","projectId":"p1","key":"DEM-3","assigneeId":null,"assignee":null,"labels":null}
		]}`))
	})

	issues, err := c.ListIssues(context.Background(), "p1")
	if err != nil {
		t.Fatalf("list issues: %v", err)
	}
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %d", len(issues))
	}
	if issues[0].AssigneeID == nil || *issues[0].AssigneeID != "u1" || issues[0].Assignee != nil {
		t.Fatalf("id-only assignee not normalized: %+v", issues[0])
	}
	if issues[1].AssigneeID == nil || *issues[1].AssigneeID != "u2" || issues[1].Assignee == nil || issues[1].Assignee.Name != "Ben" {
		t.Fatalf("object assignee not normalized: %+v", issues[1])
	}
	if issues[2].AssigneeID != nil || issues[2].Assignee != nil || issues[2].Labels == nil {
		t.Fatalf("null assignee not normalized: %+v", issues[2])
	}
}

func TestSurfacesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer header")
		}
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"message":"Project key already exists"}}`))
	})
	c.SetToken("tok")

	_, err := c.CreateProject(context.Background(), ProjectInput{Name: "Demo", Key: "DEM"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected api error, got %v", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Error() != "Project key already exists" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestNetworkFailureIsGeneric(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	c := New(server.URL, nil)

	_, err := c.ListUsers(context.Background())
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected request failure, got %v", err)
	}
}

func TestLoginStoresToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"user":{"id":"u1","email":"una@example.com"},"token":"abc"}}`))
	})

	res, err := c.Login(context.Background(), "una@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.User.ID != "u1" || c.Token() != "abc" {
		t.Fatalf("unexpected login: %+v token=%q", res, c.Token())
	}
	c.Logout()
	if c.Token() != "" {
		t.Fatalf("logout should drop the token")
	}
}

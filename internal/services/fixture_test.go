package services_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/flowtrack-dev/flowtrack/db"
	"github.com/flowtrack-dev/flowtrack/internal/auth"
	"github.com/flowtrack-dev/flowtrack/internal/events/eventstest"
	"github.com/flowtrack-dev/flowtrack/internal/services"
	"github.com/flowtrack-dev/flowtrack/internal/types"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	services *services.Services
	events   *eventstest.Recorder
	lockout  *auth.MemoryLockout
	signer   *auth.Signer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	return newFixtureOn(t, openStore(t, db.DriverSqlite, dsn))
}

func openStore(t *testing.T, driver, dsn string) *gorm.DB {
	t.Helper()
	store, err := db.ConnectDatabase(driver, dsn)
	if err != nil {
		t.Fatalf("connect database: %v", err)
	}
	if err := db.MigrateDatabase(store); err != nil {
		t.Fatalf("migrate database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := store.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return store
}

func newFixtureOn(t *testing.T, store *gorm.DB) *fixture {
	t.Helper()

	signer, err := auth.NewSigner("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	recorder := &eventstest.Recorder{}
	lockout := auth.NewMemoryLockout(3, time.Minute)

	return &fixture{
		db: store,
		services: services.New(services.Deps{
			DB:        store,
			Signer:    signer,
			Hasher:    auth.NewHasher(bcrypt.MinCost),
			Lockout:   lockout,
			Publisher: recorder,
			Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		}),
		events:  recorder,
		lockout: lockout,
		signer:  signer,
	}
}

func (f *fixture) user(t *testing.T, name, email string) types.UserResponse {
	t.Helper()
	res, err := f.services.Auth.Register(context.Background(), services.RegisterInput{
		Name:     name,
		Email:    email,
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return res.User
}

func (f *fixture) project(t *testing.T, key string, creatorID string) types.ProjectResponse {
	t.Helper()
	project, err := f.services.Projects.Create(context.Background(), services.CreateProjectInput{
		Name:      "Project " + key,
		Key:       key,
		CreatorID: creatorID,
	})
	if err != nil {
		t.Fatalf("create project %s: %v", key, err)
	}
	return project
}

func (f *fixture) issue(t *testing.T, projectID, reporterID, title string) types.IssueResponse {
	t.Helper()
	issue, err := f.services.Issues.Create(context.Background(), projectID, services.CreateIssueInput{
		Title:      title,
		ReporterID: reporterID,
	})
	if err != nil {
		t.Fatalf("create issue %q: %v", title, err)
	}
	return issue
}

func (f *fixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

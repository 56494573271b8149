package db

import (
	"fmt"
	"testing"

	"github.com/flowtrack-dev/flowtrack/internal/auth"
	"github.com/flowtrack-dev/flowtrack/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedIsIdempotent(t *testing.T) {
	store, err := ConnectDatabase(DriverSqlite, fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := MigrateDatabase(store); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	hasher := auth.NewHasher(bcrypt.MinCost)
	for i := 0; i < 2; i++ {
		if err := Seed(store, hasher); err != nil {
			t.Fatalf("seed run %d: %v", i, err)
		}
	}

	var users, issues int64
	store.Model(&models.User{}).Count(&users)
	store.Model(&models.Issue{}).Count(&issues)
	if users != int64(len(seedUsers)) || issues != int64(len(seedIssues)) {
		t.Fatalf("unexpected counts: users=%d issues=%d", users, issues)
	}

	var project models.Project
	if err := store.Where(&models.Project{Key: "ECOM"}).First(&project).Error; err != nil {
		t.Fatalf("load seeded project: %v", err)
	}
	if project.IssueSeq != int64(len(seedIssues)) {
		t.Fatalf("issue counter not advanced: %d", project.IssueSeq)
	}
}

func TestConnectDatabaseRejectsUnknownDriver(t *testing.T) {
	if _, err := ConnectDatabase("oracle", "whatever"); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

package services

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/flowtrack-dev/flowtrack/db"
	"github.com/flowtrack-dev/flowtrack/internal/models"
	"github.com/flowtrack-dev/flowtrack/internal/types"
	"gorm.io/gorm"
)

// openSharedStore opens a file-backed sqlite store that allows several
// connections, so two transactions can be in flight at once.
func openSharedStore(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "flowtrack.db")
	dsn := "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	store, err := db.ConnectDatabase(db.DriverSqlite, dsn)
	if err != nil {
		t.Fatalf("connect database: %v", err)
	}
	if err := db.MigrateDatabase(store); err != nil {
		t.Fatalf("migrate database: %v", err)
	}

	sqlDB, err := store.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(4)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return store
}

func seedSeqProject(t *testing.T, store *gorm.DB) models.Project {
	t.Helper()

	user := models.User{Name: "Una", Email: "una@example.com", PasswordHash: "-", Role: types.RoleAdmin}
	if err := store.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	project := models.Project{Key: "SEQ", Name: "Sequence", Status: types.ProjectActive, CreatorID: user.ID}
	if err := store.Create(&project).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

type seqResult struct {
	seq int64
	err error
}

func TestNextIssueSeqHoldsReservationUntilCommit(t *testing.T) {
	store := openSharedStore(t)
	project := seedSeqProject(t, store)

	first := store.Begin()
	if first.Error != nil {
		t.Fatalf("begin first: %v", first.Error)
	}
	seq, err := nextIssueSeq(first, project.ID)
	if err != nil {
		t.Fatalf("first reservation: %v", err)
	}
	if seq != 1 {
		t.Fatalf("first reservation = %d, want 1", seq)
	}

	second := store.Begin()
	if second.Error != nil {
		t.Fatalf("begin second: %v", second.Error)
	}
	results := make(chan seqResult, 1)
	go func() {
		seq, err := nextIssueSeq(second, project.ID)
		results <- seqResult{seq: seq, err: err}
	}()

	select {
	case res := <-results:
		first.Rollback()
		second.Rollback()
		t.Fatalf("second reservation returned %d (%v) while the first was still open", res.seq, res.err)
	case <-time.After(200 * time.Millisecond):
	}

	if err := first.Commit().Error; err != nil {
		t.Fatalf("commit first: %v", err)
	}

	select {
	case res := <-results:
		if res.err != nil {
			second.Rollback()
			t.Fatalf("second reservation: %v", res.err)
		}
		if res.seq != 2 {
			second.Rollback()
			t.Fatalf("second reservation = %d, want 2", res.seq)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("second reservation never completed")
	}
	if err := second.Commit().Error; err != nil {
		t.Fatalf("commit second: %v", err)
	}
}

func TestNextIssueSeqIgnoresIssueRows(t *testing.T) {
	store := openSharedStore(t)
	project := seedSeqProject(t, store)

	// No issue rows are ever written; only the counter moves.
	for want := int64(1); want <= 3; want++ {
		var got int64
		err := store.Transaction(func(tx *gorm.DB) error {
			var err error
			got, err = nextIssueSeq(tx, project.ID)
			return err
		})
		if err != nil {
			t.Fatalf("reservation %d: %v", want, err)
		}
		if got != want {
			t.Fatalf("reservation = %d, want %d", got, want)
		}
	}

	rolledBack := store.Transaction(func(tx *gorm.DB) error {
		if _, err := nextIssueSeq(tx, project.ID); err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	if rolledBack == nil {
		t.Fatal("expected the transaction to roll back")
	}

	var stored models.Project
	if err := store.First(&stored, "id = ?", project.ID).Error; err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if stored.IssueSeq != 3 {
		t.Fatalf("issue_seq = %d, want 3 after rollback", stored.IssueSeq)
	}
}

func TestNextIssueSeqUnknownProject(t *testing.T) {
	store := openSharedStore(t)
	if _, err := nextIssueSeq(store, "missing"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

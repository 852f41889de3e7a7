package activity

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.AutoMigrate(&models.ActivityLog{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func TestRecordAndQuery(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db, nil)

	ledger.Record(Entry{
		ActorID:      7,
		Action:       "member.update",
		ResourceType: "member",
		ResourceID:   "M2026-001",
		Description:  "Phone number changed",
		OldValues:    map[string]string{"phone": "111"},
		NewValues:    map[string]string{"phone": "222"},
	})

	entries, total, err := ledger.Query(Filters{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if total != 1 || len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got total=%d len=%d", total, len(entries))
	}

	e := entries[0]
	if e.ActorID != 7 || e.Action != "member.update" {
		t.Errorf("Unexpected entry %+v", e)
	}
	if e.OldValues != `{"phone":"111"}` || e.NewValues != `{"phone":"222"}` {
		t.Errorf("Expected JSON snapshots, got old=%q new=%q", e.OldValues, e.NewValues)
	}
}

func TestRecordSwallowsFailures(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db, nil)

	// Drop the table so the insert fails; Record must not panic
	if err := db.Migrator().DropTable(&models.ActivityLog{}); err != nil {
		t.Fatalf("Failed to drop table: %v", err)
	}

	ledger.Record(Entry{Action: "member.update", ResourceType: "member"})
}

func TestQueryFilters(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db, nil)

	ledger.Record(Entry{ActorID: 1, Action: "membership.approve", ResourceType: "membership_request", ResourceID: "REQ-2026-001"})
	ledger.Record(Entry{ActorID: 1, Action: "membership.reject", ResourceType: "membership_request", ResourceID: "REQ-2026-002"})
	ledger.Record(Entry{ActorID: 2, Action: "user.update", ResourceType: "user", ResourceID: "5"})

	entries, total, _ := ledger.Query(Filters{ActorID: 1})
	if total != 2 {
		t.Errorf("Expected 2 entries for actor 1, got %d", total)
	}

	entries, total, _ = ledger.Query(Filters{Action: "membership."})
	if total != 2 {
		t.Errorf("Expected 2 entries for action substring, got %d", total)
	}

	entries, total, _ = ledger.Query(Filters{ResourceType: "user"})
	if total != 1 || entries[0].ResourceID != "5" {
		t.Errorf("Expected the user entry, got total=%d", total)
	}

	entries, _, _ = ledger.Query(Filters{ResourceID: "REQ-2026-002"})
	if len(entries) != 1 || entries[0].Action != "membership.reject" {
		t.Errorf("Expected the reject entry, got %d entries", len(entries))
	}
}

func TestQueryNewestFirstAndPaged(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db, nil)

	for i := 1; i <= 5; i++ {
		ledger.Record(Entry{Action: "page.update", ResourceType: "page", ResourceID: fmt.Sprintf("%d", i)})
	}

	entries, total, _ := ledger.Query(Filters{Limit: 2})
	if total != 5 {
		t.Errorf("Expected total 5, got %d", total)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected page of 2, got %d", len(entries))
	}
	if entries[0].ResourceID != "5" || entries[1].ResourceID != "4" {
		t.Errorf("Expected newest first, got %s then %s", entries[0].ResourceID, entries[1].ResourceID)
	}

	entries, _, _ = ledger.Query(Filters{Limit: 2, Offset: 4})
	if len(entries) != 1 || entries[0].ResourceID != "1" {
		t.Errorf("Expected last page with oldest entry, got %d entries", len(entries))
	}
}

func TestQueryTimeRange(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db, nil)

	old := models.ActivityLog{Action: "user.create", ResourceType: "user"}
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	db.Create(&old)

	ledger.Record(Entry{Action: "user.update", ResourceType: "user"})

	_, total, _ := ledger.Query(Filters{Since: time.Now().Add(-time.Hour)})
	if total != 1 {
		t.Errorf("Expected 1 recent entry, got %d", total)
	}

	_, total, _ = ledger.Query(Filters{Until: time.Now().Add(-24 * time.Hour)})
	if total != 1 {
		t.Errorf("Expected 1 old entry, got %d", total)
	}
}

func TestListEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	ledger := NewLedger(db, nil)
	ledger.Record(Entry{ActorID: 3, Action: "settings.update", ResourceType: "settings"})

	router := gin.New()
	NewHandler(db).RegisterRoutes(router.Group("/api/admin"))

	req, _ := http.NewRequest("GET", "/api/admin/activity?actor_id=3", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp ListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Total != 1 || len(resp.Entries) != 1 {
		t.Errorf("Expected 1 entry, got total=%d", resp.Total)
	}

	// Bad timestamps are rejected
	req, _ = http.NewRequest("GET", "/api/admin/activity?since=yesterday", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad since, got %d", w.Code)
	}
}

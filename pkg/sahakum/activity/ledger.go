package activity

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/models"
	"gorm.io/gorm"
)

// Entry is one auditable action. Actions follow the resource.verb
// convention, e.g. "membership.approve", "user.update".
type Entry struct {
	ActorID      uint
	Action       string
	ResourceType string
	ResourceID   string
	Description  string
	OldValues    interface{}
	NewValues    interface{}
}

// Ledger writes and reads the append-only activity log.
type Ledger struct {
	db  *gorm.DB
	log *slog.Logger
}

// NewLedger creates a ledger over the given database.
func NewLedger(db *gorm.DB, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{db: db, log: log}
}

// Record appends an entry. Failures are logged and swallowed: audit
// logging must never abort the caller's primary operation.
func (l *Ledger) Record(e Entry) {
	row := models.ActivityLog{
		ActorID:      e.ActorID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Description:  e.Description,
		OldValues:    marshalSnapshot(e.OldValues),
		NewValues:    marshalSnapshot(e.NewValues),
	}
	if err := l.db.Create(&row).Error; err != nil {
		l.log.Error("activity log write failed",
			"action", e.Action,
			"resource_type", e.ResourceType,
			"resource_id", e.ResourceID,
			"error", err)
	}
}

func marshalSnapshot(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Filters narrows a Query. Zero values mean "no filter".
type Filters struct {
	ActorID      uint
	Action       string // substring match
	ResourceType string
	ResourceID   string
	Since        time.Time
	Until        time.Time
	Limit        int
	Offset       int
}

// Query returns matching entries newest-first along with the total count.
func (l *Ledger) Query(f Filters) ([]models.ActivityLog, int64, error) {
	q := l.db.Model(&models.ActivityLog{})

	if f.ActorID != 0 {
		q = q.Where("actor_id = ?", f.ActorID)
	}
	if f.Action != "" {
		q = q.Where("action LIKE ?", "%"+f.Action+"%")
	}
	if f.ResourceType != "" {
		q = q.Where("resource_type = ?", f.ResourceType)
	}
	if f.ResourceID != "" {
		q = q.Where("resource_id = ?", f.ResourceID)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}
	if !f.Until.IsZero() {
		q = q.Where("created_at <= ?", f.Until)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var entries []models.ActivityLog
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(f.Offset).Find(&entries).Error
	return entries, total, err
}

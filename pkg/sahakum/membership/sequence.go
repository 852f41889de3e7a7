package membership

import (
	"fmt"
	"time"

	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/models"
	"gorm.io/gorm"
)

// Sequence names for the two year-scoped counters.
const (
	seqRequest = "membership_request"
	seqMember  = "member"
)

// nextNumber atomically allocates the next value of a year-scoped
// sequence inside tx. The single upsert statement makes concurrent
// callers serialize on the row instead of racing a read-then-write;
// numbers are monotonic per (name, year) and gap-tolerant.
func nextNumber(tx *gorm.DB, name string, year int) (int64, error) {
	err := tx.Exec(
		`INSERT INTO sequences (name, year, value) VALUES (?, ?, 1)
		 ON CONFLICT(name, year) DO UPDATE SET value = value + 1`,
		name, year,
	).Error
	if err != nil {
		return 0, err
	}

	var seq models.Sequence
	if err := tx.Where("name = ? AND year = ?", name, year).First(&seq).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}

// NextRequestNumber allocates a REQ-<year>-<seq> identifier.
func NextRequestNumber(tx *gorm.DB, now time.Time) (string, error) {
	year := now.Year()
	n, err := nextNumber(tx, seqRequest, year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("REQ-%d-%03d", year, n), nil
}

// NextMemberNumber allocates an M<year>-<seq> identifier.
func NextMemberNumber(tx *gorm.DB, now time.Time) (string, error) {
	year := now.Year()
	n, err := nextNumber(tx, seqMember, year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("M%d-%03d", year, n), nil
}

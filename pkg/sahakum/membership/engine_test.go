package membership

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/auth"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/models"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/roles"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

// recordingMailer captures sends for assertions
type recordingMailer struct {
	mu    sync.Mutex
	sends []sentMail
}

type sentMail struct {
	To      string
	Subject string
}

func (m *recordingMailer) Send(to, subject, htmlBody, textBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, sentMail{To: to, Subject: subject})
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sends)
}

// failingMailer always fails; approvals must still succeed
type failingMailer struct{}

func (m *failingMailer) Send(to, subject, htmlBody, textBody string) error {
	return errors.New("smtp unreachable")
}

func newTestEngine(db *gorm.DB) (*Engine, *recordingMailer) {
	rec := &recordingMailer{}
	return NewEngine(db, rec, nil, "http://localhost:8080"), rec
}

func validInput(email string) SubmitInput {
	return SubmitInput{
		FirstName:   "Sokha",
		LastName:    "Chan",
		Email:       email,
		Phone:       "+46701234567",
		AddressLine: "Storgatan 1",
		PostalCode:  "11122",
		City:        "Stockholm",
		Motivation:  "I want to help the community",
	}
}

func engineErr(t *testing.T, err error) *Error {
	t.Helper()
	if err == nil {
		t.Fatal("Expected an error")
	}
	e, ok := err.(*Error)
	if !ok {
		t.Fatalf("Expected *Error, got %T: %v", err, err)
	}
	return e
}

func TestSubmitCreatesPendingRequest(t *testing.T) {
	db := setupTestDB(t)
	engine, _ := newTestEngine(db)

	req, err := engine.Submit(validInput("a@x.se"))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	year := time.Now().Year()
	if req.RequestNumber != fmt.Sprintf("REQ-%d-001", year) {
		t.Errorf("Expected REQ-%d-001, got %s", year, req.RequestNumber)
	}
	if req.Status != models.StatusPending {
		t.Errorf("Expected status PENDING, got %s", req.Status)
	}
	if req.ReferenceToken == "" {
		t.Error("Expected a reference token")
	}
	if req.MembershipType != models.MembershipRegular {
		t.Errorf("Expected default REGULAR type, got %s", req.MembershipType)
	}
}

func TestSubmitValidation(t *testing.T) {
	db := setupTestDB(t)
	engine, _ := newTestEngine(db)

	cases := []struct {
		name   string
		mutate func(*SubmitInput)
	}{
		{"missing first name", func(in *SubmitInput) { in.FirstName = "" }},
		{"missing address", func(in *SubmitInput) { in.AddressLine = " " }},
		{"missing city", func(in *SubmitInput) { in.City = "" }},
		{"invalid email", func(in *SubmitInput) { in.Email = "not-an-email" }},
		{"short motivation", func(in *SubmitInput) { in.Motivation = "too short" }},
		{"unknown type", func(in *SubmitInput) { in.MembershipType = "PLATINUM" }},
	}

	for _, tc := range cases {
		in := validInput("v@x.se")
		tc.mutate(&in)
		_, err := engine.Submit(in)
		e := engineErr(t, err)
		if e.Kind != KindValidation {
			t.Errorf("%s: expected validation error, got %s/%s", tc.name, e.Kind, e.Code)
		}
	}

	var count int64
	db.Model(&models.MembershipRequest{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no rows after validation failures, got %d", count)
	}
}

func TestSubmitDuplicateApplication(t *testing.T) {
	db := setupTestDB(t)
	engine, _ := newTestEngine(db)

	if _, err := engine.Submit(validInput("dup@x.se")); err != nil {
		t.Fatalf("First submit failed: %v", err)
	}

	_, err := engine.Submit(validInput("dup@x.se"))
	e := engineErr(t, err)
	if e.Code != CodeDuplicateApplication {
		t.Errorf("Expected DUPLICATE_APPLICATION, got %s", e.Code)
	}

	var count int64
	db.Model(&models.MembershipRequest{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected exactly 1 request row, got %d", count)
	}
}

func TestSubmitDuplicateOfRejectedAllowed(t *testing.T) {
	db := setupTestDB(t)
	engine, _ := newTestEngine(db)

	req, _ := engine.Submit(validInput("again@x.se"))
	if _, err := engine.Reject(req.ID, 1, "incomplete"); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	// A rejected application does not block a fresh one
	if _, err := engine.Submit(validInput("again@x.se")); err != nil {
		t.Errorf("Expected resubmission after rejection to succeed, got %v", err)
	}
}

func TestSubmitEmailOfExistingMemberRejected(t *testing.T) {
	db := setupTestDB(t)
	engine, _ := newTestEngine(db)

	db.Create(&models.Member{
		MemberNumber: "M2020-001",
		FirstName:    "Old",
		LastName:     "Member",
		Email:        "member@x.se",
		JoinedAt:     time.Now(),
		Active:       true,
	})

	_, err := engine.Submit(validInput("member@x.se"))
	e := engineErr(t, err)
	if e.Code != CodeDuplicateApplication {
		t.Errorf("Expected DUPLICATE_APPLICATION for member email, got %s", e.Code)
	}
}

func TestSequentialNumbersWithinYear(t *testing.T) {
	db := setupTestDB(t)
	engine, _ := newTestEngine(db)

	year := time.Now().Year()
	for i := 1; i <= 3; i++ {
		req, err := engine.Submit(validInput(fmt.Sprintf("seq%d@x.se", i)))
		if err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
		expected := fmt.Sprintf("REQ-%d-%03d", year, i)
		if req.RequestNumber != expected {
			t.Errorf("Expected %s, got %s", expected, req.RequestNumber)
		}
	}
}

func TestConcurrentSubmitsGetUniqueNumbers(t *testing.T) {
	// Shared-cache DSN with a single connection: concurrency happens at
	// the engine level while SQLite serializes the writes.
	db, err := gorm.Open(sqlite.Open("file:concurrent_submit?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	engine, _ := newTestEngine(db)

	const n = 8
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, err := engine.Submit(validInput(fmt.Sprintf("conc%d@x.se", i)))
			if err != nil {
				errs <- err
				return
			}
			numbers <- req.RequestNumber
		}(i)
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		t.Fatalf("Concurrent submit failed: %v", err)
	}

	pattern := regexp.MustCompile(`^REQ-\d{4}-\d{3,}$`)
	seen := make(map[string]bool)
	for num := range numbers {
		if !pattern.MatchString(num) {
			t.Errorf("Request number %s does not match pattern", num)
		}
		if seen[num] {
			t.Errorf("Duplicate request number %s", num)
		}
		seen[num] = true
	}
	if len(seen) != n {
		t.Errorf("Expected %d unique numbers, got %d", n, len(seen))
	}
}

func TestTransitionStatusRecordsHistory(t *testing.T) {
	db := setupTestDB(t)
	engine, _ := newTestEngine(db)

	req, _ := engine.Submit(validInput("flow@x.se"))

	updated, err := engine.TransitionStatus(req.ID, models.StatusUnderReview, 42, "looks promising")
	if err != nil {
		t.Fatalf("TransitionStatus failed: %v", err)
	}
	if updated.Status != models.StatusUnderReview {
		t.Errorf("Expected UNDER_REVIEW, got %s", updated.Status)
	}

	var history []models.RequestStatusHistory
	db.Where("request_id = ?", req.ID).Find(&history)
	if len(history) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(history))
	}
	if history[0].FromStatus != models.StatusPending || history[0].ToStatus != models.StatusUnderReview {
		t.Errorf("Unexpected history %s -> %s", history[0].FromStatus, history[0].ToStatus)
	}
	if history[0].ActorID == nil || *history[0].ActorID != 42 {
		t.Error("Expected actor recorded in history")
	}
}

func TestTransitionStatusGuards(t *testing.T) {
	db := setupTestDB(t)
	engine, _ := newTestEngine(db)

	req, _ := engine.Submit(validInput("guards@x.se"))

	if _, err := engine.TransitionStatus(9999, models.StatusUnderReview, 1, ""); engineErr(t, err).Code != CodeNotFound {
		t.Error("Expected NOT_FOUND for missing request")
	}

	if _, err := engine.TransitionStatus(req.ID, "SHIPPED", 1, ""); engineErr(t, err).Kind != KindValidation {
		t.Error("Expected validation error for unknown status")
	}

	if _, err := engine.TransitionStatus(req.ID, models.StatusApproved, 1, ""); engineErr(t, err).Code != CodeInvalidTransition {
		t.Error("Expected INVALID_STATE_TRANSITION for approval via transition")
	}
}

func TestApproveEndToEnd(t *testing.T) {
	db := setupTestDB(t)
	engine, rec := newTestEngine(db)

	req, _ := engine.Submit(validInput("a@x.se"))

	result, err := engine.Approve(req.ID, 1, "welcome aboard")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	year := time.Now().Year()
	if result.Member.MemberNumber != fmt.Sprintf("M%d-001", year) {
		t.Errorf("Expected M%d-001, got %s", year, result.Member.MemberNumber)
	}
	if result.Request.Status != models.StatusApproved {
		t.Errorf("Expected APPROVED, got %s", result.Request.Status)
	}
	if result.User.Role != roles.RoleUser {
		t.Errorf("Expected USER role, got %s", result.User.Role)
	}
	if !result.User.Active {
		t.Error("Expected created account to be active")
	}
	if result.TempPassword == "" {
		t.Fatal("Expected a temporary password")
	}
	if !auth.CheckPassword(result.TempPassword, result.User.PasswordHash) {
		t.Error("Temporary password should validate against the stored hash")
	}

	// Member is linked back to the request and the user
	var stored models.MembershipRequest
	db.First(&stored, req.ID)
	if stored.MemberID == nil || *stored.MemberID != result.Member.ID {
		t.Error("Expected request to link the created member")
	}
	if result.Member.UserID == nil || *result.Member.UserID != result.User.ID {
		t.Error("Expected member to link the created user")
	}

	// Approval and credentials notices both dispatched after commit
	if rec.count() != 2 {
		t.Errorf("Expected 2 notification emails, got %d", rec.count())
	}

	// Terminal absorption: a later reject fails and changes nothing
	if _, err := engine.Reject(req.ID, 1, "changed my mind"); engineErr(t, err).Code != CodeAlreadyTerminal {
		t.Error("Expected ALREADY_TERMINAL after approval")
	}
	db.First(&stored, req.ID)
	if stored.Status != models.StatusApproved {
		t.Errorf("Terminal state must be unchanged, got %s", stored.Status)
	}
}

func TestApproveWrongTrack(t *testing.T) {
	db := setupTestDB(t)
	engine, _ := newTestEngine(db)

	in := validInput("vote@x.se")
	in.ApprovalTrack = models.TrackBoardVote
	req, _ := engine.Submit(in)

	_, err := engine.Approve(req.ID, 1, "")
	if engineErr(t, err).Code != CodeWrongApprovalTrack {
		t.Errorf("Expected WRONG_APPROVAL_TRACK, got %s", engineErr(t, err).Code)
	}
}

func TestApproveRaceAgainstExistingMember(t *testing.T) {
	db := setupTestDB(t)
	engine, _ := newTestEngine(db)

	req, _ := engine.Submit(validInput("race@x.se"))

	// Another approval created a member with this email in the meantime
	db.Create(&models.Member{
		MemberNumber: "M2020-099",
		FirstName:    "Racing",
		LastName:     "Member",
		Email:        "race@x.se",
		JoinedAt:     time.Now(),
		Active:       true,
	})

	_, err := engine.Approve(req.ID, 1, "")
	if engineErr(t, err).Code != CodeEmailAlreadyMember {
		t.Errorf("Expected EMAIL_ALREADY_MEMBER, got %s", engineErr(t, err).Code)
	}

	var stored models.MembershipRequest
	db.First(&stored, req.ID)
	if stored.Status != models.StatusPending {
		t.Errorf("Failed approval must leave request PENDING, got %s", stored.Status)
	}
}

func TestApproveRollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	engine, _ := newTestEngine(db)

	req, _ := engine.Submit(validInput("rollback@x.se"))

	// Occupy the member number the approval will try to allocate so the
	// member insert fails after the user row was already created.
	year := time.Now().Year()
	db.Create(&models.Member{
		MemberNumber: fmt.Sprintf("M%d-001", year),
		FirstName:    "Blocking",
		LastName:     "Row",
		Email:        "other@x.se",
		JoinedAt:     time.Now(),
		Active:       true,
	})

	_, err := engine.Approve(req.ID, 1, "")
	if err == nil {
		t.Fatal("Expected approval to fail")
	}

	// Full rollback: no user row leaked, request untouched
	var userCount int64
	db.Model(&models.User{}).Where("email = ?", "rollback@x.se").Count(&userCount)
	if userCount != 0 {
		t.Errorf("Expected no user after rollback, found %d", userCount)
	}

	var stored models.MembershipRequest
	db.First(&stored, req.ID)
	if stored.Status != models.StatusPending {
		t.Errorf("Expected request still PENDING after rollback, got %s", stored.Status)
	}
}

func TestApproveSurvivesMailerFailure(t *testing.T) {
	db := setupTestDB(t)
	engine := NewEngine(db, &failingMailer{}, nil, "http://localhost:8080")

	req, _ := engine.Submit(validInput("nomail@x.se"))

	result, err := engine.Approve(req.ID, 1, "")
	if err != nil {
		t.Fatalf("Approve must not fail on mailer errors: %v", err)
	}
	if result.Request.Status != models.StatusApproved {
		t.Errorf("Expected APPROVED, got %s", result.Request.Status)
	}
}

func TestApproveReusesExistingAccount(t *testing.T) {
	db := setupTestDB(t)
	engine, rec := newTestEngine(db)

	existing := models.User{
		Email:        "author@x.se",
		Name:         "Existing Author",
		PasswordHash: "$2a$10$existinghash",
		Role:         roles.RoleAuthor,
		Active:       true,
	}
	db.Create(&existing)

	req, _ := engine.Submit(validInput("author@x.se"))
	result, err := engine.Approve(req.ID, 1, "")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	if result.User.ID != existing.ID {
		t.Error("Expected existing account to be linked, not a new one")
	}
	if result.TempPassword != "" {
		t.Error("Existing account must keep its password")
	}
	if result.User.Role != roles.RoleAuthor {
		t.Errorf("Existing account role must be preserved, got %s", result.User.Role)
	}
	// Only the approval notice goes out, no credentials mail
	if rec.count() != 1 {
		t.Errorf("Expected 1 email for reused account, got %d", rec.count())
	}
}

func TestRejectRecordsReason(t *testing.T) {
	db := setupTestDB(t)
	engine, _ := newTestEngine(db)

	req, _ := engine.Submit(validInput("no@x.se"))

	updated, err := engine.Reject(req.ID, 7, "application incomplete")
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if updated.Status != models.StatusRejected {
		t.Errorf("Expected REJECTED, got %s", updated.Status)
	}
	if updated.ReviewedByID == nil || *updated.ReviewedByID != 7 {
		t.Error("Expected reviewer recorded")
	}

	var history models.RequestStatusHistory
	db.Where("request_id = ? AND to_status = ?", req.ID, models.StatusRejected).First(&history)
	if history.Notes != "application incomplete" {
		t.Errorf("Expected reason in history, got %q", history.Notes)
	}
}

func TestWithdraw(t *testing.T) {
	db := setupTestDB(t)
	engine, _ := newTestEngine(db)

	req, _ := engine.Submit(validInput("bye@x.se"))

	// Wrong token is denied
	if err := engine.Withdraw(req.ID, "wrong-token"); engineErr(t, err).Kind != KindAuthorization {
		t.Error("Expected authorization error for wrong token")
	}

	if err := engine.Withdraw(req.ID, req.ReferenceToken); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}

	// Hard delete: the row is gone entirely
	var count int64
	db.Unscoped().Model(&models.MembershipRequest{}).Where("id = ?", req.ID).Count(&count)
	if count != 0 {
		t.Errorf("Expected request hard-deleted, found %d rows", count)
	}
}

func TestWithdrawOnlyWhilePending(t *testing.T) {
	db := setupTestDB(t)
	engine, _ := newTestEngine(db)

	req, _ := engine.Submit(validInput("late@x.se"))
	engine.TransitionStatus(req.ID, models.StatusUnderReview, 1, "")

	err := engine.Withdraw(req.ID, req.ReferenceToken)
	if engineErr(t, err).Code != CodeNotPending {
		t.Errorf("Expected NOT_PENDING, got %s", engineErr(t, err).Code)
	}
}

func TestCreateAccountForApprovedMember(t *testing.T) {
	db := setupTestDB(t)
	engine, _ := newTestEngine(db)

	req, _ := engine.Submit(validInput("manual@x.se"))

	// Not yet approved
	if _, err := engine.CreateAccountForApprovedMember(req.ID, 1); engineErr(t, err).Code != CodeNotApproved {
		t.Error("Expected NOT_APPROVED before approval")
	}

	result, err := engine.Approve(req.ID, 1, "")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	// Approval already provisioned an account
	if _, err := engine.CreateAccountForApprovedMember(req.ID, 1); engineErr(t, err).Code != CodeAccountExists {
		t.Error("Expected ACCOUNT_ALREADY_EXISTS after approval created one")
	}

	// Detach the account to simulate a member without a login
	db.Model(result.Member).Update("user_id", nil)
	db.Unscoped().Delete(&models.User{}, result.User.ID)

	account, err := engine.CreateAccountForApprovedMember(req.ID, 1)
	if err != nil {
		t.Fatalf("CreateAccountForApprovedMember failed: %v", err)
	}
	if account.TempPassword == "" {
		t.Error("Expected a temporary password")
	}
	if !auth.CheckPassword(account.TempPassword, account.User.PasswordHash) {
		t.Error("Temporary password should validate")
	}

	var member models.Member
	db.First(&member, result.Member.ID)
	if member.UserID == nil || *member.UserID != account.User.ID {
		t.Error("Expected member linked to the new account")
	}
}

func TestActivityRecordedForLifecycle(t *testing.T) {
	db := setupTestDB(t)
	engine, _ := newTestEngine(db)

	req, _ := engine.Submit(validInput("audit@x.se"))
	engine.TransitionStatus(req.ID, models.StatusUnderReview, 3, "")
	engine.Approve(req.ID, 3, "")

	var actions []string
	db.Model(&models.ActivityLog{}).Order("id ASC").Pluck("action", &actions)

	expected := []string{"membership.submit", "membership.transition", "membership.approve"}
	if len(actions) != len(expected) {
		t.Fatalf("Expected %d ledger entries, got %d: %v", len(expected), len(actions), actions)
	}
	for i, a := range expected {
		if actions[i] != a {
			t.Errorf("Expected action %s at %d, got %s", a, i, actions[i])
		}
	}
}

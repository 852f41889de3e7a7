package membership

import (
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/activity"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/auth"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/mailer"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/models"
	"github.com/raingseivirak/sahakum-portal/pkg/sahakum/roles"
	"gorm.io/gorm"
)

const tempPasswordLength = 12

// Engine runs the membership-request lifecycle. It holds no cross-request
// state of its own; all shared state lives in the database and every
// multi-write operation runs inside a single transaction.
type Engine struct {
	db      *gorm.DB
	mail    mailer.Mailer
	ledger  *activity.Ledger
	log     *slog.Logger
	baseURL string
}

// NewEngine creates a membership engine.
func NewEngine(db *gorm.DB, m mailer.Mailer, log *slog.Logger, baseURL string) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if m == nil {
		m = mailer.NewLogMailer(log)
	}
	return &Engine{
		db:      db,
		mail:    m,
		ledger:  activity.NewLedger(db, log),
		log:     log,
		baseURL: baseURL,
	}
}

// SubmitInput is a new application. All fields except Phone are required;
// the motivation must be at least 10 characters.
type SubmitInput struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	AddressLine    string
	PostalCode     string
	City           string
	Country        string
	Motivation     string
	MembershipType models.MembershipType
	ApprovalTrack  models.ApprovalTrack
}

func (in *SubmitInput) validate() *Error {
	var missing []string
	for field, value := range map[string]string{
		"first_name":   in.FirstName,
		"last_name":    in.LastName,
		"email":        in.Email,
		"address_line": in.AddressLine,
		"postal_code":  in.PostalCode,
		"city":         in.City,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return validationErr(CodeValidationFailed,
			"missing required fields: "+strings.Join(missing, ", "))
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return validationErr(CodeValidationFailed, "invalid email address")
	}
	if len(strings.TrimSpace(in.Motivation)) < 10 {
		return validationErr(CodeValidationFailed, "motivation must be at least 10 characters")
	}
	if in.MembershipType != "" && !models.ValidMembershipType(in.MembershipType) {
		return validationErr(CodeValidationFailed, "unknown membership type")
	}
	return nil
}

// Submit validates an application, rejects duplicates and persists it as
// PENDING with a freshly allocated request number.
func (e *Engine) Submit(in SubmitInput) (*models.MembershipRequest, error) {
	if verr := in.validate(); verr != nil {
		return nil, verr
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	membershipType := in.MembershipType
	if membershipType == "" {
		membershipType = models.MembershipRegular
	}
	track := in.ApprovalTrack
	if track == "" {
		track = models.TrackStandard
	}
	country := in.Country
	if country == "" {
		country = "Sweden"
	}

	var req models.MembershipRequest
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.MembershipRequest{}).
			Where("email = ? AND status IN ?", email, []models.RequestStatus{
				models.StatusPending, models.StatusUnderReview, models.StatusApproved,
			}).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflictErr(CodeDuplicateApplication,
				"email already has a pending or approved application")
		}

		if err := tx.Model(&models.Member{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflictErr(CodeDuplicateApplication,
				"email already belongs to an existing member")
		}

		number, err := NextRequestNumber(tx, time.Now())
		if err != nil {
			return err
		}

		req = models.MembershipRequest{
			RequestNumber:  number,
			ReferenceToken: uuid.NewString(),
			FirstName:      strings.TrimSpace(in.FirstName),
			LastName:       strings.TrimSpace(in.LastName),
			Email:          email,
			Phone:          strings.TrimSpace(in.Phone),
			AddressLine:    strings.TrimSpace(in.AddressLine),
			PostalCode:     strings.TrimSpace(in.PostalCode),
			City:           strings.TrimSpace(in.City),
			Country:        country,
			Motivation:     strings.TrimSpace(in.Motivation),
			MembershipType: membershipType,
			Status:         models.StatusPending,
			ApprovalTrack:  track,
		}
		return tx.Create(&req).Error
	})
	if err != nil {
		return nil, e.asEngineError(err)
	}

	e.ledger.Record(activity.Entry{
		Action:       "membership.submit",
		ResourceType: "membership_request",
		ResourceID:   req.RequestNumber,
		Description:  fmt.Sprintf("Application submitted by %s", req.Email),
	})

	return &req, nil
}

// TransitionStatus moves a non-terminal request to a new review status and
// records a status-history entry. Both writes commit or fail together.
// APPROVED cannot be reached this way; Approve owns that transition.
func (e *Engine) TransitionStatus(requestID uint, newStatus models.RequestStatus, actorID uint, notes string) (*models.MembershipRequest, error) {
	if !models.ValidRequestStatus(newStatus) {
		return nil, validationErr(CodeValidationFailed, "unknown status")
	}
	if newStatus == models.StatusApproved {
		return nil, conflictErr(CodeInvalidTransition,
			"approval must go through the approve operation")
	}

	var req models.MembershipRequest
	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, requestID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return notFoundErr(CodeNotFound, "membership request not found")
			}
			return err
		}
		if req.Status.Terminal() {
			return conflictErr(CodeAlreadyTerminal,
				fmt.Sprintf("request is already %s", req.Status))
		}

		history := models.RequestStatusHistory{
			RequestID:  req.ID,
			FromStatus: req.Status,
			ToStatus:   newStatus,
			ActorID:    &actorID,
			Notes:      notes,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"status": newStatus}
		if newStatus == models.StatusRejected {
			now := time.Now()
			updates["reviewed_by_id"] = actorID
			updates["reviewed_at"] = now
		}
		if err := tx.Model(&req).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&req, requestID).Error
	})
	if err != nil {
		return nil, e.asEngineError(err)
	}

	e.ledger.Record(activity.Entry{
		ActorID:      actorID,
		Action:       "membership.transition",
		ResourceType: "membership_request",
		ResourceID:   req.RequestNumber,
		Description:  fmt.Sprintf("Status changed to %s", req.Status),
	})

	return &req, nil
}

// ApprovalResult is what a successful approval produces. TempPassword is
// returned in plaintext exactly once, for email delivery; it is never
// stored.
type ApprovalResult struct {
	Request      *models.MembershipRequest
	Member       *models.Member
	User         *models.User
	TempPassword string
}

// Approve turns a non-terminal standard-track request into a member with a
// login account, all in one transaction: member number allocation, user
// creation with a hashed temporary password, member creation and the
// request's terminal status update. Notification email goes out only
// after commit and never fails the operation.
func (e *Engine) Approve(requestID, actorID uint, adminNotes string) (*ApprovalResult, error) {
	var (
		req          models.MembershipRequest
		member       models.Member
		user         models.User
		tempPassword string
		reusedUser   bool
	)

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, requestID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return notFoundErr(CodeNotFound, "membership request not found")
			}
			return err
		}
		if req.Status.Terminal() {
			return conflictErr(CodeAlreadyTerminal,
				fmt.Sprintf("request is already %s", req.Status))
		}
		if req.ApprovalTrack != models.TrackStandard {
			return conflictErr(CodeWrongApprovalTrack,
				"request is on the board-vote approval track")
		}

		// Re-check inside the transaction: a duplicate application for the
		// same person may have been approved since submission.
		var count int64
		if err := tx.Model(&models.Member{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflictErr(CodeEmailAlreadyMember,
				"email already belongs to an existing member")
		}

		now := time.Now()
		memberNumber, err := NextMemberNumber(tx, now)
		if err != nil {
			return err
		}

		// An applicant may already hold an account (e.g. an author joining
		// as a member). Link it instead of creating a second login.
		err = tx.Where("email = ?", req.Email).First(&user).Error
		switch {
		case err == nil:
			reusedUser = true
		case err == gorm.ErrRecordNotFound:
			tempPassword, err = auth.GenerateTempPassword(tempPasswordLength)
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(tempPassword)
			if err != nil {
				return err
			}
			user = models.User{
				Email:        req.Email,
				PasswordHash: hash,
				Name:         req.FirstName + " " + req.LastName,
				Role:         roles.RoleUser,
				Active:       true,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
		default:
			return err
		}

		member = models.Member{
			MemberNumber:   memberNumber,
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			Email:          req.Email,
			Phone:          req.Phone,
			MembershipType: req.MembershipType,
			Active:         true,
			JoinedAt:       now,
			UserID:         &user.ID,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}

		history := models.RequestStatusHistory{
			RequestID:  req.ID,
			FromStatus: req.Status,
			ToStatus:   models.StatusApproved,
			ActorID:    &actorID,
			Notes:      adminNotes,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":         models.StatusApproved,
			"reviewed_by_id": actorID,
			"reviewed_at":    now,
			"member_id":      member.ID,
		}
		if adminNotes != "" {
			updates["admin_notes"] = adminNotes
		}
		if err := tx.Model(&req).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&req, requestID).Error
	})
	if err != nil {
		return nil, e.asEngineError(err)
	}

	e.ledger.Record(activity.Entry{
		ActorID:      actorID,
		Action:       "membership.approve",
		ResourceType: "membership_request",
		ResourceID:   req.RequestNumber,
		Description:  fmt.Sprintf("Approved; member %s created", member.MemberNumber),
		NewValues:    map[string]interface{}{"member_number": member.MemberNumber, "user_id": user.ID},
	})

	e.sendApprovalNotices(&req, &member, &user, tempPassword, reusedUser)

	return &ApprovalResult{
		Request:      &req,
		Member:       &member,
		User:         &user,
		TempPassword: tempPassword,
	}, nil
}

// Reject moves a non-terminal request to REJECTED with a reason.
func (e *Engine) Reject(requestID, actorID uint, reason string) (*models.MembershipRequest, error) {
	req, err := e.TransitionStatus(requestID, models.StatusRejected, actorID, reason)
	if err != nil {
		return nil, err
	}

	if reason != "" {
		if err := e.db.Model(req).Update("admin_notes", reason).Error; err != nil {
			e.log.Error("failed to record rejection reason", "request", req.RequestNumber, "error", err)
		}
	}
	return req, nil
}

// Withdraw hard-deletes a still-pending request. The reference token
// issued at submission proves the caller is the original applicant; this
// is the only legal delete path and only before any decision.
func (e *Engine) Withdraw(requestID uint, referenceToken string) error {
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var req models.MembershipRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return notFoundErr(CodeNotFound, "membership request not found")
			}
			return err
		}
		if req.ReferenceToken != referenceToken {
			return forbiddenErr(CodeForbidden, "only the original applicant may withdraw")
		}
		if req.Status != models.StatusPending {
			return conflictErr(CodeNotPending,
				fmt.Sprintf("request is %s and can no longer be withdrawn", req.Status))
		}

		if err := tx.Where("request_id = ?", req.ID).Delete(&models.RequestStatusHistory{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&req).Error
	})
	return e.asEngineError(err)
}

// AccountResult is what manual account creation produces.
type AccountResult struct {
	User         *models.User
	TempPassword string
}

// CreateAccountForApprovedMember is the remediation path when approval
// succeeded but no login account exists for the member (or the
// credentials mail was lost before the account existed). Independently
// retryable.
func (e *Engine) CreateAccountForApprovedMember(requestID, actorID uint) (*AccountResult, error) {
	var (
		req          models.MembershipRequest
		member       models.Member
		user         models.User
		tempPassword string
	)

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, requestID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return notFoundErr(CodeNotFound, "membership request not found")
			}
			return err
		}
		if req.Status != models.StatusApproved {
			return conflictErr(CodeNotApproved, "request has not been approved")
		}
		if req.MemberID == nil {
			return notFoundErr(CodeNotFound, "approved request has no linked member")
		}
		if err := tx.First(&member, *req.MemberID).Error; err != nil {
			return err
		}
		if member.UserID != nil {
			return conflictErr(CodeAccountExists, "member already has a login account")
		}

		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", member.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflictErr(CodeAccountExists, "an account with this email already exists")
		}

		var err error
		tempPassword, err = auth.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return err
		}
		hash, err := auth.HashPassword(tempPassword)
		if err != nil {
			return err
		}
		user = models.User{
			Email:        member.Email,
			PasswordHash: hash,
			Name:         member.FirstName + " " + member.LastName,
			Role:         roles.RoleUser,
			Active:       true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Model(&member).Update("user_id", user.ID).Error
	})
	if err != nil {
		return nil, e.asEngineError(err)
	}

	e.ledger.Record(activity.Entry{
		ActorID:      actorID,
		Action:       "membership.create_account",
		ResourceType: "member",
		ResourceID:   member.MemberNumber,
		Description:  fmt.Sprintf("Login account created for %s", member.Email),
	})

	subject, htmlBody, textBody := mailer.CredentialsEmail(member.FirstName, user.Email, tempPassword, e.baseURL)
	if err := e.mail.Send(user.Email, subject, htmlBody, textBody); err != nil {
		e.log.Error("credentials email failed", "to", user.Email, "error", err)
	}

	return &AccountResult{User: &user, TempPassword: tempPassword}, nil
}

// GetByReference returns a request by its applicant-held reference token.
func (e *Engine) GetByReference(referenceToken string) (*models.MembershipRequest, error) {
	var req models.MembershipRequest
	if err := e.db.Where("reference_token = ?", referenceToken).First(&req).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFoundErr(CodeNotFound, "membership request not found")
		}
		return nil, e.asEngineError(err)
	}
	return &req, nil
}

// sendApprovalNotices dispatches the post-commit notification pair.
// Failures are logged, never propagated: the approval already committed.
func (e *Engine) sendApprovalNotices(req *models.MembershipRequest, member *models.Member, user *models.User, tempPassword string, reusedUser bool) {
	subject, htmlBody, textBody := mailer.ApprovalEmail(member.FirstName, member.MemberNumber)
	if err := e.mail.Send(req.Email, subject, htmlBody, textBody); err != nil {
		e.log.Error("approval email failed", "to", req.Email, "error", err)
	}

	if reusedUser {
		// Existing account keeps its password; no credentials to deliver.
		return
	}

	subject, htmlBody, textBody = mailer.CredentialsEmail(member.FirstName, user.Email, tempPassword, e.baseURL)
	if err := e.mail.Send(req.Email, subject, htmlBody, textBody); err != nil {
		e.log.Error("credentials email failed", "to", req.Email, "error", err)
	}
}

// asEngineError passes tagged errors through and wraps anything else
// (driver failures, rolled-back transactions) as infrastructure.
func (e *Engine) asEngineError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*Error); ok {
		return err
	}
	e.log.Error("membership engine storage failure", "error", err)
	return infraErr("storage failure, please retry")
}

package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"nutrition-intake/internal/delivery/dto"
	"nutrition-intake/internal/domain/entity"
	"nutrition-intake/internal/domain/repository"
	"nutrition-intake/internal/ratelimit"
	"nutrition-intake/pkg/retry"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Outcome classifies the result of a gateway call.
type Outcome string

const (
	OutcomeSaved       Outcome = "saved"
	OutcomeFound       Outcome = "found"
	OutcomeInvalid     Outcome = "invalid"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeTimeout     Outcome = "timeout"
	OutcomeConnection  Outcome = "connection"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeFailed      Outcome = "failed"
)

// Rate limiter actions.
const (
	LimitActionSave    = "profile.save"
	LimitActionRecover = "profile.recover"
)

const (
	MsgSaved            = "Profile saved successfully."
	MsgFound            = "Profile loaded successfully."
	MsgInvalid          = "Please correct the highlighted fields and try again."
	MsgNotFound         = "Profile not found. Please check the profile code or create a new profile."
	MsgRecoveryNotFound = "No profile matches those security answers. Please check your answers and try again."
	MsgTimeout          = "The request timed out. Please try again in a moment."
	MsgConnection       = "Could not reach the profile store. Please check your connection and try again."
	MsgDuplicate        = "A profile with this code already exists. Please submit again."
)

// Result is the structured answer of every gateway call. Failures never
// surface as errors; Outcome and Message describe them.
type Result struct {
	OK         bool
	Outcome    Outcome
	Message    string
	Profile    *entity.Profile
	Errors     map[string]string
	RetryAfter time.Duration

	// Err is the Attach error when the attachment could not be stored.
	Err error
}

// TestKitFile references an uploaded test-kit result.
type TestKitFile struct {
	URL      string
	Filename string
}

// SaveRequest is one submission. Previous is the current stored row for a
// returning identifier; its test-kit result carries over unless TestKit
// replaces it. Attach, when set, runs only after the form has passed
// validation and the rate limit, and the file it returns becomes TestKit.
type SaveRequest struct {
	Form     *dto.IntakeForm
	Previous *entity.Profile
	TestKit  *TestKitFile
	Attach   func(ctx context.Context) (*TestKitFile, error)
}

type ProfileGateway interface {
	Save(ctx context.Context, req SaveRequest) Result
	Load(ctx context.Context, userID string) Result
	LoadByRecovery(ctx context.Context, pairs [entity.RecoveryQuestions]entity.RecoveryPair) Result
}

type profileGateway struct {
	db              *gorm.DB
	log             *logrus.Logger
	validator       *ProfileValidator
	profileRepo     repository.ProfileRepository
	auditService    AuditService
	saveLimiter     ratelimit.Limiter
	recoveryLimiter ratelimit.Limiter
	retry           retry.Policy
}

func NewProfileGateway(
	db *gorm.DB,
	log *logrus.Logger,
	validator *ProfileValidator,
	profileRepo repository.ProfileRepository,
	auditService AuditService,
	saveLimiter ratelimit.Limiter,
	recoveryLimiter ratelimit.Limiter,
	retryPolicy retry.Policy,
) ProfileGateway {
	return &profileGateway{
		db:              db,
		log:             log,
		validator:       validator,
		profileRepo:     profileRepo,
		auditService:    auditService,
		saveLimiter:     saveLimiter,
		recoveryLimiter: recoveryLimiter,
		retry:           retryPolicy,
	}
}

// Save validates the form, spends one unit of the identifier's submission
// budget and inserts a new history row.
func (g *profileGateway) Save(ctx context.Context, req SaveRequest) Result {
	profile, errs := g.validator.Validate(req.Form)
	if errs != nil {
		return Result{Outcome: OutcomeInvalid, Message: MsgInvalid, Errors: errs}
	}

	if res, limited := g.limit(ctx, g.saveLimiter, ratelimit.Key(ctx, LimitActionSave, profile.UserID), "submissions"); limited {
		return res
	}

	if req.Attach != nil {
		file, err := req.Attach(ctx)
		if err != nil {
			g.log.WithField("user_id", profile.UserID).Warnf("Attachment failed, profile not saved: %+v", err)
			return Result{Outcome: OutcomeFailed, Message: "Something went wrong while storing your file. Please try again.", Err: err}
		}
		req.TestKit = file
	}

	switch {
	case req.TestKit != nil:
		profile.TestKitResultURL = req.TestKit.URL
		profile.TestKitResultFilename = req.TestKit.Filename
	case req.Previous != nil:
		profile.TestKitResultURL = req.Previous.TestKitResultURL
		profile.TestKitResultFilename = req.Previous.TestKitResultFilename
	}

	var saved *entity.Profile
	err := g.withRetry(ctx, "save", func(ctx context.Context) error {
		row := profile.Clone()
		if err := g.profileRepo.Create(ctx, g.db, row); err != nil {
			return err
		}
		saved = row
		return nil
	})
	if err != nil {
		return g.failure(err, "saving", logrus.Fields{"user_id": profile.UserID})
	}

	g.audit(ctx, req, saved)

	return Result{OK: true, Outcome: OutcomeSaved, Message: MsgSaved, Profile: saved}
}

// Load returns the newest row for userID.
func (g *profileGateway) Load(ctx context.Context, userID string) Result {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Result{
			Outcome: OutcomeInvalid,
			Message: "Please enter your profile code.",
			Errors:  map[string]string{"user_id": "user id is required"},
		}
	}

	var found *entity.Profile
	err := g.withRetry(ctx, "load", func(ctx context.Context) error {
		var err error
		found, err = g.profileRepo.FindLatestByUserID(ctx, g.db, userID)
		return err
	})
	if err != nil {
		return g.failure(err, "loading", logrus.Fields{"user_id": userID})
	}
	if found == nil {
		return Result{Outcome: OutcomeNotFound, Message: MsgNotFound}
	}

	return Result{OK: true, Outcome: OutcomeFound, Message: MsgFound, Profile: found}
}

// LoadByRecovery returns the newest row whose three recovery pairs match.
func (g *profileGateway) LoadByRecovery(ctx context.Context, pairs [entity.RecoveryQuestions]entity.RecoveryPair) Result {
	errs := make(map[string]string)
	for i, pair := range pairs {
		n := i + 1
		if strings.TrimSpace(pair.Question) == "" {
			errs[fmt.Sprintf("security_question_%d", n)] = fmt.Sprintf("security question %d is required", n)
		}
		if strings.TrimSpace(pair.Answer) == "" {
			errs[fmt.Sprintf("security_answer_%d", n)] = fmt.Sprintf("security answer %d is required", n)
		}
	}
	if len(errs) > 0 {
		return Result{Outcome: OutcomeInvalid, Message: "Please answer all three security questions.", Errors: errs}
	}

	if res, limited := g.limit(ctx, g.recoveryLimiter, ratelimit.Key(ctx, LimitActionRecover, ""), "recovery attempts"); limited {
		return res
	}

	var found *entity.Profile
	err := g.withRetry(ctx, "recover", func(ctx context.Context) error {
		var err error
		found, err = g.profileRepo.FindLatestByRecovery(ctx, g.db, pairs)
		return err
	})
	if err != nil {
		return g.failure(err, "recovering", nil)
	}
	if found == nil {
		return Result{Outcome: OutcomeNotFound, Message: MsgRecoveryNotFound}
	}

	if err := g.auditService.LogAccess(ctx, g.db, found.UserID, entity.AuditActionProfileRecover, found.ID); err != nil {
		g.log.WithField("user_id", found.UserID).Warnf("Recovery succeeded without audit entry: %+v", err)
	}

	return Result{
		OK:      true,
		Outcome: OutcomeFound,
		Message: fmt.Sprintf("Your profile code is %s. Please keep it safe.", found.UserID),
		Profile: found,
	}
}

// limit spends one event of key. Limiter errors fail open.
func (g *profileGateway) limit(ctx context.Context, limiter ratelimit.Limiter, key, what string) (Result, bool) {
	if limiter == nil {
		return Result{}, false
	}

	decision, err := limiter.Allow(ctx, key)
	if err != nil {
		g.log.WithField("key", key).Warnf("Rate limiter unavailable, allowing request: %+v", err)
		return Result{}, false
	}
	if decision.Allowed {
		return Result{}, false
	}

	g.log.WithFields(logrus.Fields{
		"key":         key,
		"retry_after": decision.RetryAfter.String(),
	}).Warn("Rate limit exceeded")

	return Result{
		Outcome:    OutcomeRateLimited,
		Message:    fmt.Sprintf("Too many %s. Please wait %s before trying again.", what, humanizeWait(decision.RetryAfter)),
		RetryAfter: decision.RetryAfter,
	}, true
}

func (g *profileGateway) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return g.retry.Do(ctx, fn, isTransient, func(err error, attempt int, wait time.Duration) {
		g.log.WithFields(logrus.Fields{
			"operation": op,
			"attempt":   attempt,
			"wait":      wait.String(),
		}).Warnf("Transient store error, retrying: %+v", err)
	})
}

func (g *profileGateway) failure(err error, verb string, fields logrus.Fields) Result {
	outcome := classify(err)
	entry := g.log.WithFields(fields).WithField("outcome", string(outcome))
	if outcome == OutcomeFailed {
		entry.Errorf("Unexpected error %s profile: %+v", verb, err)
	} else {
		entry.Warnf("Store error %s profile: %+v", verb, err)
	}

	var message string
	switch outcome {
	case OutcomeTimeout:
		message = MsgTimeout
	case OutcomeConnection:
		message = MsgConnection
	case OutcomeDuplicate:
		message = MsgDuplicate
	default:
		message = fmt.Sprintf("Something went wrong while %s your profile. Please try again.", verb)
	}

	return Result{Outcome: outcome, Message: message}
}

func (g *profileGateway) audit(ctx context.Context, req SaveRequest, saved *entity.Profile) {
	var err error
	switch {
	case req.TestKit != nil:
		err = g.auditService.LogUpdate(ctx, g.db, saved.UserID, entity.AuditActionTestKitUpload, saved.ID, req.Previous, saved)
	case req.Previous != nil:
		err = g.auditService.LogUpdate(ctx, g.db, saved.UserID, entity.AuditActionProfileUpdate, saved.ID, req.Previous, saved)
	default:
		err = g.auditService.LogCreate(ctx, g.db, saved.UserID, entity.AuditActionProfileCreate, saved.ID, saved)
	}
	if err != nil {
		g.log.WithField("user_id", saved.UserID).Warnf("Profile saved without audit entry: %+v", err)
	}
}

// classify maps a store error onto the failure taxonomy.
func classify(err error) Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return OutcomeTimeout
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return OutcomeDuplicate
		case strings.HasPrefix(pgErr.Code, "08"):
			return OutcomeConnection
		case pgErr.Code == "57014":
			return OutcomeTimeout
		}
		return OutcomeFailed
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return OutcomeDuplicate
	}

	var connectErr *pgconn.ConnectError
	var opErr *net.OpError
	switch {
	case errors.As(err, &connectErr),
		errors.As(err, &opErr),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, io.ErrUnexpectedEOF):
		return OutcomeConnection
	}

	return OutcomeFailed
}

func isTransient(err error) bool {
	switch classify(err) {
	case OutcomeTimeout, OutcomeConnection:
		return true
	}
	return false
}

func humanizeWait(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	switch {
	case secs == 1:
		return "1 second"
	case secs < 60:
		return fmt.Sprintf("%d seconds", secs)
	case secs == 60:
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", (secs+59)/60)
}

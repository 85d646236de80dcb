package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"nutrition-intake/internal/converter"
	"nutrition-intake/internal/delivery/dto"
	"nutrition-intake/internal/domain/entity"
	"nutrition-intake/internal/service"
	"nutrition-intake/pkg/profilecode"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidMode          = errors.New("mode must be new or returning")
	ErrNotReturning         = errors.New("this action is only available to returning users")
	ErrIdentityNotConfirmed = errors.New("load your profile before continuing")
)

// MsgUpdateProfileFirst is shown when the stored profile itself fails
// validation while attaching a test kit result.
const MsgUpdateProfileFirst = "Your saved profile needs updating before a test kit result can be attached. Please review the highlighted fields and submit your profile first."

// IntakeResult reports the outcome of an orchestrator step together with
// the state to continue from.
type IntakeResult struct {
	State          *dto.FormState
	OK             bool
	Outcome        service.Outcome
	Message        string
	Profile        *entity.Profile
	Recommendation string
	RetryAfter     time.Duration
}

type IntakeUsecase interface {
	NewSession(ctx context.Context) *dto.FormState
	SelectMode(ctx context.Context, state *dto.FormState, mode string) (*dto.FormState, error)
	Clear(ctx context.Context, state *dto.FormState) *dto.FormState
	SetRecoveryMode(ctx context.Context, state *dto.FormState, enabled bool) (*dto.FormState, error)
	LoadProfile(ctx context.Context, state *dto.FormState, userID string) (*IntakeResult, error)
	RecoverProfile(ctx context.Context, state *dto.FormState, pairs [entity.RecoveryQuestions]entity.RecoveryPair) (*IntakeResult, error)
	Submit(ctx context.Context, state *dto.FormState) (*IntakeResult, error)
	UploadTestKit(ctx context.Context, state *dto.FormState, filename string, content []byte) (*IntakeResult, error)
	Options() *dto.OptionsResponse
}

type intakeUsecase struct {
	log            *logrus.Logger
	gateway        service.ProfileGateway
	recommender    service.RecommendationService
	testKitService service.TestKitService
	questions      []string
	generateCode   func() (string, error)
}

func NewIntakeUsecase(
	log *logrus.Logger,
	gateway service.ProfileGateway,
	recommender service.RecommendationService,
	testKitService service.TestKitService,
	questions []string,
) IntakeUsecase {
	return &intakeUsecase{
		log:            log,
		gateway:        gateway,
		recommender:    recommender,
		testKitService: testKitService,
		questions:      questions,
		generateCode:   profilecode.Generate,
	}
}

func (u *intakeUsecase) NewSession(ctx context.Context) *dto.FormState {
	state := &dto.FormState{
		SessionID: uuid.NewString(),
		Mode:      dto.ModeNew,
		Form:      converter.DefaultForm(),
	}
	u.logAction(state, "session.start").Info("Intake session started")
	return state
}

// SelectMode switches surface. Editable fields reset; a confirmed identity
// and the name fields survive.
func (u *intakeUsecase) SelectMode(ctx context.Context, state *dto.FormState, mode string) (*dto.FormState, error) {
	if mode != dto.ModeNew && mode != dto.ModeReturning {
		return nil, ErrInvalidMode
	}

	next := &dto.FormState{
		SessionID:       state.SessionID,
		Mode:            mode,
		ConfirmedUserID: state.ConfirmedUserID,
		Form:            converter.DefaultForm(),
	}
	next.Form.UserID = state.ConfirmedUserID
	if state.Form != nil {
		next.Form.FirstName = state.Form.FirstName
		next.Form.LastName = state.Form.LastName
	}

	u.logAction(next, "mode.select").Info("Intake mode selected")
	return next, nil
}

// Clear resets the form. Returning users keep their identity, names and sex.
func (u *intakeUsecase) Clear(ctx context.Context, state *dto.FormState) *dto.FormState {
	next := *state
	next.Errors = nil
	next.Form = converter.DefaultForm()

	if state.Mode == dto.ModeReturning && state.Form != nil {
		next.Form.UserID = state.ConfirmedUserID
		next.Form.FirstName = state.Form.FirstName
		next.Form.LastName = state.Form.LastName
		if entity.Contains(entity.SexOptions, state.Form.Sex) {
			next.Form.Sex = state.Form.Sex
		}
		if next.Form.Sex == entity.SexFemale {
			next.Form.PregnantOrBreastfeeding = entity.PregnancyNo
		}
	}

	u.logAction(&next, "form.clear").Info("Intake form cleared")
	return &next
}

func (u *intakeUsecase) SetRecoveryMode(ctx context.Context, state *dto.FormState, enabled bool) (*dto.FormState, error) {
	if state.Mode != dto.ModeReturning {
		return nil, ErrNotReturning
	}
	next := *state
	next.RecoveryMode = enabled
	next.Errors = nil
	u.logAction(&next, "recovery.toggle").WithField("enabled", enabled).Info("Recovery mode toggled")
	return &next, nil
}

// LoadProfile confirms userID and pre-populates the form from its newest row.
func (u *intakeUsecase) LoadProfile(ctx context.Context, state *dto.FormState, userID string) (*IntakeResult, error) {
	if state.Mode != dto.ModeReturning {
		return nil, ErrNotReturning
	}

	res := u.gateway.Load(ctx, userID)
	u.logAction(state, "profile.load").
		WithFields(logrus.Fields{"user_id": strings.TrimSpace(userID), "outcome": string(res.Outcome)}).
		Info("Profile load requested")

	if !res.OK {
		return failedResult(state, res), nil
	}

	return &IntakeResult{
		State:   confirmedState(state, res.Profile),
		OK:      true,
		Outcome: res.Outcome,
		Message: res.Message,
		Profile: res.Profile,
	}, nil
}

// RecoverProfile looks a profile up by its three recovery pairs and, on a
// match, confirms its identifier like LoadProfile.
func (u *intakeUsecase) RecoverProfile(ctx context.Context, state *dto.FormState, pairs [entity.RecoveryQuestions]entity.RecoveryPair) (*IntakeResult, error) {
	if state.Mode != dto.ModeReturning {
		return nil, ErrNotReturning
	}

	res := u.gateway.LoadByRecovery(ctx, pairs)
	entry := u.logAction(state, "profile.recover").WithField("outcome", string(res.Outcome))
	if res.OK {
		entry = entry.WithField("user_id", res.Profile.UserID)
	}
	entry.Info("Profile recovery requested")

	if !res.OK {
		return failedResult(state, res), nil
	}

	return &IntakeResult{
		State:   confirmedState(state, res.Profile),
		OK:      true,
		Outcome: res.Outcome,
		Message: res.Message,
		Profile: res.Profile,
	}, nil
}

// Submit persists the form as a new history row. New users get a fresh
// profile code and continue as returning users of that code.
func (u *intakeUsecase) Submit(ctx context.Context, state *dto.FormState) (*IntakeResult, error) {
	if state.Form == nil {
		state.Form = converter.DefaultForm()
	}
	form := *state.Form

	req := service.SaveRequest{Form: &form}
	switch state.Mode {
	case dto.ModeNew:
		code, err := u.generateCode()
		if err != nil {
			u.log.Errorf("Failed to generate profile code: %+v", err)
			return nil, err
		}
		form.UserID = code
	case dto.ModeReturning:
		if state.ConfirmedUserID == "" {
			return nil, ErrIdentityNotConfirmed
		}
		form.UserID = state.ConfirmedUserID

		latest := u.gateway.Load(ctx, state.ConfirmedUserID)
		switch {
		case latest.OK:
			req.Previous = latest.Profile
			mergeRecoveryAnswers(&form, latest.Profile)
		case latest.Outcome != service.OutcomeNotFound:
			return failedResult(state, latest), nil
		}
	default:
		return nil, ErrInvalidMode
	}

	res := u.gateway.Save(ctx, req)
	u.logAction(state, "profile.submit").
		WithFields(logrus.Fields{"user_id": form.UserID, "outcome": string(res.Outcome)}).
		Info("Profile submitted")

	if !res.OK {
		return failedResult(state, res), nil
	}

	next := confirmedState(state, res.Profile)
	next.Mode = dto.ModeReturning

	message := res.Message
	if state.Mode == dto.ModeNew {
		message = "Profile created. Your profile code is " + res.Profile.UserID + ". Please keep it safe to update your profile later."
	}

	return &IntakeResult{
		State:          next,
		OK:             true,
		Outcome:        res.Outcome,
		Message:        message,
		Profile:        res.Profile,
		Recommendation: u.recommender.Recommend(ctx, res.Profile),
	}, nil
}

// UploadTestKit stores a PDF result and appends a row referencing it.
func (u *intakeUsecase) UploadTestKit(ctx context.Context, state *dto.FormState, filename string, content []byte) (*IntakeResult, error) {
	if state.Mode != dto.ModeReturning {
		return nil, ErrNotReturning
	}
	if state.ConfirmedUserID == "" {
		return nil, ErrIdentityNotConfirmed
	}

	latest := u.gateway.Load(ctx, state.ConfirmedUserID)
	if !latest.OK {
		return failedResult(state, latest), nil
	}

	if err := u.testKitService.Check(content); err != nil {
		u.logAction(state, "testkit.upload").WithField("user_id", state.ConfirmedUserID).Warnf("Test kit upload rejected: %+v", err)
		return testKitFailure(state, err), nil
	}

	form := converter.ProfileToForm(latest.Profile)
	mergeRecoveryAnswers(form, latest.Profile)

	// The file is stored only once the row has passed validation and the
	// rate limit.
	res := u.gateway.Save(ctx, service.SaveRequest{
		Form:     form,
		Previous: latest.Profile,
		Attach: func(ctx context.Context) (*service.TestKitFile, error) {
			return u.testKitService.Store(ctx, state.ConfirmedUserID, filename, content)
		},
	})
	u.logAction(state, "testkit.upload").
		WithFields(logrus.Fields{"user_id": state.ConfirmedUserID, "outcome": string(res.Outcome)}).
		Info("Test kit result submitted")

	switch {
	case res.OK:
	case res.Err != nil:
		return testKitFailure(state, res.Err), nil
	case res.Outcome == service.OutcomeInvalid:
		failed := failedResult(state, res)
		failed.Message = MsgUpdateProfileFirst
		return failed, nil
	default:
		return failedResult(state, res), nil
	}

	return &IntakeResult{
		State:   confirmedState(state, res.Profile),
		OK:      true,
		Outcome: res.Outcome,
		Message: "Test kit result uploaded successfully.",
		Profile: res.Profile,
	}, nil
}

func (u *intakeUsecase) Options() *dto.OptionsResponse {
	return &dto.OptionsResponse{
		AgeRange:          entity.AgeRangeOptions,
		Sex:               entity.SexOptions,
		HeightFt:          intRange(entity.MinHeightFt, entity.MaxHeightFt),
		HeightIn:          intRange(0, entity.MaxHeightIn),
		PhysicalActivity:  entity.PhysicalActivityOptions,
		EnergyLevel:       entity.EnergyLevelOptions,
		Diet:              entity.DietOptions,
		MealsPerDay:       entity.MealsPerDayOptions,
		SleepQuality:      entity.SleepQualityOptions,
		StressLevel:       entity.StressLevelOptions,
		Pregnancy:         entity.PregnancyOptions,
		HealthGoals:       entity.HealthGoalOptions,
		MaxHealthGoals:    entity.MaxHealthGoals,
		SecurityQuestions: u.questions,
		Defaults:          converter.DefaultForm(),
	}
}

func (u *intakeUsecase) logAction(state *dto.FormState, action string) *logrus.Entry {
	return u.log.WithFields(logrus.Fields{
		"action":     action,
		"session_id": state.SessionID,
		"mode":       state.Mode,
	})
}

// confirmedState marks profile's identifier as confirmed and refills the
// form from the stored row.
func confirmedState(state *dto.FormState, profile *entity.Profile) *dto.FormState {
	return &dto.FormState{
		SessionID:       state.SessionID,
		Mode:            state.Mode,
		ConfirmedUserID: profile.UserID,
		Form:            converter.ProfileToForm(profile),
	}
}

// mergeRecoveryAnswers keeps stored answers for questions the user left
// unchanged without retyping the answer. Answers are never sent to clients.
func mergeRecoveryAnswers(form *dto.IntakeForm, stored *entity.Profile) {
	pairs := stored.Recovery()
	questions := []string{form.SecurityQuestion1, form.SecurityQuestion2, form.SecurityQuestion3}
	answers := []*string{&form.SecurityAnswer1, &form.SecurityAnswer2, &form.SecurityAnswer3}

	for i := range pairs {
		if strings.TrimSpace(*answers[i]) == "" && strings.TrimSpace(questions[i]) == pairs[i].Question {
			*answers[i] = pairs[i].Answer
		}
	}
}

// failedResult reports res against state with res.Errors highlighted.
func failedResult(state *dto.FormState, res service.Result) *IntakeResult {
	if len(res.Errors) > 0 {
		next := *state
		next.Errors = res.Errors
		state = &next
	}
	return &IntakeResult{
		State:      state,
		Outcome:    res.Outcome,
		Message:    res.Message,
		RetryAfter: res.RetryAfter,
	}
}

func testKitFailure(state *dto.FormState, err error) *IntakeResult {
	res := &IntakeResult{State: state, Outcome: service.OutcomeInvalid}
	switch {
	case errors.Is(err, service.ErrTestKitEmpty),
		errors.Is(err, service.ErrTestKitTooLarge),
		errors.Is(err, service.ErrTestKitNotPDF):
		res.Message = err.Error()
		res.State = withError(state, "file", err.Error())
	case errors.Is(err, service.ErrStorageDisabled):
		res.Outcome = service.OutcomeFailed
		res.Message = "Test kit uploads are not available right now."
	default:
		res.Outcome = service.OutcomeFailed
		res.Message = "Something went wrong while uploading your test kit result. Please try again."
	}
	return res
}

func withError(state *dto.FormState, field, message string) *dto.FormState {
	next := *state
	next.Errors = map[string]string{field: message}
	return &next
}

func intRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

package usecase

import (
	"context"
	"testing"
	"time"

	"nutrition-intake/internal/delivery/dto"
	"nutrition-intake/internal/domain/entity"
	"nutrition-intake/internal/normalizer"
	"nutrition-intake/internal/ratelimit"
	"nutrition-intake/internal/repository"
	"nutrition-intake/internal/service"
	"nutrition-intake/internal/testhelpers"
	"nutrition-intake/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubGenerator struct{ calls int }

func (g *stubGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	g.calls++
	return "Consider vitamin D.", nil
}

// stubStore counts uploaded objects.
type stubStore struct{ uploads int }

func (s *stubStore) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	s.uploads++
	return "https://files.example.com/" + key, nil
}

type fixture struct {
	db        *gorm.DB
	usecase   IntakeUsecase
	generator *stubGenerator
	store     *stubStore
	ctx       context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testhelpers.SetupTestDatabase(t)
	log := testhelpers.NewLogger()

	validator, err := service.NewProfileValidator(entity.DefaultSecurityQuestions)
	require.NoError(t, err)

	gateway := service.NewProfileGateway(
		db,
		log,
		validator,
		repository.NewProfileRepository(),
		service.NewAuditService(db, log, repository.NewAuditLogRepository()),
		ratelimit.NewMemoryLimiter(ratelimit.Rule{Limit: 5, Window: 5 * time.Minute}),
		ratelimit.NewMemoryLimiter(ratelimit.Rule{Limit: 3, Window: 5 * time.Minute}),
		retry.Policy{MaxAttempts: 1},
	)

	generator := &stubGenerator{}
	recommender, err := service.NewRecommendationService(log, generator, "")
	require.NoError(t, err)

	store := &stubStore{}
	uc := NewIntakeUsecase(log, gateway, recommender, service.NewTestKitService(log, store), entity.DefaultSecurityQuestions)
	return &fixture{
		db:        db,
		usecase:   uc,
		generator: generator,
		store:     store,
		ctx:       ratelimit.WithScope(context.Background(), "session-1"),
	}
}

func (f *fixture) submitNew(t *testing.T, form *dto.IntakeForm) *IntakeResult {
	t.Helper()
	state := f.usecase.NewSession(f.ctx)
	state.Form = form
	res, err := f.usecase.Submit(f.ctx, state)
	require.NoError(t, err)
	return res
}

func (f *fixture) returning(t *testing.T) *dto.FormState {
	t.Helper()
	state, err := f.usecase.SelectMode(f.ctx, f.usecase.NewSession(f.ctx), dto.ModeReturning)
	require.NoError(t, err)
	return state
}

func TestIntakeNewUserEndToEnd(t *testing.T) {
	f := newFixture(t)

	form := testhelpers.ValidForm()
	form.Sex = entity.SexFemale
	form.PregnantOrBreastfeeding = entity.PregnancyYes
	form.MedicalConditions = normalizer.Text("Asthma, Diabetes")

	res := f.submitNew(t, form)
	require.True(t, res.OK, res.Message)

	code := res.Profile.UserID
	assert.Regexp(t, `^[A-Za-z0-9]{3}-[A-Za-z0-9]{3}-[A-Za-z0-9]{3}$`, code)
	assert.Contains(t, res.Message, code)
	assert.Equal(t, entity.StringList{"Asthma", "Diabetes"}, res.Profile.MedicalConditions)
	assert.Equal(t, entity.PregnancyYes, res.Profile.PregnantOrBreastfeeding)
	assert.Equal(t, "Consider vitamin D.", res.Recommendation)
	assert.Equal(t, 1, f.generator.calls)

	assert.Equal(t, dto.ModeReturning, res.State.Mode)
	assert.Equal(t, code, res.State.ConfirmedUserID)

	loaded, err := f.usecase.LoadProfile(f.ctx, f.returning(t), code)
	require.NoError(t, err)
	require.True(t, loaded.OK)
	assert.Equal(t, entity.StringList{"Asthma", "Diabetes"}, loaded.Profile.MedicalConditions)
	assert.Equal(t, []string{"Asthma", "Diabetes"}, loaded.State.Form.MedicalConditions.List())
	assert.Equal(t, entity.PregnancyYes, loaded.State.Form.PregnantOrBreastfeeding)
	assert.Equal(t, code, loaded.State.ConfirmedUserID)
}

func TestIntakeSubmitInvalidKeepsFormEditable(t *testing.T) {
	f := newFixture(t)

	form := testhelpers.ValidForm()
	form.WeightLbs = "1500"

	res := f.submitNew(t, form)
	assert.False(t, res.OK)
	assert.Equal(t, service.OutcomeInvalid, res.Outcome)
	assert.Contains(t, res.State.Errors, "weight_lbs")
	assert.Equal(t, dto.ModeNew, res.State.Mode)
	assert.Equal(t, dto.NumberText("1500"), res.State.Form.WeightLbs)
	assert.Zero(t, f.generator.calls)
}

func TestIntakeReturningSubmitCarriesAnswersAndTestKit(t *testing.T) {
	f := newFixture(t)

	created := f.submitNew(t, testhelpers.ValidForm())
	require.True(t, created.OK)
	code := created.Profile.UserID

	loaded, err := f.usecase.LoadProfile(f.ctx, f.returning(t), code)
	require.NoError(t, err)
	require.True(t, loaded.OK)

	uploaded, err := f.usecase.UploadTestKit(f.ctx, loaded.State, "results.pdf", []byte("%PDF-1.4 test"))
	require.NoError(t, err)
	require.True(t, uploaded.OK, uploaded.Message)
	assert.Equal(t, "results.pdf", uploaded.Profile.TestKitResultFilename)

	state := uploaded.State
	require.Empty(t, state.Form.SecurityAnswer1)
	state.Form.AgeRange = "45-54"

	updated, err := f.usecase.Submit(f.ctx, state)
	require.NoError(t, err)
	require.True(t, updated.OK, updated.Message)

	assert.Equal(t, code, updated.Profile.UserID)
	assert.Equal(t, "45-54", updated.Profile.AgeRange)
	assert.Equal(t, "Rex", updated.Profile.SecurityAnswer1)
	assert.Equal(t, "results.pdf", updated.Profile.TestKitResultFilename)
	assert.NotEqual(t, uploaded.Profile.ID, updated.Profile.ID)
}

func TestIntakeLoadNotFound(t *testing.T) {
	f := newFixture(t)

	res, err := f.usecase.LoadProfile(f.ctx, f.returning(t), "nonexistent-id")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, service.OutcomeNotFound, res.Outcome)
	assert.Empty(t, res.State.ConfirmedUserID)
}

func TestIntakeRecoverProfile(t *testing.T) {
	f := newFixture(t)

	created := f.submitNew(t, testhelpers.ValidForm())
	require.True(t, created.OK)

	state, err := f.usecase.SetRecoveryMode(f.ctx, f.returning(t), true)
	require.NoError(t, err)
	assert.True(t, state.RecoveryMode)

	form := testhelpers.ValidForm()
	res, err := f.usecase.RecoverProfile(f.ctx, state, [entity.RecoveryQuestions]entity.RecoveryPair{
		{Question: form.SecurityQuestion1, Answer: "REX"},
		{Question: form.SecurityQuestion2, Answer: "lisbon"},
		{Question: form.SecurityQuestion3, Answer: " Costa"},
	})
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, created.Profile.UserID, res.State.ConfirmedUserID)
	assert.False(t, res.State.RecoveryMode)
	assert.Contains(t, res.Message, created.Profile.UserID)
}

func TestIntakeStateTransitions(t *testing.T) {
	f := newFixture(t)

	state := f.usecase.NewSession(f.ctx)
	assert.Equal(t, dto.ModeNew, state.Mode)
	assert.NotEmpty(t, state.SessionID)

	_, err := f.usecase.SetRecoveryMode(f.ctx, state, true)
	assert.ErrorIs(t, err, ErrNotReturning)

	_, err = f.usecase.SelectMode(f.ctx, state, "guest")
	assert.ErrorIs(t, err, ErrInvalidMode)

	returning := f.returning(t)
	_, err = f.usecase.Submit(f.ctx, returning)
	assert.ErrorIs(t, err, ErrIdentityNotConfirmed)

	_, err = f.usecase.UploadTestKit(f.ctx, returning, "a.pdf", []byte("%PDF-"))
	assert.ErrorIs(t, err, ErrIdentityNotConfirmed)
}

func TestIntakeSelectModeKeepsIdentity(t *testing.T) {
	f := newFixture(t)

	state := &dto.FormState{
		SessionID:       "session-1",
		Mode:            dto.ModeReturning,
		RecoveryMode:    true,
		ConfirmedUserID: "abc-123-XYZ",
		Form:            testhelpers.ValidForm(),
	}

	next, err := f.usecase.SelectMode(f.ctx, state, dto.ModeNew)
	require.NoError(t, err)

	assert.Equal(t, "session-1", next.SessionID)
	assert.Equal(t, "abc-123-XYZ", next.ConfirmedUserID)
	assert.False(t, next.RecoveryMode)
	assert.Equal(t, "Ana", next.Form.FirstName)
	assert.Equal(t, entity.DefaultAgeRange, next.Form.AgeRange)
	assert.True(t, next.Form.MedicalConditions.IsEmpty())
}

func TestIntakeClear(t *testing.T) {
	f := newFixture(t)

	form := testhelpers.ValidForm()
	form.UserID = "abc-123-XYZ"

	returning := &dto.FormState{SessionID: "s", Mode: dto.ModeReturning, ConfirmedUserID: "abc-123-XYZ", Form: form}
	cleared := f.usecase.Clear(f.ctx, returning)
	assert.Equal(t, "abc-123-XYZ", cleared.Form.UserID)
	assert.Equal(t, "Ana", cleared.Form.FirstName)
	assert.Equal(t, entity.SexFemale, cleared.Form.Sex)
	assert.Equal(t, entity.PregnancyNo, cleared.Form.PregnantOrBreastfeeding)
	assert.True(t, cleared.Form.HealthGoals.IsEmpty())
	assert.Equal(t, entity.DefaultDiet, cleared.Form.Diet)

	fresh := &dto.FormState{SessionID: "s", Mode: dto.ModeNew, Form: testhelpers.ValidForm()}
	cleared = f.usecase.Clear(f.ctx, fresh)
	assert.Empty(t, cleared.Form.FirstName)
	assert.Equal(t, entity.DefaultSex, cleared.Form.Sex)
	assert.True(t, cleared.Form.HealthGoals.IsEmpty())
}

func TestIntakeTestKitRejectsNonPDF(t *testing.T) {
	f := newFixture(t)

	created := f.submitNew(t, testhelpers.ValidForm())
	require.True(t, created.OK)

	res, err := f.usecase.UploadTestKit(f.ctx, created.State, "notes.txt", []byte("hello"))
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, service.OutcomeInvalid, res.Outcome)
	assert.Equal(t, service.ErrTestKitNotPDF.Error(), res.State.Errors["file"])
}

func TestIntakeTestKitNotStoredWhenSaveIsRefused(t *testing.T) {
	f := newFixture(t)

	created := f.submitNew(t, testhelpers.ValidForm())
	require.True(t, created.OK)

	state := created.State
	for i := 0; i < 4; i++ {
		res, err := f.usecase.UploadTestKit(f.ctx, state, "kit.pdf", []byte("%PDF-1.4 results"))
		require.NoError(t, err)
		require.True(t, res.OK, "upload %d: %s", i+1, res.Message)
		state = res.State
	}
	assert.Equal(t, 4, f.store.uploads)

	res, err := f.usecase.UploadTestKit(f.ctx, state, "kit.pdf", []byte("%PDF-1.4 results"))
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, service.OutcomeRateLimited, res.Outcome)
	assert.Equal(t, 4, f.store.uploads)

	var rows int64
	require.NoError(t, f.db.Model(&entity.Profile{}).Count(&rows).Error)
	assert.Equal(t, int64(f.store.uploads+1), rows)
}

func TestIntakeTestKitOnLegacyProfileAsksForUpdate(t *testing.T) {
	f := newFixture(t)

	created := f.submitNew(t, testhelpers.ValidForm())
	require.True(t, created.OK)
	code := created.Profile.UserID

	// Stored before the question was dropped from the bank.
	require.NoError(t, f.db.Model(&entity.Profile{}).
		Where("user_id = ?", code).
		Update("security_question_1", "What was your childhood nickname?").Error)

	loaded, err := f.usecase.LoadProfile(f.ctx, f.returning(t), code)
	require.NoError(t, err)
	require.True(t, loaded.OK)

	res, err := f.usecase.UploadTestKit(f.ctx, loaded.State, "kit.pdf", []byte("%PDF-1.4 results"))
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, service.OutcomeInvalid, res.Outcome)
	assert.Equal(t, MsgUpdateProfileFirst, res.Message)
	assert.Contains(t, res.State.Errors["security_question_1"], "must be one of")
	assert.Equal(t, code, res.State.ConfirmedUserID)
	assert.Zero(t, f.store.uploads)
}

func TestIntakeOptions(t *testing.T) {
	f := newFixture(t)

	opts := f.usecase.Options()
	assert.Equal(t, []int{4, 5, 6}, opts.HeightFt)
	assert.Len(t, opts.HeightIn, 12)
	assert.Equal(t, entity.MaxHealthGoals, opts.MaxHealthGoals)
	assert.Equal(t, entity.DefaultSecurityQuestions, opts.SecurityQuestions)
	assert.Equal(t, entity.DefaultAgeRange, opts.Defaults.AgeRange)
}

package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"nutrition-intake/internal/converter"
	"nutrition-intake/internal/delivery/dto"
	"nutrition-intake/internal/delivery/http/middleware"
	"nutrition-intake/internal/domain/entity"
	"nutrition-intake/internal/service"
	"nutrition-intake/internal/usecase"
	"nutrition-intake/pkg/jwt"
	"nutrition-intake/pkg/response"
	"nutrition-intake/pkg/validator"
)

const maxFormBody = 1 << 20

type IntakeHandler struct {
	intakeUsecase usecase.IntakeUsecase
	jwtService    *jwt.JWTService
	validator     *validator.CustomValidator
}

func NewIntakeHandler(intakeUsecase usecase.IntakeUsecase, jwtService *jwt.JWTService, validator *validator.CustomValidator) *IntakeHandler {
	return &IntakeHandler{
		intakeUsecase: intakeUsecase,
		jwtService:    jwtService,
		validator:     validator,
	}
}

func (h *IntakeHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	state := h.intakeUsecase.NewSession(r.Context())
	h.respondState(w, http.StatusCreated, "Intake session started", state)
}

func (h *IntakeHandler) SelectMode(w http.ResponseWriter, r *http.Request) {
	var req dto.SelectModeRequest
	if !h.decode(w, r, &req) {
		return
	}

	state, ok := h.currentState(w, r, req.Form)
	if !ok {
		return
	}

	next, err := h.intakeUsecase.SelectMode(r.Context(), state, req.Mode)
	if err != nil {
		h.stateError(w, err)
		return
	}
	h.respondState(w, http.StatusOK, "Mode selected", next)
}

func (h *IntakeHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var req dto.FormRequest
	if !h.decode(w, r, &req) {
		return
	}

	state, ok := h.currentState(w, r, req.Form)
	if !ok {
		return
	}
	h.respondState(w, http.StatusOK, "Form cleared", h.intakeUsecase.Clear(r.Context(), state))
}

func (h *IntakeHandler) SetRecoveryMode(w http.ResponseWriter, r *http.Request) {
	var req dto.RecoveryModeRequest
	if !h.decode(w, r, &req) {
		return
	}

	state, ok := h.currentState(w, r, nil)
	if !ok {
		return
	}

	next, err := h.intakeUsecase.SetRecoveryMode(r.Context(), state, req.Enabled)
	if err != nil {
		h.stateError(w, err)
		return
	}
	h.respondState(w, http.StatusOK, "Recovery mode updated", next)
}

func (h *IntakeHandler) LoadProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.LoadProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	state, ok := h.currentState(w, r, nil)
	if !ok {
		return
	}

	result, err := h.intakeUsecase.LoadProfile(r.Context(), state, req.UserID)
	if err != nil {
		h.stateError(w, err)
		return
	}
	h.respondResult(w, http.StatusOK, result)
}

func (h *IntakeHandler) RecoverProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.RecoverProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	state, ok := h.currentState(w, r, nil)
	if !ok {
		return
	}

	pairs := [entity.RecoveryQuestions]entity.RecoveryPair{
		{Question: req.SecurityQuestion1, Answer: req.SecurityAnswer1},
		{Question: req.SecurityQuestion2, Answer: req.SecurityAnswer2},
		{Question: req.SecurityQuestion3, Answer: req.SecurityAnswer3},
	}

	result, err := h.intakeUsecase.RecoverProfile(r.Context(), state, pairs)
	if err != nil {
		h.stateError(w, err)
		return
	}
	h.respondResult(w, http.StatusOK, result)
}

func (h *IntakeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.FormRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Form == nil {
		response.ValidationError(w, map[string]string{"form": "form is required"})
		return
	}

	state, ok := h.currentState(w, r, req.Form)
	if !ok {
		return
	}

	result, err := h.intakeUsecase.Submit(r.Context(), state)
	if err != nil {
		h.stateError(w, err)
		return
	}
	h.respondResult(w, http.StatusCreated, result)
}

func (h *IntakeHandler) UploadTestKit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxTestKitSize+maxFormBody)
	if err := r.ParseMultipartForm(maxFormBody); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid multipart form or file too large", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.ValidationError(w, map[string]string{"file": "file is required"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Failed to read uploaded file", nil)
		return
	}

	state, ok := h.currentState(w, r, nil)
	if !ok {
		return
	}

	result, err := h.intakeUsecase.UploadTestKit(r.Context(), state, header.Filename, content)
	if err != nil {
		h.stateError(w, err)
		return
	}
	h.respondResult(w, http.StatusCreated, result)
}

func (h *IntakeHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "Intake options", h.intakeUsecase.Options())
}

func (h *IntakeHandler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBody)).Decode(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}

	if err := h.validator.Validate(req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return false
	}
	return true
}

// currentState rebuilds the form session from the token claims and the
// editable form sent with the request.
func (h *IntakeHandler) currentState(w http.ResponseWriter, r *http.Request, form *dto.IntakeForm) (*dto.FormState, bool) {
	claims, ok := middleware.GetSessionClaimsFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return nil, false
	}

	if form == nil {
		form = converter.DefaultForm()
	}
	return &dto.FormState{
		SessionID:       claims.SessionID,
		Mode:            claims.Mode,
		RecoveryMode:    claims.RecoveryMode,
		ConfirmedUserID: claims.ConfirmedUserID,
		Form:            form,
	}, true
}

func (h *IntakeHandler) issue(w http.ResponseWriter, state *dto.FormState) (*dto.IntakeResponse, bool) {
	token, err := h.jwtService.GenerateSessionToken(state.SessionID, state.Mode, state.RecoveryMode, state.ConfirmedUserID)
	if err != nil {
		response.InternalServerError(w, "Failed to issue session token")
		return nil, false
	}
	return &dto.IntakeResponse{
		Token:     token,
		ExpiresIn: int64(h.jwtService.GetExpiry().Seconds()),
		State:     state,
	}, true
}

func (h *IntakeHandler) respondState(w http.ResponseWriter, status int, message string, state *dto.FormState) {
	data, ok := h.issue(w, state)
	if !ok {
		return
	}
	response.Success(w, status, message, data)
}

func (h *IntakeHandler) respondResult(w http.ResponseWriter, successStatus int, result *usecase.IntakeResult) {
	data, ok := h.issue(w, result.State)
	if !ok {
		return
	}
	data.Outcome = string(result.Outcome)

	if result.OK {
		data.Recommendation = result.Recommendation
		data.Profile = converter.ProfileToResponse(result.Profile)
		response.Success(w, successStatus, result.Message, data)
		return
	}

	status := http.StatusInternalServerError
	switch result.Outcome {
	case service.OutcomeInvalid:
		status = http.StatusBadRequest
	case service.OutcomeNotFound:
		status = http.StatusNotFound
	case service.OutcomeRateLimited:
		status = http.StatusTooManyRequests
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(result.RetryAfter)))
	case service.OutcomeDuplicate:
		status = http.StatusConflict
	case service.OutcomeTimeout:
		status = http.StatusGatewayTimeout
	case service.OutcomeConnection:
		status = http.StatusServiceUnavailable
	}
	var fieldErrors interface{}
	if len(result.State.Errors) > 0 {
		fieldErrors = result.State.Errors
	}
	response.Failure(w, status, result.Message, data, fieldErrors)
}

func (h *IntakeHandler) stateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidMode):
		response.ValidationError(w, map[string]string{"mode": err.Error()})
	case errors.Is(err, usecase.ErrNotReturning), errors.Is(err, usecase.ErrIdentityNotConfirmed):
		response.Error(w, http.StatusConflict, err.Error(), nil)
	default:
		response.InternalServerError(w, "Sorry, something went wrong on our side. Please try again later.")
	}
}

func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

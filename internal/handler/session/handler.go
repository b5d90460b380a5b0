// Package session exposes the booking lifecycle operations over HTTP.
// The handlers are a thin adapter: they decode payloads, resolve the
// acting identity and translate the engine's error taxonomy into status
// codes. All booking rules live in the service layer.
package session

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mentorlink/backend/internal/identity"
	middlewarePkg "github.com/mentorlink/backend/internal/middleware"
	sessionModel "github.com/mentorlink/backend/internal/model/session"
	"github.com/mentorlink/backend/internal/service/booking"
	"github.com/mentorlink/backend/pkg/utils"
)

// Handler serves the session booking endpoints.
type Handler struct {
	bookingSvc *booking.Service
	validate   *validator.Validate
}

// New creates a session handler.
func New(bookingSvc *booking.Service) *Handler {
	return &Handler{
		bookingSvc: bookingSvc,
		validate:   validator.New(),
	}
}

// RegisterRoutes mounts the session routes. The identity middleware must
// already have run on this router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleRequest)
	r.Get("/sessions", h.handleList)
	r.Get("/sessions/dashboard", h.handleDashboard)
	r.Get("/sessions/{id}", h.handleGet)
	r.Put("/sessions/{id}", h.handleEdit)
	r.Delete("/sessions/{id}", h.handleCancel)
	r.Post("/sessions/{id}/accept", h.handleAccept)
	r.Post("/sessions/{id}/reject", h.handleReject)
	r.Post("/sessions/{id}/reschedule", h.handleReschedule)
	r.Post("/sessions/{id}/complete", h.handleComplete)
	r.Post("/sessions/{id}/feedback", h.handleFeedback)
}

type requestPayload struct {
	MentorID string `json:"mentorId" validate:"required"`
	Subject  string `json:"subject" validate:"required"`
	Date     string `json:"date" validate:"required"`
	Time     string `json:"time" validate:"required"`
	Notes    string `json:"notes"`
	Message  string `json:"message"`
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewarePkg.ActorFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "identity required")
		return
	}

	var payload requestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := h.bookingSvc.Request(r.Context(), actor, booking.RequestInput{
		MentorID: payload.MentorID,
		Subject:  payload.Subject,
		Date:     payload.Date,
		Time:     payload.Time,
		Notes:    payload.Notes,
		Message:  payload.Message,
	})
	if err != nil {
		h.respondBookingError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, sess)
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor identity.Actor, id string) (*sessionModel.Session, error) {
		return h.bookingSvc.Accept(r.Context(), actor, id)
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor identity.Actor, id string) (*sessionModel.Session, error) {
		return h.bookingSvc.Reject(r.Context(), actor, id)
	})
}

type reschedulePayload struct {
	Date   string `json:"date" validate:"required"`
	Time   string `json:"time" validate:"required"`
	Reason string `json:"reason"`
}

func (h *Handler) handleReschedule(w http.ResponseWriter, r *http.Request) {
	var payload reschedulePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.transition(w, r, func(actor identity.Actor, id string) (*sessionModel.Session, error) {
		return h.bookingSvc.Reschedule(r.Context(), actor, id, booking.RescheduleInput{
			Date:   payload.Date,
			Time:   payload.Time,
			Reason: payload.Reason,
		})
	})
}

type completePayload struct {
	Notes         string `json:"notes"`
	Duration      *int   `json:"duration" validate:"omitempty,gt=0"`
	TopicsCovered string `json:"topicsCovered"`
	Homework      string `json:"homework"`
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	var payload completePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.transition(w, r, func(actor identity.Actor, id string) (*sessionModel.Session, error) {
		return h.bookingSvc.Complete(r.Context(), actor, id, booking.CompleteInput{
			Notes:         payload.Notes,
			Duration:      payload.Duration,
			TopicsCovered: payload.TopicsCovered,
			Homework:      payload.Homework,
		})
	})
}

type editPayload struct {
	Subject string `json:"subject" validate:"required"`
	Date    string `json:"date" validate:"required"`
	Time    string `json:"time" validate:"required"`
	Notes   string `json:"notes"`
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	var payload editPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.transition(w, r, func(actor identity.Actor, id string) (*sessionModel.Session, error) {
		return h.bookingSvc.StudentEdit(r.Context(), actor, id, booking.EditInput{
			Subject: payload.Subject,
			Date:    payload.Date,
			Time:    payload.Time,
			Notes:   payload.Notes,
		})
	})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewarePkg.ActorFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "identity required")
		return
	}
	if err := h.bookingSvc.StudentCancel(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.respondBookingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type feedbackPayload struct {
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Feedback string `json:"feedback"`
	GoalsMet *bool  `json:"goalsMet"`
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var payload feedbackPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	goalsMet := true
	if payload.GoalsMet != nil {
		goalsMet = *payload.GoalsMet
	}
	h.transition(w, r, func(actor identity.Actor, id string) (*sessionModel.Session, error) {
		return h.bookingSvc.SubmitFeedback(r.Context(), actor, id, booking.FeedbackInput{
			Rating:   payload.Rating,
			Feedback: payload.Feedback,
			GoalsMet: goalsMet,
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewarePkg.ActorFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "identity required")
		return
	}

	var status *sessionModel.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, ok := sessionModel.ParseStatus(raw)
		if !ok {
			utils.RespondError(w, http.StatusBadRequest, "unknown status filter")
			return
		}
		status = &parsed
	}

	sessions, err := h.bookingSvc.ListByActorAndStatus(r.Context(), actor, status)
	if err != nil {
		h.respondBookingError(w, err)
		return
	}
	if sessions == nil {
		sessions = make([]*sessionModel.Session, 0)
	}
	utils.RespondJSON(w, http.StatusOK, sessions)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := middlewarePkg.ActorFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "identity required")
		return
	}
	board, err := h.bookingSvc.Dashboard(r.Context(), actor)
	if err != nil {
		h.respondBookingError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, board)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor identity.Actor, id string) (*sessionModel.Session, error) {
		return h.bookingSvc.Get(r.Context(), actor, id)
	})
}

// transition runs a single-session operation and writes the result.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(identity.Actor, string) (*sessionModel.Session, error)) {
	actor, ok := middlewarePkg.ActorFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "identity required")
		return
	}
	sess, err := op(actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondBookingError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sess)
}

// respondBookingError maps the engine's error taxonomy to HTTP codes.
func (h *Handler) respondBookingError(w http.ResponseWriter, err error) {
	var validationErr *booking.ValidationError
	switch {
	case errors.As(err, &validationErr):
		utils.RespondError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, booking.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, booking.ErrForbidden):
		utils.RespondError(w, http.StatusForbidden, "not authorized for this session")
	case errors.Is(err, booking.ErrInvalidTransition):
		utils.RespondError(w, http.StatusConflict, "operation not permitted in current status")
	default:
		log.Printf("[session] unexpected error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}

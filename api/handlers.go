package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"prizewheel/models"
	"prizewheel/service"
)

// Recorder receives counters for the HTTP surface
type Recorder interface {
	RecordRegistration()
	RecordSessionOpened(state string)
}

// Handlers serves the prize wheel HTTP API
type Handlers struct {
	participants service.ParticipantService
	reports      service.ReportService
	sessions     *service.SessionRegistry
	table        models.PrizeTable
	metrics      Recorder
}

// New creates the HTTP handlers. metrics may be nil.
func New(
	participants service.ParticipantService,
	reports service.ReportService,
	sessions *service.SessionRegistry,
	table models.PrizeTable,
	metrics Recorder,
) *Handlers {
	return &Handlers{
		participants: participants,
		reports:      reports,
		sessions:     sessions,
		table:        table,
		metrics:      metrics,
	}
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]interface{}{
		"status":   "ok",
		"sessions": h.sessions.Len(),
	})
}

func (h *Handlers) handleRegisterParticipant(w http.ResponseWriter, r *http.Request) {
	var req service.RegistrationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	participant, err := h.participants.RegisterParticipant(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordRegistration()
	}
	respondCreated(w, toParticipantResponse(participant))
}

func (h *Handlers) handleGetParticipant(w http.ResponseWriter, r *http.Request) {
	participant, err := h.participants.GetParticipant(r.Context(), chi.URLParam(r, "identity"))
	if err != nil {
		respondError(w, err)
		return
	}
	if participant == nil {
		respondError(w, service.ErrParticipantNotFound)
		return
	}
	respondOK(w, toParticipantResponse(participant))
}

func (h *Handlers) handleGetPrize(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	participant, err := h.participants.GetParticipant(r.Context(), identity)
	if err != nil {
		respondError(w, err)
		return
	}
	if participant == nil {
		respondError(w, service.ErrParticipantNotFound)
		return
	}

	claim, err := h.participants.GetAssignedPrize(r.Context(), identity)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{
		"identity": participant.Identity,
		"prize":    toClaimResponse(claim),
	})
}

func (h *Handlers) handleDraw(w http.ResponseWriter, r *http.Request) {
	result, err := h.participants.DrawAndClaim(r.Context(), chi.URLParam(r, "identity"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, toClaimResultResponse(result))
}

func (h *Handlers) handleParticipantEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, BadRequest("Invalid limit parameter"))
			return
		}
		limit = parsed
	}

	spinEvents, err := h.reports.ParticipantEvents(r.Context(), chi.URLParam(r, "identity"), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, toSpinEventResponses(spinEvents))
}

func (h *Handlers) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if models.NormalizeIdentity(req.Identity) == "" {
		respondError(w, BadRequest("identity is required"))
		return
	}

	participant, err := h.participants.GetParticipant(r.Context(), req.Identity)
	if err != nil {
		respondError(w, err)
		return
	}
	if participant == nil {
		respondError(w, service.ErrParticipantNotFound)
		return
	}

	session, err := h.sessions.Open(r.Context(), participant.Identity)
	if err != nil && !service.IsStorageError(err) {
		respondError(w, err)
		return
	}
	if err != nil {
		// The session stays registered in a retryable state; the client spins it again
		log.WithFields(log.Fields{
			"session":  session.ID(),
			"identity": participant.Identity,
			"error":    err,
		}).Warn("Claim check failed while opening session")
	}

	snapshot := session.Snapshot()
	if h.metrics != nil {
		h.metrics.RecordSessionOpened(string(snapshot.State))
	}
	respondCreated(w, toSessionResponse(snapshot))
}

func (h *Handlers) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, toSessionResponse(session.Snapshot()))
}

func (h *Handlers) handleSpin(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	if _, err := session.Spin(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, toSessionResponse(session.Snapshot()))
}

func (h *Handlers) handleListPrizes(w http.ResponseWriter, r *http.Request) {
	slots := make([]PrizeSlotResponse, 0, len(h.table))
	for i, label := range h.table {
		slots = append(slots, PrizeSlotResponse{Index: i, Prize: label})
	}
	respondOK(w, slots)
}

func (h *Handlers) handlePrizeReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.PrizeReport(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, report)
}

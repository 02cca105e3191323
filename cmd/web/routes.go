package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/AdamBeresnev/bracket-keeper/internal/bracket"
	"github.com/AdamBeresnev/bracket-keeper/internal/httputil"
	"github.com/AdamBeresnev/bracket-keeper/internal/live"
	"github.com/AdamBeresnev/bracket-keeper/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type handlers struct {
	tournaments *service.TournamentService
	settings    *service.SettingsService
	hub         *live.Hub
}

type createTournamentRequest struct {
	Name  string                 `json:"name"`
	Type  bracket.TournamentType `json:"type"`
	Size  int                    `json:"size"`
	Rules *string                `json:"rules"`
}

type updateTournamentRequest struct {
	Name   *string                   `json:"name"`
	Rules  *string                   `json:"rules"`
	Size   *int                      `json:"size"`
	Status *bracket.TournamentStatus `json:"status"`
}

// Either a single participant or a newline separated list in Names
type participantRequest struct {
	Name  *string        `json:"name"`
	Level *bracket.Level `json:"level"`
	Seed  *int           `json:"seed"`
	Names *string        `json:"names"`
}

type generateBracketRequest struct {
	ForceReset bool `json:"forceReset"`
}

type recordResultRequest struct {
	WinnerID uuid.UUID `json:"winnerId"`
	Score    *string   `json:"score"`
}

type scheduleMatchRequest struct {
	ScheduledDate *time.Time `json:"scheduledDate"`
	Court         *string    `json:"court"`
}

type updateSettingsRequest struct {
	Theme    *bracket.Theme    `json:"theme"`
	Language *bracket.Language `json:"language"`
}

func newRouter(tournaments *service.TournamentService, settings *service.SettingsService, hub *live.Hub, origins []string) http.Handler {
	h := &handlers{tournaments: tournaments, settings: settings, hub: hub}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/settings", h.getSettings)
		r.Patch("/settings", h.updateSettings)
		r.Post("/settings/onboarding", h.completeOnboarding)

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", h.listTournaments)
			r.Post("/", h.createTournament)
			r.Delete("/", h.clearTournaments)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getTournament)
				r.Patch("/", h.updateTournament)
				r.Delete("/", h.deleteTournament)

				r.Get("/bracket", h.getBracket)
				r.Post("/bracket", h.generateBracket)
				r.Post("/advance", h.advanceWinners)

				r.Post("/participants", h.addParticipants)
				r.Patch("/participants/{pid}", h.updateParticipant)
				r.Delete("/participants/{pid}", h.removeParticipant)

				r.Post("/matches/{mid}/result", h.recordResult)
				r.Post("/matches/{mid}/start", h.startMatch)
				r.Put("/matches/{mid}/schedule", h.scheduleMatch)
			})
		})
	})

	r.Get("/ws/tournaments/{id}", h.subscribe)

	return r
}

func (h *handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.settings.Get())
}

func (h *handlers) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if !decode(w, r, &req) {
		return
	}
	settings, err := h.settings.Update(r.Context(), service.SettingsPatch{Theme: req.Theme, Language: req.Language})
	if err != nil {
		httputil.Error(w, "Failed to update settings", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, settings)
}

func (h *handlers) completeOnboarding(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.settings.CompleteOnboarding(r.Context()))
}

func (h *handlers) listTournaments(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.tournaments.List())
}

func (h *handlers) createTournament(w http.ResponseWriter, r *http.Request) {
	var req createTournamentRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.tournaments.CreateTournament(r.Context(), service.CreateTournamentInput{
		Name:  req.Name,
		Type:  req.Type,
		Size:  req.Size,
		Rules: req.Rules,
	})
	if err != nil {
		httputil.Error(w, "Failed to create tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, t)
}

func (h *handlers) clearTournaments(w http.ResponseWriter, r *http.Request) {
	h.tournaments.ClearAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) getTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.tournaments.Get(id)
	if err != nil {
		httputil.Error(w, "Failed to get tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (h *handlers) updateTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req updateTournamentRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.tournaments.UpdateTournament(r.Context(), id, service.TournamentPatch{
		Name:   req.Name,
		Rules:  req.Rules,
		Size:   req.Size,
		Status: req.Status,
	})
	if err != nil {
		httputil.Error(w, "Failed to update tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (h *handlers) deleteTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if err := h.tournaments.DeleteTournament(r.Context(), id); err != nil {
		httputil.Error(w, "Failed to delete tournament", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) getBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.tournaments.Get(id)
	if err != nil {
		httputil.Error(w, "Failed to get bracket", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, service.PrepareBracketView(t))
}

func (h *handlers) generateBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req generateBracketRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	t, err := h.tournaments.GenerateBracket(r.Context(), id, req.ForceReset)
	if err != nil {
		httputil.Error(w, "Failed to generate bracket", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, service.PrepareBracketView(t))
}

func (h *handlers) advanceWinners(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	t, changed, err := h.tournaments.AdvanceWinners(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to advance winners", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"changed": changed,
		"bracket": service.PrepareBracketView(t),
	})
}

func (h *handlers) addParticipants(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req participantRequest
	if !decode(w, r, &req) {
		return
	}

	var (
		t   bracket.Tournament
		err error
	)
	if req.Names != nil {
		t, err = h.tournaments.AddParticipants(r.Context(), id, *req.Names)
	} else {
		input := service.ParticipantInput{Level: req.Level, Seed: req.Seed}
		if req.Name != nil {
			input.Name = *req.Name
		}
		t, err = h.tournaments.AddParticipant(r.Context(), id, input)
	}
	if err != nil {
		httputil.Error(w, "Failed to add participants", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, t)
}

func (h *handlers) updateParticipant(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	pid, ok := urlID(w, r, "pid")
	if !ok {
		return
	}
	var req participantRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.tournaments.UpdateParticipant(r.Context(), id, pid, service.ParticipantPatch{
		Name:  req.Name,
		Level: req.Level,
		Seed:  req.Seed,
	})
	if err != nil {
		httputil.Error(w, "Failed to update participant", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (h *handlers) removeParticipant(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	pid, ok := urlID(w, r, "pid")
	if !ok {
		return
	}
	t, err := h.tournaments.RemoveParticipant(r.Context(), id, pid)
	if err != nil {
		httputil.Error(w, "Failed to remove participant", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (h *handlers) recordResult(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	mid, ok := urlID(w, r, "mid")
	if !ok {
		return
	}
	var req recordResultRequest
	if !decode(w, r, &req) {
		return
	}
	if req.WinnerID == uuid.Nil {
		httputil.BadRequest(w, "winnerId is required", nil)
		return
	}
	t, err := h.tournaments.RecordResult(r.Context(), id, mid, req.WinnerID, req.Score)
	if err != nil {
		httputil.Error(w, "Failed to record result", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, service.PrepareBracketView(t))
}

func (h *handlers) startMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	mid, ok := urlID(w, r, "mid")
	if !ok {
		return
	}
	t, err := h.tournaments.StartMatch(r.Context(), id, mid)
	if err != nil {
		httputil.Error(w, "Failed to start match", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t.FindMatch(mid))
}

func (h *handlers) scheduleMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	mid, ok := urlID(w, r, "mid")
	if !ok {
		return
	}
	var req scheduleMatchRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.tournaments.ScheduleMatch(r.Context(), id, mid, req.ScheduledDate, req.Court)
	if err != nil {
		httputil.Error(w, "Failed to schedule match", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t.FindMatch(mid))
}

func (h *handlers) subscribe(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.tournaments.Get(id); err != nil {
		httputil.Error(w, "Failed to subscribe", err)
		return
	}
	h.hub.ServeWS(w, r, id.String())
}

func urlID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+param, err)
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return false
	}
	return true
}

// decodeOptional accepts an empty body and leaves v untouched.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		httputil.BadRequest(w, "Invalid request body", err)
		return false
	}
	return true
}

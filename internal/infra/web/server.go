// File: internal/infra/web/server.go
package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"voicebridge/internal/usecase"
)

// Server is the admin API surface: monthly totals, per-user reports and
// Wit quota consumption, behind a JWT session.
type Server struct {
	statsUC  usecase.StatsUseCase
	creditUC usecase.CreditUseCase
	auth     *AuthManager
	log      *zerolog.Logger
}

func NewServer(statsUC usecase.StatsUseCase, creditUC usecase.CreditUseCase, auth *AuthManager, logger *zerolog.Logger) *Server {
	return &Server{statsUC: statsUC, creditUC: creditUC, auth: auth, log: logger}
}

// Router builds the chi routing tree. /health and /metrics are open;
// everything under /api/v1 requires a valid admin session.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/stats", s.handleStats)
		r.Get("/wit-usage", s.handleWitUsage)
		r.Get("/users/{id}/usage", s.handleUserUsage)
		r.Post("/users/{id}/credits", s.handleAddCredits)
	})

	return r
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totals, err := s.statsUC.MonthTotals(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("stats: month totals")
		http.Error(w, "Failed to get totals", http.StatusInternalServerError)
		return
	}
	accounts, err := s.statsUC.Accounts(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("stats: account count")
		http.Error(w, "Failed to count accounts", http.StatusInternalServerError)
		return
	}

	response := struct {
		Month            string `json:"month"`
		TotalAccounts    int    `json:"total_accounts"`
		Transcriptions   int    `json:"transcriptions"`
		Payments         int    `json:"payments"`
		CreditsSold      int    `json:"credits_sold"`
		WitAudioSeconds  int    `json:"wit_audio_seconds"`
		GroqAudioSeconds int    `json:"groq_audio_seconds"`
	}{
		Month:            totals.Month,
		TotalAccounts:    accounts,
		Transcriptions:   totals.Transcriptions,
		Payments:         totals.Payments,
		CreditsSold:      totals.CreditsSold,
		WitAudioSeconds:  totals.WitAudioSeconds,
		GroqAudioSeconds: totals.GroqAudioSeconds,
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleWitUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := s.statsUC.WitUsage(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("stats: wit usage")
		http.Error(w, "Failed to get wit usage", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"by_language": usage})
}

func (s *Server) handleUserUsage(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		http.Error(w, "Missing user id", http.StatusBadRequest)
		return
	}
	report, err := s.statsUC.UserMonthReport(r.Context(), userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("stats: user report")
		http.Error(w, "Failed to get user usage", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type addCreditsRequest struct {
	Amount int `json:"amount"`
}

func (s *Server) handleAddCredits(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		http.Error(w, "Missing user id", http.StatusBadRequest)
		return
	}

	var req addCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		http.Error(w, "Amount must be positive", http.StatusBadRequest)
		return
	}

	balance, err := s.creditUC.AdminAddCredits(r.Context(), userID, req.Amount)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("admin add credits")
		http.Error(w, "Failed to add credits", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "added": req.Amount, "balance": balance})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

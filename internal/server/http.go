package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"FairDeck/internal/deck"
	"FairDeck/internal/game"
	"FairDeck/internal/observability"
	"FairDeck/internal/persistence"

	"github.com/rs/zerolog"
)

// HTTPServer serves the player-facing JSON API plus the health probes.
// The archive reader is optional; without it the audit lookup endpoints
// return 404 for everything.
type HTTPServer struct {
	addr          string
	svc           *game.Service
	reader        *persistence.RoundReader
	healthChecker *observability.HealthChecker
	metrics       *observability.Metrics
	log           zerolog.Logger

	httpServer *http.Server
}

// NewHTTPServer wires the API routes. reader may be nil when the
// archive is disabled.
func NewHTTPServer(
	addr string,
	svc *game.Service,
	reader *persistence.RoundReader,
	healthChecker *observability.HealthChecker,
	metrics *observability.Metrics,
) *HTTPServer {
	s := &HTTPServer{
		addr:          addr,
		svc:           svc,
		reader:        reader,
		healthChecker: healthChecker,
		metrics:       metrics,
		log:           observability.NewLogger("http"),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/start-game", s.action("start-game", func(ctx context.Context, req actionRequest) (interface{}, error) {
		return s.svc.StartGame(ctx, req.Player)
	}))
	mux.HandleFunc("/api/hit", s.action("hit", func(ctx context.Context, req actionRequest) (interface{}, error) {
		return s.svc.Hit(ctx, req.Player, req.Hand)
	}))
	mux.HandleFunc("/api/stand", s.action("stand", func(ctx context.Context, req actionRequest) (interface{}, error) {
		return s.svc.Stand(ctx, req.Player, req.Hand)
	}))
	mux.HandleFunc("/api/double", s.action("double", func(ctx context.Context, req actionRequest) (interface{}, error) {
		return s.svc.Double(ctx, req.Player)
	}))
	mux.HandleFunc("/api/split", s.action("split", func(ctx context.Context, req actionRequest) (interface{}, error) {
		return s.svc.Split(ctx, req.Player)
	}))
	mux.HandleFunc("/api/settlement-proof", s.action("settlement-proof", func(ctx context.Context, req actionRequest) (interface{}, error) {
		return s.svc.FetchSettlementProof(ctx, req.Player)
	}))
	mux.HandleFunc("/api/get-full-deck-reveal", s.action("full-deck-reveal", func(ctx context.Context, req actionRequest) (interface{}, error) {
		return s.svc.FullDeckReveal(ctx, req.Player)
	}))

	mux.HandleFunc("/api/rounds/", s.handleGetArchivedRound)
	mux.HandleFunc("/api/players/", s.handleListPlayerRounds)
	mux.HandleFunc("/api/claim-status", s.handleClaimStatus)

	mux.HandleFunc("/healthz", s.healthChecker.LivenessHandler)
	mux.HandleFunc("/readyz", s.healthChecker.ReadinessHandler)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start runs the HTTP server until ctx is cancelled (blocking).
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.log.Info().Msg("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", s.addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// actionRequest is the body every game endpoint takes. Player identity
// comes from the caller; there is no authentication layer here. Hand is
// only meaningful for hit and stand; zero targets the active hand.
type actionRequest struct {
	Player string `json:"player"`
	Hand   int    `json:"hand,omitempty"`
}

// action builds a POST handler around one game service operation,
// handling decode, error mapping, and instrumentation uniformly.
func (s *HTTPServer) action(endpoint string, fn func(ctx context.Context, req actionRequest) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if r.Method != http.MethodPost {
			s.writeError(w, endpoint, http.StatusMethodNotAllowed, "use POST")
			return
		}

		var req actionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, endpoint, http.StatusBadRequest, "malformed JSON body")
			return
		}

		result, err := fn(r.Context(), req)
		s.metrics.HTTPDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				s.log.Error().Err(err).Str("endpoint", endpoint).Msg("request failed")
			}
			s.writeError(w, endpoint, status, err.Error())
			return
		}

		s.writeJSON(w, endpoint, http.StatusOK, result)
	}
}

// statusFor maps game errors onto HTTP statuses. Anything unrecognized
// is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrNoActiveSession),
		errors.Is(err, game.ErrNoCompletedGame):
		return http.StatusNotFound
	case errors.Is(err, game.ErrIllegalAction),
		errors.Is(err, deck.ErrDeckExhausted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleGetArchivedRound serves GET /api/rounds/{roundId} from the
// Postgres archive.
func (s *HTTPServer) handleGetArchivedRound(w http.ResponseWriter, r *http.Request) {
	const endpoint = "archived-round"
	if r.Method != http.MethodGet {
		s.writeError(w, endpoint, http.StatusMethodNotAllowed, "use GET")
		return
	}
	if s.reader == nil {
		s.writeError(w, endpoint, http.StatusNotFound, "archive disabled")
		return
	}

	roundID := strings.TrimPrefix(r.URL.Path, "/api/rounds/")
	if roundID == "" || strings.Contains(roundID, "/") {
		s.writeError(w, endpoint, http.StatusBadRequest, "bad round id")
		return
	}

	row, err := s.reader.GetRound(r.Context(), roundID)
	if errors.Is(err, persistence.ErrRoundNotFound) {
		s.writeError(w, endpoint, http.StatusNotFound, "round not archived")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("round", roundID).Msg("archive lookup failed")
		s.writeError(w, endpoint, http.StatusInternalServerError, "archive lookup failed")
		return
	}
	resp := archivedRoundResponse(*row)
	resp["claimed"] = s.svc.WasClaimed(roundID)
	s.writeJSON(w, endpoint, http.StatusOK, resp)
}

// handleClaimStatus serves GET /api/claim-status?round={roundId}: an
// audit check for whether a round has handed out its settlement
// package. Works without the archive; it fronts the in-memory claim
// tracker.
func (s *HTTPServer) handleClaimStatus(w http.ResponseWriter, r *http.Request) {
	const endpoint = "claim-status"
	if r.Method != http.MethodGet {
		s.writeError(w, endpoint, http.StatusMethodNotAllowed, "use GET")
		return
	}
	roundID := r.URL.Query().Get("round")
	if roundID == "" {
		s.writeError(w, endpoint, http.StatusBadRequest, "missing round parameter")
		return
	}
	s.writeJSON(w, endpoint, http.StatusOK, map[string]interface{}{
		"roundId": roundID,
		"claimed": s.svc.WasClaimed(roundID),
	})
}

// handleListPlayerRounds serves GET /api/players/{player}/rounds.
func (s *HTTPServer) handleListPlayerRounds(w http.ResponseWriter, r *http.Request) {
	const endpoint = "player-rounds"
	if r.Method != http.MethodGet {
		s.writeError(w, endpoint, http.StatusMethodNotAllowed, "use GET")
		return
	}
	if s.reader == nil {
		s.writeError(w, endpoint, http.StatusNotFound, "archive disabled")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/players/")
	player, ok := strings.CutSuffix(rest, "/rounds")
	if !ok || player == "" || strings.Contains(player, "/") {
		s.writeError(w, endpoint, http.StatusBadRequest, "bad path")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, endpoint, http.StatusBadRequest, "bad limit")
			return
		}
		limit = n
	}

	rows, err := s.reader.ListRoundsByPlayer(r.Context(), strings.ToLower(player), limit)
	if err != nil {
		s.log.Error().Err(err).Str("player", player).Msg("archive list failed")
		s.writeError(w, endpoint, http.StatusInternalServerError, "archive lookup failed")
		return
	}

	resp := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, archivedRoundResponse(row))
	}
	s.writeJSON(w, endpoint, http.StatusOK, map[string]interface{}{"rounds": resp})
}

// archivedRoundResponse renders an archive row without the opaque CBOR
// blobs; those are for offline audit tooling, not the JSON API.
func archivedRoundResponse(row persistence.RoundRow) map[string]interface{} {
	return map[string]interface{}{
		"roundId":    row.RoundID,
		"player":     row.Player,
		"deckRoot":   fmt.Sprintf("%x", row.DeckRoot),
		"holePos":    row.HolePos,
		"doubled":    row.Doubled,
		"split":      row.Split,
		"checksum":   fmt.Sprintf("%x", row.Checksum),
		"finishedAt": row.FinishedAt,
	}
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, endpoint string, status int, body interface{}) {
	s.metrics.HTTPRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *HTTPServer) writeError(w http.ResponseWriter, endpoint string, status int, msg string) {
	s.writeJSON(w, endpoint, status, map[string]string{"error": msg})
}

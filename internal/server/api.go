package server

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"fighterarena/internal/submit"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method+", OPTIONS")
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// wholeNumber converts a decoded JSON number, rejecting fractions and
// negatives
func wholeNumber(v *float64) (int64, bool) {
	if v == nil || *v < 0 || *v != math.Trunc(*v) || *v > math.MaxInt64 {
		return 0, false
	}
	return int64(*v), true
}

type submitScoreRequest struct {
	PlayerAddress *string  `json:"playerAddress"`
	Score         *float64 `json:"score"`
	Transactions  *float64 `json:"transactions"`
}

type submitScoreResponse struct {
	Success           bool            `json:"success"`
	Pending           bool            `json:"pending,omitempty"`
	TransactionHash   string          `json:"transactionHash,omitempty"`
	GameWalletAddress string          `json:"gameWalletAddress,omitempty"`
	Receipt           *submit.Receipt `json:"receipt,omitempty"`
	ErrorClass        string          `json:"errorClass,omitempty"`
	Error             string          `json:"error,omitempty"`
}

// handleSubmitScore relays a bare score update to the chain through the
// submission queue
func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req submitScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.PlayerAddress == nil || !submit.ValidAddress(*req.PlayerAddress) {
		writeError(w, http.StatusBadRequest, "playerAddress must be a 0x-prefixed 40 hex character address")
		return
	}
	score, ok := wholeNumber(req.Score)
	if !ok {
		writeError(w, http.StatusBadRequest, "score must be a non-negative whole number")
		return
	}
	txCount, ok := wholeNumber(req.Transactions)
	if !ok {
		writeError(w, http.StatusBadRequest, "transactions must be a non-negative whole number")
		return
	}

	if !s.submitter.RelayEnabled() {
		writeError(w, http.StatusInternalServerError, submit.ErrRelayDisabled.Error())
		return
	}

	out := s.submitter.Relay(r.Context(), submit.ChainUpdate{
		Player:       *req.PlayerAddress,
		Score:        score,
		Transactions: txCount,
	})
	resp := submitScoreResponse{GameWalletAddress: s.submitter.WalletAddress()}

	switch out.Status {
	case submit.StatusSucceeded:
		resp.Success = true
		resp.TransactionHash = out.Receipt.TxHash
		resp.Receipt = out.Receipt
		writeJSON(w, http.StatusOK, resp)
	case submit.StatusPending:
		resp.Pending = true
		writeJSON(w, http.StatusAccepted, resp)
	default:
		resp.ErrorClass = string(out.Class)
		if out.Err != nil {
			resp.Error = out.Err.Error()
		}
		status := http.StatusInternalServerError
		if out.Class == submit.ClassValidation {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, resp)
	}
}

type scoreRequest struct {
	PlayerAddress       string   `json:"playerAddress"`
	PlayerName          string   `json:"playerName"`
	GameContractAddress string   `json:"gameContractAddress"`
	Score               *float64 `json:"score"`
	Transactions        *float64 `json:"transactions"`
	GameDuration        *float64 `json:"gameDuration"`
}

type scoreResponse struct {
	Success           bool           `json:"success"`
	SubmissionID      string         `json:"submissionId,omitempty"`
	LocalSuccess      bool           `json:"localSuccess"`
	BlockchainSuccess bool           `json:"blockchainSuccess"`
	BlockchainStatus  submit.Status  `json:"blockchainStatus"`
	TransactionHash   string         `json:"transactionHash,omitempty"`
	Stats             map[string]any `json:"stats,omitempty"`
	Error             string         `json:"error,omitempty"`
}

// handleScores runs the full pipeline for one finished game
func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	score, okScore := wholeNumber(req.Score)
	txCount, okTx := wholeNumber(req.Transactions)
	if !okScore || !okTx {
		writeError(w, http.StatusBadRequest, "score and transactions must be non-negative whole numbers")
		return
	}
	var duration int64
	if req.GameDuration != nil {
		var ok bool
		if duration, ok = wholeNumber(req.GameDuration); !ok {
			writeError(w, http.StatusBadRequest, "gameDuration must be a non-negative whole number")
			return
		}
	}

	res := s.submitter.Submit(r.Context(), submit.Submission{
		PlayerAddress:   req.PlayerAddress,
		PlayerName:      req.PlayerName,
		GameContract:    req.GameContractAddress,
		Score:           score,
		Transactions:    txCount,
		DurationSeconds: duration,
		CreatedAt:       time.Now(),
	})
	if errors.Is(res.Local.Err, submit.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, res.Local.Err.Error())
		return
	}

	resp := scoreResponse{
		Success:           res.Success(),
		SubmissionID:      res.SubmissionID.String(),
		LocalSuccess:      res.Local.Status == submit.StatusSucceeded,
		BlockchainSuccess: res.Chain.Status == submit.StatusSucceeded,
		BlockchainStatus:  res.Chain.Status,
	}
	if res.Chain.Receipt != nil {
		resp.TransactionHash = res.Chain.Receipt.TxHash
	}
	if resp.LocalSuccess {
		resp.Stats = map[string]any{
			"playerName":   res.Local.Stats.PlayerName,
			"totalGames":   res.Local.Stats.TotalGames,
			"bestScore":    res.Local.Stats.BestScore,
			"totalScore":   res.Local.Stats.TotalScore,
			"averageScore": res.Local.Stats.AverageScore,
		}
	}
	switch {
	case res.Local.Err != nil:
		resp.Error = res.Local.Err.Error()
	case res.Chain.Err != nil:
		resp.Error = res.Chain.Err.Error()
	}

	status := http.StatusOK
	if !res.Success() {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp)
}

func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultLimit
	}
	return min(n, maxLimit)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	top, err := s.store.TopPlayers(r.Context(), limitParam(r))
	if err != nil {
		log.Printf("Leaderboard query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": top})
}

func (s *Server) handleRecentGames(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	games, err := s.store.RecentGames(r.Context(), limitParam(r))
	if err != nil {
		log.Printf("Recent games query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games})
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	name := r.PathValue("name")
	stats, ok, err := s.store.PlayerStats(r.Context(), name)
	if err != nil {
		log.Printf("Player stats query for %s failed: %v", name, err)
		writeError(w, http.StatusInternalServerError, "player stats unavailable")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "player not found")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleChainPlayer(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if s.chain == nil {
		writeError(w, http.StatusServiceUnavailable, submit.ErrRelayDisabled.Error())
		return
	}

	standing, err := s.chain.Standing(r.Context(), r.PathValue("address"))
	switch {
	case errors.Is(err, submit.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		log.Printf("Chain read failed: %v", err)
		writeError(w, http.StatusBadGateway, "chain read failed")
	default:
		writeJSON(w, http.StatusOK, standing)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"sessions":      s.SessionCount(),
		"relayEnabled":  s.submitter.RelayEnabled(),
		"pendingRelays": s.submitter.Pending(),
		"deadLetters":   len(s.submitter.DeadLetters()),
	})
}

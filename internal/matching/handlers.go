// internal/matching/handlers.go

package matching

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/skillswap/skillswap-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// NearbyUsers handles GET /api/users/nearby?radius=&search=&availability=
func (h *Handler) NearbyUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	radiusKm := 0.0
	if raw := r.URL.Query().Get("radius"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			utils.ErrorResponse(w, "Invalid radius", http.StatusBadRequest)
			return
		}
		radiusKm = parsed
	}

	users, err := h.service.NearbyUsers(
		r.Context(), userID, radiusKm,
		r.URL.Query().Get("search"),
		r.URL.Query().Get("availability"),
	)
	if err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"users":   users,
	})
}

// Matches handles GET /api/users/matches
func (h *Handler) Matches(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	matches, err := h.service.Matches(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"matches": matches,
	})
}

// AIMatches handles GET /api/matches/ai
func (h *Handler) AIMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	matches, total, err := h.service.AIMatches(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"matches": matches,
		"total":   total,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrLocationRequired):
		utils.ErrorResponse(w, "Location required", http.StatusBadRequest)
	case errors.Is(err, ErrUserNotFound):
		utils.ErrorResponse(w, "User not found", http.StatusNotFound)
	default:
		utils.ErrorResponse(w, "Failed to load matches", http.StatusInternalServerError)
	}
}

// internal/waves/handlers.go

package waves

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/skillswap/skillswap-backend/internal/common/utils"
	"github.com/skillswap/skillswap-backend/internal/matching"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /api/waves
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateWaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	wave, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"wave":    wave,
	})
}

// Nearby handles GET /api/waves/nearby?radius=
func (h *Handler) Nearby(w http.ResponseWriter, r *http.Request) {
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

	waves, err := h.service.Nearby(r.Context(), userID, radiusKm)
	if err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"waves":   waves,
	})
}

// Delete handles DELETE /api/waves/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		utils.ErrorResponse(w, "Invalid wave id", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrWaveNotFound):
		utils.ErrorResponse(w, "Wave not found", http.StatusNotFound)
	case errors.Is(err, matching.ErrLocationRequired):
		utils.ErrorResponse(w, "Location required", http.StatusBadRequest)
	case errors.Is(err, matching.ErrUserNotFound):
		utils.ErrorResponse(w, "User not found", http.StatusNotFound)
	default:
		utils.ErrorResponse(w, "Wave request failed", http.StatusInternalServerError)
	}
}

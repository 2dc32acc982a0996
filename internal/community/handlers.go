// internal/community/handlers.go

package community

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

// Nearby handles GET /api/communities/nearby?radius=
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

	communities, err := h.service.Nearby(r.Context(), userID, radiusKm)
	if err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"communities": communities,
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateCommunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		utils.ErrorResponse(w, "Failed to create community", http.StatusInternalServerError)
		return
	}

	utils.RespondWithData(w, http.StatusCreated, c)
}

func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	communityID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.ErrorResponse(w, "Invalid community ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Join(r.Context(), communityID, userID); err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithData(w, http.StatusOK, map[string]string{"status": "joined"})
}

func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	communityID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.ErrorResponse(w, "Invalid community ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Leave(r.Context(), communityID, userID); err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithData(w, http.StatusOK, map[string]string{"status": "left"})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, matching.ErrLocationRequired):
		utils.ErrorResponse(w, "Location required", http.StatusBadRequest)
	case errors.Is(err, ErrCommunityNotFound), errors.Is(err, matching.ErrUserNotFound):
		utils.ErrorResponse(w, "Not found", http.StatusNotFound)
	case errors.Is(err, ErrPrivateCommunity):
		utils.ErrorResponse(w, "Community is private", http.StatusForbidden)
	default:
		utils.ErrorResponse(w, "Failed to process request", http.StatusInternalServerError)
	}
}

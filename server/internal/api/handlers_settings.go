package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bitelog/bitelog/server/internal/api/respond"
	"github.com/bitelog/bitelog/server/internal/api/validate"
	"github.com/bitelog/bitelog/server/internal/model"
	"github.com/bitelog/bitelog/server/internal/services"
)

type SettingsHandler struct {
	svc *services.SettingsService
}

func NewSettingsHandler(svc *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

type settingsResponse struct {
	Settings *model.UserSettings `json:"settings"`
}

// GetSettings handles GET /api/settings/{userId}
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.svc.Get(r.Context(), userID)
	if err != nil {
		respond.WriteDomainError(w, r, err, "Settings not found")
		return
	}
	respond.WriteJSON(w, http.StatusOK, settingsResponse{Settings: out})
}

// UpdateSettings handles PUT /api/settings/{userId}
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	var in struct {
		CalorieGoal *float64 `json:"calorie_goal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.CalorieGoal(in.CalorieGoal); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.svc.UpdateGoal(r.Context(), userID, int(*in.CalorieGoal))
	if err != nil {
		respond.WriteDomainError(w, r, err, "Settings not found")
		return
	}
	respond.WriteJSON(w, http.StatusOK, settingsResponse{Settings: out})
}

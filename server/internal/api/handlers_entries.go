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

const entryNotFound = "Entry not found"

type EntryHandler struct {
	svc *services.EntryService
}

func NewEntryHandler(svc *services.EntryService) *EntryHandler { return &EntryHandler{svc: svc} }

type createEntryRequest struct {
	UserID             string          `json:"user_id"`
	Timestamp          int64           `json:"timestamp"`
	ImageURL           *string         `json:"image_url"`
	AnalysisData       json.RawMessage `json:"analysis_data"`
	UserProvidedWeight *float64        `json:"user_provided_weight"`
}

type updateEntryRequest struct {
	UserID       string          `json:"user_id"`
	AnalysisData json.RawMessage `json:"analysis_data"`
}

type entryResponse struct {
	Entry *model.FoodEntry `json:"entry"`
}

type entriesResponse struct {
	Entries []*model.FoodEntry `json:"entries"`
}

// normalizeAnalysis maps JSON null to an absent payload.
func normalizeAnalysis(raw json.RawMessage) json.RawMessage {
	if string(raw) == "null" {
		return nil
	}
	return raw
}

// ListEntries handles GET /api/entries?user_id=&date=&tz=
func (h *EntryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("user_id")
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.svc.List(r.Context(), userID, q.Get("date"), q.Get("tz"))
	if err != nil {
		respond.WriteDomainError(w, r, err, entryNotFound)
		return
	}
	respond.WriteJSON(w, http.StatusOK, entriesResponse{Entries: out})
}

// CreateEntry handles POST /api/entries
func (h *EntryHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var in createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.CreateEntry(in.UserID, in.Timestamp, in.ImageURL, in.AnalysisData, in.UserProvidedWeight); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.svc.Create(r.Context(), &model.FoodEntry{
		UserID:             in.UserID,
		Timestamp:          in.Timestamp,
		ImageURL:           in.ImageURL,
		AnalysisData:       normalizeAnalysis(in.AnalysisData),
		UserProvidedWeight: in.UserProvidedWeight,
	})
	if err != nil {
		respond.WriteDomainError(w, r, err, entryNotFound)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, entryResponse{Entry: out})
}

// UpdateEntry handles PUT /api/entries/{id}
func (h *EntryHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in updateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.UserID(in.UserID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.AnalysisData(in.AnalysisData); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.svc.UpdateAnalysis(r.Context(), in.UserID, id, normalizeAnalysis(in.AnalysisData))
	if err != nil {
		respond.WriteDomainError(w, r, err, entryNotFound)
		return
	}
	respond.WriteJSON(w, http.StatusOK, entryResponse{Entry: out})
}

// DeleteEntry handles DELETE /api/entries/{id}. The owner comes from the JSON
// body; ?user_id= is accepted for clients that cannot send a DELETE body.
func (h *EntryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in struct {
		UserID string `json:"user_id"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			respond.WriteBadRequest(w, "invalid json")
			return
		}
	}
	if in.UserID == "" {
		in.UserID = r.URL.Query().Get("user_id")
	}
	if err := validate.UserID(in.UserID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := h.svc.Delete(r.Context(), in.UserID, id); err != nil {
		respond.WriteDomainError(w, r, err, entryNotFound)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"message": "Entry deleted successfully"})
}

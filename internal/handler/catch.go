package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/castiq/internal/apperror"
	"github.com/sakif/castiq/internal/model"
)

// MsgDeleted is the message of a successful delete.
const MsgDeleted = "Catch deleted successfully"

// CatchService is the business layer the handlers need. *service.CatchService
// satisfies it; tests can pass a stub.
type CatchService interface {
	Log(ctx context.Context, c *model.Catch) (*model.Catch, error)
	List(ctx context.Context, owner string) ([]model.Catch, error)
	Delete(ctx context.Context, id int64, owner string) error
	Edit(ctx context.Context, id int64, c *model.Catch) (*model.Catch, error)
}

// RecordResponse wraps a single stored catch.
type RecordResponse struct {
	Success bool         `json:"success"`
	Data    *model.Catch `json:"data"`
}

// ListResponse wraps an owner's catches. Data is never null.
type ListResponse struct {
	Data []model.Catch `json:"data"`
}

// CatchHandler serves the catch CRUD endpoints. It is stateless: all it
// holds are shared, read-only dependencies.
type CatchHandler struct {
	catches CatchService
	logger  *slog.Logger
}

// NewCatchHandler creates a CatchHandler.
func NewCatchHandler(catches CatchService, logger *slog.Logger) *CatchHandler {
	return &CatchHandler{catches: catches, logger: logger}
}

// HandleLog stores a new catch.
//
// HTTP: POST /log-catch
// BODY: {"user_id":"u1","date":"","time":"","location":"pier",...}
// 200:  {"success":true,"data":{...stored record with id...}}
func (h *CatchHandler) HandleLog(w http.ResponseWriter, r *http.Request) {
	in, err := h.decodeCatch(r)
	if err != nil {
		writeError(w, err)
		return
	}

	stored, err := h.catches.Log(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RecordResponse{Success: true, Data: stored})
}

// HandleList returns the caller's catches, oldest first.
//
// HTTP: GET /catches?user_id=u1
// 200:  {"data":[...]}
func (h *CatchHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("user_id")

	catches, err := h.catches.List(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{Data: catches})
}

// HandleDelete removes one of the caller's catches.
//
// HTTP: DELETE /delete-catch/{id}?user_id=u1
// 200:  {"success":true,"message":"Catch deleted successfully"}
// 200:  {"success":false,"message":"Catch not found or unauthorized"}
func (h *CatchHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	owner := r.URL.Query().Get("user_id")

	if err := h.catches.Delete(r.Context(), id, owner); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: MsgDeleted})
}

// HandleEdit replaces the fields of one of the caller's catches. The owner
// comes from the body; the path carries only the id.
//
// HTTP: PUT /edit-catch/{id}
// 200:  {"success":true,"data":{...}}
// 200:  {"success":false,"message":"Catch not found or unauthorized"}
func (h *CatchHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	in, err := h.decodeCatch(r)
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.catches.Edit(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RecordResponse{Success: true, Data: updated})
}

func (h *CatchHandler) decodeCatch(r *http.Request) (*model.Catch, error) {
	var p catchPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.logger.Warn("invalid catch JSON", slog.String("error", err.Error()))
		return nil, apperror.Malformed("body", "Invalid catch body: "+err.Error())
	}
	return p.toModel(), nil
}

// pathID reads the {id} URL parameter as an integer.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.Malformed("id", "Catch id must be an integer, got "+strconv.Quote(raw))
	}
	return id, nil
}

package restserver

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/chrissnell/cropyield/internal/storage/results"
	"github.com/chrissnell/cropyield/pkg/raster"
	"github.com/chrissnell/cropyield/pkg/responseformat"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// RunList is the body of GET /runs
type RunList struct {
	Runs []results.Run `json:"runs"`
}

// fail maps store errors onto HTTP status codes
func (h *Handlers) fail(w http.ResponseWriter, req *http.Request, err error) {
	if errors.Is(err, results.ErrNotFound) {
		h.formatter.WriteError(w, req, http.StatusNotFound, err.Error())
		return
	}
	h.controller.logger.Errorf("error serving %s: %v", req.URL.Path, err)
	h.formatter.WriteError(w, req, http.StatusInternalServerError, "internal error")
}

// ListRuns handles GET /runs
func (h *Handlers) ListRuns(w http.ResponseWriter, req *http.Request) {
	runs, err := h.controller.store.ListRuns(req.Context())
	if err != nil {
		h.fail(w, req, err)
		return
	}
	if err := h.formatter.WriteResponse(w, req, RunList{Runs: runs}); err != nil {
		h.controller.logger.Errorf("error encoding run list: %v", err)
	}
}

// GetRun handles GET /runs/{id}
func (h *Handlers) GetRun(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	run, err := h.controller.store.GetRun(req.Context(), id)
	if err != nil {
		h.fail(w, req, err)
		return
	}
	if err := h.formatter.WriteResponse(w, req, run); err != nil {
		h.controller.logger.Errorf("error encoding run %s: %v", id, err)
	}
}

// RasterBody is the body of GET /runs/{id}/rasters/{name}
type RasterBody struct {
	Run    string         `json:"run"`
	Name   string         `json:"name"`
	Raster raster.Encoded `json:"raster"`
}

// GetRaster handles GET /runs/{id}/rasters/{name}
func (h *Handlers) GetRaster(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	r, err := h.controller.store.LoadRaster(req.Context(), vars["id"], vars["name"])
	if err != nil {
		h.fail(w, req, err)
		return
	}
	body := RasterBody{Run: vars["id"], Name: vars["name"], Raster: r.Encode()}
	if err := h.formatter.WriteResponse(w, req, body); err != nil {
		h.controller.logger.Errorf("error encoding raster %s: %v", vars["name"], err)
	}
}

package handler

import (
	"encoding/json"
	"net/http"

	"mybad/internal/courts/service"
	httputil "mybad/pkg/http"
	"mybad/pkg/logger"
	"mybad/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type CourtHandler struct {
	service service.CourtService
	log     *logger.Logger
	admin   func(httprouter.Handle) httprouter.Handle
}

// NewCourtHandler wires the court routes. The admin middleware guards the
// mutating routes; read routes stay public.
func NewCourtHandler(service service.CourtService, admin func(httprouter.Handle) httprouter.Handle, log *logger.Logger) *CourtHandler {
	return &CourtHandler{
		service: service,
		log:     log,
		admin:   admin,
	}
}

type courtResource struct {
	Links httputil.Links `json:"_links"`
	*model.Court
}

type courtList struct {
	Links    httputil.Links `json:"_links"`
	Embedded struct {
		Courts []courtResource `json:"courts"`
	} `json:"_embedded"`
	NbCourts int `json:"nbCourts"`
}

func (h *CourtHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	courts, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	list := courtList{
		Links:    httputil.SelfLink("/courts").WithTemplated("court", "/courts/{id}"),
		NbCourts: len(courts),
	}
	list.Embedded.Courts = make([]courtResource, 0, len(courts))
	for _, c := range courts {
		list.Embedded.Courts = append(list.Embedded.Courts, courtResource{
			Links: httputil.SelfLink("/courts/" + c.ID),
			Court: c,
		})
	}

	if err := httputil.WriteSuccess(w, list); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "error", err)
	}
}

func (h *CourtHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	court, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Get", err)
		return
	}

	resource := courtResource{
		Links: httputil.SelfLink("/courts/" + court.ID).
			With("reservations", "/courts/"+court.ID+"/reservations"),
		Court: court,
	}
	if err := httputil.WriteSuccess(w, resource); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "error", err)
	}
}

func (h *CourtHandler) SetUnavailable(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var window model.UnavailabilityWindow
	if err := json.NewDecoder(r.Body).Decode(&window); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "SetUnavailable", "error", writeErr)
		}
		return
	}

	court, err := h.service.SetUnavailable(r.Context(), ps.ByName("id"), &window)
	if err != nil {
		h.writeError(w, "SetUnavailable", err)
		return
	}

	resource := courtResource{
		Links: httputil.SelfLink("/courts/" + court.ID),
		Court: court,
	}
	if err := httputil.WriteSuccess(w, resource); err != nil {
		h.log.Error("failed to write success response", "handler", "SetUnavailable", "error", err)
	}
}

func (h *CourtHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/courts", h.List)
	router.GET("/courts/:id", h.Get)
	router.PUT("/courts/:id", h.admin(h.SetUnavailable))
}

func (h *CourtHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "error", writeErr)
	}
}

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"mybad/internal/reservations/service"
	httputil "mybad/pkg/http"
	"mybad/pkg/logger"
	"mybad/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

type reservationResource struct {
	Links httputil.Links `json:"_links"`
	*model.Booking
}

type reservationList struct {
	Links    httputil.Links `json:"_links"`
	Embedded struct {
		Reservations []reservationResource `json:"reservations"`
	} `json:"_embedded"`
	NbReservations int `json:"nbReservations"`
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	courtID := ps.ByName("id")

	var req model.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, "Create", http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	booking, err := h.service.Book(r.Context(), courtID, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	resource := reservationResource{
		Links: httputil.SelfLink(reservationsPath(courtID)).
			With("court", courtPath(courtID)),
		Booking: booking,
	}
	if err := httputil.WriteCreated(w, resource); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	courtID := ps.ByName("id")
	pseudo := ps.ByName("pseudo")
	status := r.URL.Query().Get("status")

	bookings, err := h.service.ListByCourt(r.Context(), courtID, pseudo, status)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	list := reservationList{
		Links: httputil.SelfLink(fmt.Sprintf("%s/%s", reservationsPath(courtID), pseudo)).
			With("court", courtPath(courtID)),
		NbReservations: len(bookings),
	}
	list.Embedded.Reservations = make([]reservationResource, 0, len(bookings))
	for _, b := range bookings {
		list.Embedded.Reservations = append(list.Embedded.Reservations, reservationResource{
			Links:   httputil.SelfLink(reservationsPath(b.CourtID)),
			Booking: b,
		})
	}

	if err := httputil.WriteSuccess(w, list); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "error", err)
	}
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	courtID := ps.ByName("id")

	var req model.CancellationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, "Cancel", http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.Cancel(r.Context(), courtID, &req); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	resource := struct {
		Links  httputil.Links `json:"_links"`
		From   string         `json:"from"`
		Status string         `json:"status"`
	}{
		Links: httputil.SelfLink(reservationsPath(courtID)).
			With("court", courtPath(courtID)),
		From:   req.Pseudo,
		Status: fmt.Sprintf("Booking %s for court %s has been cancelled.", req.BookingID, courtID),
	}
	if err := httputil.WriteSuccess(w, resource); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "error", err)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/courts/:id/reservations", h.Create)
	router.GET("/courts/:id/reservations/:pseudo", h.List)
	router.DELETE("/courts/:id/reservations", h.Cancel)
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "error", writeErr)
	}
}

func (h *ReservationHandler) writeJSON(w http.ResponseWriter, op string, status int, body any) {
	if err := httputil.WriteJSON(w, status, body); err != nil {
		h.log.Error("failed to write JSON response", "handler", op, "error", err)
	}
}

func courtPath(courtID string) string {
	return "/courts/" + courtID
}

func reservationsPath(courtID string) string {
	return courtPath(courtID) + "/reservations"
}

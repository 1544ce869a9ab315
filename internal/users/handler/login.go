package handler

import (
	"encoding/json"
	"net/http"

	"mybad/internal/users/service"
	httputil "mybad/pkg/http"
	"mybad/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type LoginHandler struct {
	service service.UserService
	log     *logger.Logger
}

func NewLoginHandler(service service.UserService, log *logger.Logger) *LoginHandler {
	return &LoginHandler{
		service: service,
		log:     log,
	}
}

type loginRequest struct {
	Pseudo   string `json:"pseudo"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Login", "error", writeErr)
		}
		return
	}

	token, err := h.service.Authenticate(r.Context(), req.Pseudo, req.Password)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Login", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Login", "error", err)
	}
}

func (h *LoginHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/login", h.Login)
}

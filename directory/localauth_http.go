package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// LocalAuthHandler exposes LocalDirectory's register/login over HTTP
// so a MODE=test deployment has some way to mint a bearer token,
// mirroring the teacher's auth.HTTPHandler request/response shapes.
type LocalAuthHandler struct {
	dir *LocalDirectory
}

func NewLocalAuthHandler(dir *LocalDirectory) *LocalAuthHandler {
	return &LocalAuthHandler{dir: dir}
}

func (h *LocalAuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/auth/register", h.handleRegister)
	mux.HandleFunc("/auth/login", h.handleLogin)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

func (h *LocalAuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeLocalAuthError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req credentialsRequest
	if err := decodeLocalAuthJSON(r, &req); err != nil {
		writeLocalAuthError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	userID, token, err := h.dir.Register(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			writeLocalAuthError(w, http.StatusConflict, err.Error())
			return
		}
		writeLocalAuthError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeLocalAuthJSON(w, http.StatusOK, authResponse{UserID: userID, Token: token})
}

func (h *LocalAuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeLocalAuthError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req credentialsRequest
	if err := decodeLocalAuthJSON(r, &req); err != nil {
		writeLocalAuthError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	userID, token, err := h.dir.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeLocalAuthError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		writeLocalAuthError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeLocalAuthJSON(w, http.StatusOK, authResponse{UserID: userID, Token: token})
}

func decodeLocalAuthJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeLocalAuthError(w http.ResponseWriter, status int, msg string) {
	writeLocalAuthJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}

func writeLocalAuthJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

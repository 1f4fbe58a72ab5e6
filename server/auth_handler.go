package server

import (
	"encoding/json"
	"net/http"
	"time"

	"AirCue/core/auth"
	"AirCue/logger"
)

// LoginRequest 登录请求体
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler 操作员登录，签发JWT
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "username and password are required"})
		return
	}

	op, err := h.operatorRepo.GetByUsername(r.Context(), req.Username)
	if err != nil {
		logger.Error("[Login] 查询操作员失败", logger.ErrorField(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		return
	}
	if op == nil || !auth.CheckPasswordHash(req.Password, op.PasswordHash) {
		logger.Warn("[Login] 认证失败", logger.String("username", req.Username))
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid username or password"})
		return
	}

	expire := time.Duration(h.cfg.JWTExpireHr) * time.Hour
	token, err := auth.GenerateToken(h.cfg.JWTSecret, op.ID, op.Username, expire)
	if err != nil {
		logger.Error("[Login] 生成Token失败", logger.ErrorField(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		return
	}

	logger.Info("[Login] 登录成功", logger.String("username", op.Username))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":    token,
		"username": op.Username,
	})
}

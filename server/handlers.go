package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"AirCue/config"
	"AirCue/core/auth"
	"AirCue/core/playout"
	"AirCue/core/status"
	"AirCue/logger"
	"AirCue/repository"
)

type contextKey string

const (
	operatorIDKey contextKey = "operatorID"
	usernameKey   contextKey = "username"
)

// APIHandler 聚合所有 HTTP 处理器的依赖
type APIHandler struct {
	controller   *playout.Controller
	playlistRepo repository.PlaylistRepository
	studioRepo   repository.StudioRepository
	operatorRepo repository.OperatorRepository
	rundownRepo  repository.RundownRepository
	hub          *status.Hub
	cfg          *config.Config
}

// NewAPIHandler 创建 API 处理器
func NewAPIHandler(
	controller *playout.Controller,
	playlistRepo repository.PlaylistRepository,
	studioRepo repository.StudioRepository,
	operatorRepo repository.OperatorRepository,
	rundownRepo repository.RundownRepository,
	hub *status.Hub,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		controller:   controller,
		playlistRepo: playlistRepo,
		studioRepo:   studioRepo,
		operatorRepo: operatorRepo,
		rundownRepo:  rundownRepo,
		hub:          hub,
		cfg:          cfg,
	}
}

// writeJSON 输出 JSON 响应
func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("failed to encode response", logger.ErrorField(err))
		}
	}
}

// errorBody 指令失败响应体
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeFailure 把播出指令错误映射为 HTTP 状态码
func writeFailure(w http.ResponseWriter, err error) {
	kind := playout.KindOf(err)

	var code int
	switch kind {
	case playout.NotFound:
		code = http.StatusNotFound
	case playout.ExclusivityViolation, playout.StaleRequest:
		code = http.StatusConflict
	case playout.Inactive, playout.NoNextPart:
		code = http.StatusUnprocessableEntity
	case playout.PersistenceFailure:
		code = http.StatusInternalServerError
	default:
		code = http.StatusInternalServerError
	}

	writeJSON(w, code, errorBody{Error: err.Error(), Kind: string(kind)})
}

// AuthMiddleware 校验 Bearer JWT，操作员身份放入 context
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "authorization header required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid authorization header"})
			return
		}

		claims, err := auth.ParseToken(h.cfg.JWTSecret, parts[1])
		if err != nil {
			logger.Warn("token validation failed", logger.ErrorField(err))
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid or expired token"})
			return
		}

		ctx := context.WithValue(r.Context(), operatorIDKey, claims.OperatorID)
		ctx = context.WithValue(ctx, usernameKey, claims.Username)
		next(w, r.WithContext(ctx))
	}
}

// OperatorFromContext 取出认证后的操作员身份
func OperatorFromContext(ctx context.Context) (int64, string, error) {
	id, ok := ctx.Value(operatorIDKey).(int64)
	if !ok {
		return 0, "", fmt.Errorf("operator not found in context")
	}
	username, _ := ctx.Value(usernameKey).(string)
	return id, username, nil
}

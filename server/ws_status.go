package server

import (
	"context"
	"net/http"

	"AirCue/core/status"
	"AirCue/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StatusWebSocketHandler GET /ws/status/{topic}
// 订阅后立即收到该主题的当前视图，之后每次视图变化推送一帧。
func (h *APIHandler) StatusWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	topicName := mux.Vars(r)["topic"]
	if h.hub.Topic(topicName) == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown status topic"})
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := status.NewClient(h.hub, topicName, conn)
	h.hub.Register(client)

	// 升级后请求上下文随 ServeHTTP 返回而取消，读循环用独立上下文
	go client.WritePump()
	go client.ReadPump(context.Background())
}

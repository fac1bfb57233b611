// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/matchday-vote/live"
	"github.com/danielhkuo/matchday-vote/models"
)

// The widget is embedded on third-party pages
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SubscribeTally handles GET /api/votes/live
// Sends the current tally on connect, then every tally after a new vote
func (h *VoteHandler) SubscribeTally(w http.ResponseWriter, r *http.Request) {
	if h.deps.Hub == nil {
		http.NotFound(w, r)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := live.NewClient(conn)
	h.deps.Hub.Register(client)
	defer h.deps.Hub.Unregister(client)

	tally, err := h.currentTally(r.Context())
	if err != nil {
		slog.Error("failed to fetch initial tally", "error", err)
	} else if err := client.SendJSON(tally); err != nil {
		slog.Warn("failed to send initial tally", "error", err)
		return
	}

	// Incoming messages are ignored; reading detects the disconnect
	for {
		if _, _, err := client.ReadMessage(); err != nil {
			return
		}
	}
}

func marshalTally(tally models.Tally) ([]byte, error) {
	data, err := json.Marshal(tally)
	if err != nil {
		slog.Error("failed to encode tally", "error", err)
	}
	return data, err
}

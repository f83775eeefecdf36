package server

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"

	"github.com/floydverse/flappy-floyd/internal/protocol"
)

const (
	leaderboardSize = 10
	qrSize          = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("Response write failed", "err", err)
	}
}

// SetupRoutes configures HTTP routes. publicURL, when set, is the address
// encoded by /qr for players joining from a phone.
func SetupRoutes(hub *Hub, publicURL string) *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("Upgrade failed", "addr", ip, "err", err)
			return
		}

		hub.TrackConnect(ip)

		q := r.URL.Query()
		id := int(hub.nextPlayerID.Add(1))
		username, token := hub.identify(id, q.Get("token"), q.Get("username"))
		binary := q.Get("encoding") == "msgpack"

		client := NewClient(hub, conn, ip, id, username, binary)
		client.highscore.Store(int64(hub.highscore(username)))
		if !hub.registerClient(client) {
			hub.TrackDisconnect(ip)
			conn.Close()
			return
		}

		go client.WritePump()

		client.Send(protocol.NewFrame(protocol.ActionServerInfo, protocol.ServerInfo{
			TicksPerSecond: hub.registry.TickRate(),
		}))
		client.Send(protocol.NewFrame(protocol.ActionPlayerInfo, protocol.PlayerInfo{
			PlayerID: id,
			Username: username,
			Token:    token,
		}))
		log.Info("Player connected", "player", id, "username", username, "addr", ip, "msgpack", binary)

		go client.ReadPump()
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		stats := hub.registry.Stats()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":      "ok",
			"sessions":    stats.Sessions,
			"players":     stats.Players,
			"clients":     hub.ClientCount(),
			"connections": hub.TotalConns(),
		})
	})

	mux.HandleFunc("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			http.Error(w, "leaderboard unavailable", http.StatusServiceUnavailable)
			return
		}
		entries, err := hub.db.Leaderboard(leaderboardSize)
		if err != nil {
			log.Error("Leaderboard query failed", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	})

	if publicURL != "" {
		png, err := qrcode.Encode(publicURL, qrcode.Medium, qrSize)
		if err != nil {
			log.Error("QR code generation failed", "url", publicURL, "err", err)
		} else {
			mux.HandleFunc("/qr", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/png")
				w.Write(png)
			})
		}
	}

	return mux
}

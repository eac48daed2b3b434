package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"

	"thermite-server/internal/protocol"
)

const (
	joinWait        = 5 * time.Second
	qrSize          = 256
	maxRecentEvents = 100
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

// joinURL is the WebSocket address players should dial
func joinURL(publicURL string, r *http.Request) string {
	if publicURL != "" {
		u := strings.TrimRight(publicURL, "/")
		u = strings.Replace(u, "https://", "wss://", 1)
		u = strings.Replace(u, "http://", "ws://", 1)
		return u + "/ws"
	}
	scheme := "ws"
	if r.TLS != nil {
		scheme = "wss"
	}
	return scheme + "://" + r.Host + "/ws"
}

// SetupRoutes configures HTTP routes. events may be nil.
func SetupRoutes(hub *Hub, coord *Coordinator, events eventReader, publicURL string, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("upgrade error", "remote", ip, "err", err)
			return
		}

		hub.TrackConnect(ip)
		client := NewClient(hub, coord, conn, ip, logger)
		go client.WritePump()

		ctx, cancel := context.WithTimeout(r.Context(), joinWait)
		id, err := coord.Join(ctx, client)
		cancel()
		if err != nil {
			logger.Info("join refused", "remote", ip, "err", err)
			client.SendMessage(protocol.Error{Message: err.Error()})
			hub.TrackDisconnect(ip)
			// never registered, so the hub will not close it
			close(client.send)
			return
		}
		client.playerID = id
		hub.register <- client
		go client.ReadPump()
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			Status
			Connections int `json:"connections"`
			Clients     int `json:"clients"`
		}{coord.Status(), hub.TotalConns(), hub.ClientCount()})
	})

	mux.HandleFunc("/qr", func(w http.ResponseWriter, r *http.Request) {
		png, err := qrcode.Encode(joinURL(publicURL, r), qrcode.Medium, qrSize)
		if err != nil {
			logger.Error("qr encode", "err", err)
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	})

	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		if events == nil {
			http.Error(w, "event history not available", http.StatusNotFound)
			return
		}
		limit := 20
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= maxRecentEvents {
			limit = v
		}
		list, err := events.Recent(r.Context(), limit)
		if err != nil {
			logger.Error("list events", "err", err)
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}
		type eventView struct {
			RoutingKey string          `json:"routing_key"`
			Payload    json.RawMessage `json:"payload"`
			CreatedAt  time.Time       `json:"created_at"`
		}
		out := make([]eventView, len(list))
		for i, e := range list {
			out[i] = eventView{RoutingKey: e.RoutingKey, Payload: e.Payload, CreatedAt: e.CreatedAt}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	})

	return mux
}

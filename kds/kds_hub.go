package kds

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/leonardo27oliveira02-spec/garccom-app/realtime"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
	"github.com/sirupsen/logrus"
)

// Event types
const (
	EventSnapshot = "snapshot"
	EventAlert    = "alert"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

type Message struct {
	Event string      `json:"event"`
	View  string      `json:"view"`
	Data  interface{} `json:"data"`
}

// Client is one connected terminal. It is the sink of a single view session.
type Client struct {
	conn         *websocket.Conn
	role         string
	restaurantID uint
	writeMu      sync.Mutex
}

func (c *Client) Snapshot(view string, data interface{}) error {
	return c.send(Message{Event: EventSnapshot, View: view, Data: data})
}

func (c *Client) Alert(view string, alert realtime.Alert) error {
	return c.send(Message{Event: EventAlert, View: view, Data: alert})
}

func (c *Client) send(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

// Hub tracks connected terminals (kitchen, waiter, admin).
type Hub struct {
	clients map[*Client]struct{}
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) register(conn *websocket.Conn, role string, restaurantID uint) *Client {
	client := &Client{conn: conn, role: role, restaurantID: restaurantID}
	h.mutex.Lock()
	h.clients[client] = struct{}{}
	h.mutex.Unlock()
	return client
}

func (h *Hub) unregister(client *Client) {
	h.mutex.Lock()
	delete(h.clients, client)
	h.mutex.Unlock()
	client.conn.Close()
}

// Count returns the number of connected terminals.
func (h *Hub) Count() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// CloseAll disconnects every terminal; their sessions end on the next read.
func (h *Hub) CloseAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		client.writeMu.Lock()
		client.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		client.writeMu.Unlock()
		client.conn.Close()
	}
}

// Serve registers conn and runs session with the client as its sink until the
// terminal disconnects, ctx ends or the session returns.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, role string, restaurantID uint,
	session func(ctx context.Context, sink realtime.Sink) error) error {

	client := h.register(conn, role, restaurantID)
	defer h.unregister(client)

	log := utils.InfoLogger.WithFields(logrus.Fields{"role": role, "restaurant_id": restaurantID})
	log.Infof("terminal connected (%d online)", h.Count())
	defer log.Info("terminal disconnected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * pingPeriod))
	})
	conn.SetReadDeadline(time.Now().Add(2 * pingPeriod))

	// terminals never send anything we act on; reading detects disconnects
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	return session(ctx, client)
}

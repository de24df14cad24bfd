// Package realtime pushes the public provider board to websocket displays.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"backend-antrian-klinik/internal/logger"
	"backend-antrian-klinik/internal/metrics"
	"backend-antrian-klinik/internal/models"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
}

// BoardSource loads the current board of a provider.
type BoardSource func(ctx context.Context, providerID int64) (models.Board, error)

type Message struct {
	Type string       `json:"type"`
	Data models.Board `json:"data"`
}

type Client struct {
	id         string
	providerID int64
	conn       Conn
	writeMux   sync.Mutex
	closed     bool
}

func (c *Client) write(messageType int, data []byte) error {
	c.writeMux.Lock()
	defer c.writeMux.Unlock()

	if c.closed {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(messageType, data)
}

func (c *Client) close() {
	c.writeMux.Lock()
	c.closed = true
	c.writeMux.Unlock()
}

type Hub struct {
	source BoardSource
	delay  time.Duration

	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}

	// per-provider debounce: a burst of mutations costs one board query
	timersMu sync.Mutex
	timers   map[int64]*time.Timer

	publish func(ctx context.Context, providerID int64) error
}

func NewHub(source BoardSource) *Hub {
	return &Hub{
		source:  source,
		delay:   50 * time.Millisecond,
		clients: make(map[int64]map[*Client]struct{}),
		timers:  make(map[int64]*time.Timer),
	}
}

// Subscribe registers conn for updates of providerID and sends it the current board.
func (h *Hub) Subscribe(providerID int64, conn Conn) *Client {
	client := &Client{id: uuid.NewString(), providerID: providerID, conn: conn}

	h.mu.Lock()
	set, ok := h.clients[providerID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[providerID] = set
	}
	set[client] = struct{}{}
	total := len(set)
	h.mu.Unlock()

	metrics.WebsocketClients.Inc()
	logger.Logger.WithFields(logrus.Fields{
		"client_id":   client.id,
		"provider_id": providerID,
		"total":       total,
	}).Debug("[board] client registered")

	go h.sendTo(client)
	return client
}

func (h *Hub) Unsubscribe(client *Client) {
	client.close()

	h.mu.Lock()
	if set, ok := h.clients[client.providerID]; ok {
		if _, ok := set[client]; ok {
			delete(set, client)
			metrics.WebsocketClients.Dec()
		}
		if len(set) == 0 {
			delete(h.clients, client.providerID)
		}
	}
	h.mu.Unlock()
}

// Notify is called after every queue mutation of providerID. With a Redis
// bridge attached the update is published so every instance refreshes its
// own clients; otherwise it is scheduled locally.
func (h *Hub) Notify(providerID int64) {
	if h.publish != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		err := h.publish(ctx, providerID)
		if err == nil {
			return
		}
		logger.Logger.WithError(err).WithField("provider_id", providerID).Warn("[board] publish gagal, broadcast lokal")
	}
	h.schedule(providerID)
}

func (h *Hub) schedule(providerID int64) {
	h.timersMu.Lock()
	defer h.timersMu.Unlock()

	if t, ok := h.timers[providerID]; ok {
		t.Reset(h.delay)
		return
	}

	h.timers[providerID] = time.AfterFunc(h.delay, func() {
		h.timersMu.Lock()
		delete(h.timers, providerID)
		h.timersMu.Unlock()

		h.broadcast(providerID)
	})
}

func (h *Hub) subscribers(providerID int64) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.clients[providerID]
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (h *Hub) message(providerID int64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	board, err := h.source(ctx, providerID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: "board", Data: board})
}

func (h *Hub) broadcast(providerID int64) {
	clients := h.subscribers(providerID)
	if len(clients) == 0 {
		return
	}

	msg, err := h.message(providerID)
	if err != nil {
		logger.Logger.WithError(err).WithField("provider_id", providerID).Error("[board] gagal ambil data board")
		return
	}

	for _, c := range clients {
		if err := c.write(websocket.TextMessage, msg); err != nil {
			logger.Logger.WithError(err).WithField("client_id", c.id).Warn("[board] write error, client dilepas")
			h.Unsubscribe(c)
		}
	}
}

func (h *Hub) sendTo(c *Client) {
	msg, err := h.message(c.providerID)
	if err != nil {
		logger.Logger.WithError(err).WithField("provider_id", c.providerID).Error("[board] gagal kirim data awal")
		return
	}
	if err := c.write(websocket.TextMessage, msg); err != nil {
		h.Unsubscribe(c)
	}
}

// Serve runs the connection until the peer goes away. Blocks.
func (h *Hub) Serve(c *websocket.Conn, providerID int64) {
	client := h.Subscribe(providerID, c)
	defer h.Unsubscribe(client)

	log := logger.Logger.WithFields(logrus.Fields{"client_id": client.id, "provider_id": providerID})
	log.Info("[board] client connected")

	c.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	done := make(chan struct{})
	defer close(done)

	// ping every 20s
	go func() {
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := client.write(websocket.PingMessage, nil); err != nil {
					log.WithError(err).Debug("[board] ping error")
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure,
			) {
				log.WithError(err).Warn("[board] unexpected close")
			} else {
				log.Info("[board] client closed")
			}
			return
		}
	}
}

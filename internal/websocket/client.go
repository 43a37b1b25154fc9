package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/xelth-com/pharmsearch/internal/logger"
	"github.com/xelth-com/pharmsearch/internal/search"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024
)

// Message types of the chat protocol
const (
	TypeChatQuery  = "CHAT_QUERY"
	TypeChatResult = "CHAT_RESULT"
	TypeChatError  = "CHAT_ERROR"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Storefront widgets are embedded on other origins
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	ID string
}

// BaseMessage is the basic message structure for routing
type BaseMessage struct {
	Type  string `json:"type"`
	MsgID string `json:"msgId,omitempty"`
}

// ChatQuery asks for a conversational search
type ChatQuery struct {
	BaseMessage
	Query        string           `json:"query"`
	History      []search.Turn    `json:"history,omitempty"`
	Strategy     string           `json:"strategy,omitempty"`
	Category     string           `json:"category,omitempty"`
	Manufacturer string           `json:"manufacturer,omitempty"`
	Ingredient   string           `json:"ingredient,omitempty"`
	MinPrice     *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice     *decimal.Decimal `json:"max_price,omitempty"`
	Sort         string           `json:"sort,omitempty"`
	Page         int              `json:"page,omitempty"`
	PageSize     int              `json:"page_size,omitempty"`
}

// Request converts the wire message into an engine request
func (q ChatQuery) Request() search.Request {
	strategy, _ := search.ParseStrategy(q.Strategy)
	return search.Request{
		Query:    q.Query,
		Strategy: strategy,
		Filters: search.Filters{
			Category:     q.Category,
			Manufacturer: q.Manufacturer,
			Ingredient:   q.Ingredient,
			MinPrice:     q.MinPrice,
			MaxPrice:     q.MaxPrice,
			Sort:         search.ParseSortKey(q.Sort),
		},
		Page:     q.Page,
		PageSize: q.PageSize,
		History:  q.History,
	}
}

// ChatResult carries the resolved page back to the client
type ChatResult struct {
	BaseMessage
	Page *search.SearchResultPage `json:"page"`
}

// ChatError reports a query that could not be answered
type ChatError struct {
	BaseMessage
	Error string `json:"error"`
}

// readPump pumps messages from the websocket connection to the hub.
// Queries are answered one at a time in arrival order.
func (c *Client) readPump(ctx context.Context, cancel context.CancelFunc) {
	defer func() {
		cancel()
		c.hub.detach(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn(ctx, "⚠️ WS error", "error", err)
			}
			break
		}
		c.handle(ctx, message)
	}
}

func (c *Client) handle(ctx context.Context, message []byte) {
	var base BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		c.sendError("", "malformed message")
		return
	}
	if base.Type != TypeChatQuery {
		c.sendError(base.MsgID, "unsupported message type: "+base.Type)
		return
	}
	if c.hub.dedup != nil && c.hub.dedup.IsDuplicate(base.MsgID) {
		logger.Debug(ctx, "🔁 Duplicate chat message dropped", "msg_id", base.MsgID)
		return
	}

	var q ChatQuery
	if err := json.Unmarshal(message, &q); err != nil {
		c.forget(base.MsgID)
		c.sendError(base.MsgID, "malformed chat query")
		return
	}

	page, err := c.hub.resolver.ResolveConversational(ctx, q.Request())
	if err != nil {
		// Only a delivered result consumes the id; a retry must get through
		c.forget(q.MsgID)
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Error(ctx, "❌ Chat query failed", "msg_id", q.MsgID, "error", err)
		c.sendError(q.MsgID, "search failed")
		return
	}
	c.hub.SendToClient(c.ID, ChatResult{
		BaseMessage: BaseMessage{Type: TypeChatResult, MsgID: q.MsgID},
		Page:        page,
	})
}

func (c *Client) forget(msgID string) {
	if c.hub.dedup != nil {
		c.hub.dedup.Forget(msgID)
	}
}

func (c *Client) sendError(msgID, text string) {
	c.hub.SendToClient(c.ID, ChatError{
		BaseMessage: BaseMessage{Type: TypeChatError, MsgID: msgID},
		Error:       text,
	})
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs handles websocket requests from the peer.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn(r.Context(), "⚠️ WS upgrade failed", "error", err)
		return
	}
	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), ID: "chat_" + uuid.New().String()}
	if !hub.attach(client) {
		conn.Close()
		return
	}

	// The request context ends with the handler, the client outlives it
	ctx, cancel := context.WithCancel(logger.WithRequestID(context.Background(), client.ID))
	go client.writePump()
	go client.readPump(ctx, cancel)
}

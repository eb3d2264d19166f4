package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kode4food/caravan/topic"
	"github.com/kode4food/timebox"

	"github.com/kode4food/nagme/pkg/api"
	"github.com/kode4food/nagme/pkg/events"
	"github.com/kode4food/nagme/pkg/log"
)

type (
	// Client represents a WebSocket client connection for event streaming
	Client struct {
		conn     *websocket.Conn
		consumer topic.Consumer[*timebox.Event]
		filter   events.EventFilter
		getState StateFunc
		onClose  func(*Client)
		minSeq   int64
	}

	// StateFunc retrieves the current projected state and next sequence for
	// an aggregate. The next sequence is used by clients to detect sequence
	// skew
	StateFunc func(timebox.AggregateID) (any, int64, error)
)

const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 512
	wsBufferSize       = 1024
	incomingBufferSize = 16
)

var (
	ErrInvalidAggregateID = errors.New("invalid aggregate_id")

	upgrader = websocket.Upgrader{
		ReadBufferSize:  wsBufferSize,
		WriteBufferSize: wsBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
)

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", log.Error(err))
		return
	}

	noopFilter := func(*timebox.Event) bool { return false }
	client := &Client{
		conn:     conn,
		consumer: s.eventHub.NewConsumer(),
		filter:   noopFilter,
		getState: s.stateForAggregate,
		onClose:  s.unregisterWebSocket,
	}
	s.registerWebSocket(client)

	go client.run()
}

// stateForAggregate resolves a subscription's aggregate to its projected
// state: a task tree for task keys, the registry for the registry key
func (s *Server) stateForAggregate(
	id timebox.AggregateID,
) (any, int64, error) {
	if len(id) == 0 {
		return nil, 0, nil
	}
	switch string(id[0]) {
	case events.TaskPrefix:
		if len(id) < 2 {
			return nil, 0, ErrInvalidAggregateID
		}
		return s.engine.GetTaskStateSeq(api.TaskID(id[1]))
	case events.RegistryPrefix:
		return s.engine.GetRegistryStateSeq()
	default:
		return nil, 0, ErrInvalidAggregateID
	}
}

// Close terminates the client's connection, which unwinds its run loop
func (c *Client) Close() {
	_ = c.conn.Close()
}

func (c *Client) run() {
	defer func() {
		c.consumer.Close()
		_ = c.conn.Close()
		if c.onClose != nil {
			c.onClose(c)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	incoming := make(chan []byte, incomingBufferSize)
	go c.readMessages(incoming)

	for {
		select {
		case message, ok := <-incoming:
			if !ok {
				return
			}
			c.handleSubscribe(message)

		case event, ok := <-c.consumer.Receive():
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !c.sendEventIfMatched(event) {
				return
			}

		case <-ticker.C:
			if !c.sendPing() {
				return
			}
		}
	}
}

func (c *Client) readMessages(incoming chan []byte) {
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			close(incoming)
			return
		}
		incoming <- message
	}
}

func (c *Client) handleSubscribe(message []byte) {
	var sub api.SubscribeRequest
	if err := json.Unmarshal(message, &sub); err != nil {
		slog.Error("Failed to parse WebSocket message", log.Error(err))
		return
	}

	if sub.Type != "subscribe" {
		return
	}

	c.filter = BuildFilter(&sub.Data)

	if len(sub.Data.AggregateID) > 0 {
		c.sendSubscribeState(stringsToID(sub.Data.AggregateID))
	}
}

func (c *Client) sendSubscribeState(aggregateID timebox.AggregateID) {
	if c.getState == nil {
		return
	}

	state, nextSeq, err := c.getState(aggregateID)
	if err != nil {
		slog.Error("Failed to get state for subscription",
			slog.Any("aggregate_id", aggregateID),
			log.Error(err))
		return
	}

	data, err := json.Marshal(state)
	if err != nil {
		slog.Error("Failed to marshal state",
			slog.Any("aggregate_id", aggregateID),
			log.Error(err))
		return
	}

	c.minSeq = nextSeq

	msg := api.SubscribedResult{
		Type:        "subscribed",
		AggregateID: idToStrings(aggregateID),
		Data:        data,
		Sequence:    nextSeq,
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		slog.Error("WebSocket write failed",
			slog.String("context", "subscribed"),
			log.Error(err))
	}
}

func (c *Client) sendEventIfMatched(event *timebox.Event) bool {
	if event.Sequence < c.minSeq || !c.filter(event) {
		return true
	}

	wsEvent := c.transformEvent(event)
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(wsEvent); err != nil {
		slog.Error("WebSocket write failed", log.Error(err))
		return false
	}
	return true
}

func (c *Client) transformEvent(ev *timebox.Event) *api.WebSocketEvent {
	return &api.WebSocketEvent{
		Type:        api.EventType(ev.Type),
		Data:        ev.Data,
		Timestamp:   ev.Timestamp.UnixMilli(),
		AggregateID: idToStrings(ev.AggregateID),
		Sequence:    ev.Sequence,
	}
}

func (c *Client) sendPing() bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.conn.WriteMessage(websocket.PingMessage, nil)
	return err == nil
}

// BuildFilter creates an event filter based on client subscription
// preferences for event types and aggregate IDs
func BuildFilter(sub *api.ClientSubscription) events.EventFilter {
	var filters []events.EventFilter
	if len(sub.AggregateID) > 0 {
		filters = append(filters, aggregateFilter(sub.AggregateID))
	}
	if len(sub.EventTypes) > 0 {
		filters = append(filters, events.FilterEvents(sub.EventTypes...))
	}
	return events.AndFilters(filters...)
}

func aggregateFilter(parts []string) events.EventFilter {
	switch parts[0] {
	case events.TaskPrefix:
		if len(parts) > 1 {
			return events.FilterTask(api.TaskID(parts[1]))
		}
		return events.IsTaskEvent
	case events.RegistryPrefix:
		return events.IsRegistryEvent
	default:
		return func(*timebox.Event) bool { return false }
	}
}

func idToStrings(id timebox.AggregateID) []string {
	res := make([]string, 0, len(id))
	for _, part := range id {
		res = append(res, string(part))
	}
	return res
}

func stringsToID(parts []string) timebox.AggregateID {
	res := make(timebox.AggregateID, 0, len(parts))
	for _, part := range parts {
		res = append(res, timebox.ID(part))
	}
	return res
}

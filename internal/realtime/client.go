package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v3"
	"go.uber.org/zap"

	"github.com/CraftAlchemy/Vidora-sub000/internal/gesture"
	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client represents a single WebSocket connection in a session room.
// Each client owns its own gesture controller, so UI visibility is a
// per-connection projection and never touches engine state.
type Client struct {
	ID        string
	SessionID uuid.UUID
	Viewer    models.Viewer
	Role      string
	hub       *Hub
	sfu       *SFU
	conn      *websocket.Conn
	send      chan WSMessage
	gestures  *gesture.Controller
	logger    *zap.Logger
}

// ServeWs handles the WebSocket upgrade and runs the client loop.
func ServeWs(hub *Hub, logger *zap.Logger, jwtValidate func(token string) (userID, username, role string, err error), sfu *SFU) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionIDStr := c.Query("session_id")
		token := c.Query("token")
		if sessionIDStr == "" || token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and token required"})
			return
		}
		sessionID, err := uuid.Parse(sessionIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session_id"})
			return
		}
		userIDStr, username, role, err := jwtValidate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		userID, _ := uuid.Parse(userIDStr)
		viewer := models.Viewer{ID: userID, Username: username}

		if hub.admit != nil && !hub.admit(sessionID, viewer) {
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot join session"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:        uuid.New().String(),
			SessionID: sessionID,
			Viewer:    viewer,
			Role:      role,
			hub:       hub,
			sfu:       sfu,
			conn:      conn,
			send:      make(chan WSMessage, 256),
			gestures:  gesture.NewController(),
			logger:    logger,
		}
		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		if c.sfu != nil {
			c.sfu.UnregisterClient(c.SessionID, c.ID)
		}
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	sendToMe := func(event string, payload interface{}) {
		c.hub.SendToClient(c.SessionID, c.ID, event, payload)
	}

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Event {
		case "join":
			c.hub.BroadcastToSessionAndPublish(c.SessionID, "join", map[string]string{
				"user_id":  c.Viewer.ID.String(),
				"username": c.Viewer.Username,
				"role":     c.Role,
			})
		case "chat_message":
			// Server-side filter: the session decides whether this surfaces.
			var payload struct {
				Text     string `json:"text"`
				ImageURL string `json:"image_url"`
			}
			if err := json.Unmarshal(msg.Data, &payload); err == nil && payload.Text != "" {
				if c.hub.onChat != nil {
					c.hub.onChat(c.SessionID, c.Viewer, payload.Text, payload.ImageURL)
				}
			}
		case "gesture_start", "gesture_move", "gesture_end":
			c.handleGesture(msg.Event, msg.Data, sendToMe)
		case "webrtc_publisher_offer":
			if c.sfu != nil {
				var payload struct {
					Type string `json:"type"`
					SDP  string `json:"sdp"`
				}
				if err := json.Unmarshal(msg.Data, &payload); err == nil && payload.SDP != "" {
					sdp := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: payload.SDP}
					_ = c.sfu.HandlePublisherOffer(c.SessionID, c.ID, c.Role, sdp, sendToMe)
				}
			}
		case "webrtc_subscribe":
			if c.sfu != nil {
				_ = c.sfu.HandleSubscribe(c.SessionID, c.ID, sendToMe)
			}
		case "webrtc_subscriber_answer":
			if c.sfu != nil {
				var payload struct {
					Type string `json:"type"`
					SDP  string `json:"sdp"`
				}
				if err := json.Unmarshal(msg.Data, &payload); err == nil && payload.SDP != "" {
					sdp := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: payload.SDP}
					_ = c.sfu.HandleSubscriberAnswer(c.SessionID, c.ID, sdp)
				}
			}
		case "webrtc_ice":
			if c.sfu != nil {
				var payload struct {
					Target    string          `json:"target"`
					Candidate json.RawMessage `json:"candidate"`
				}
				if err := json.Unmarshal(msg.Data, &payload); err == nil && len(payload.Candidate) > 0 {
					var cand webrtc.ICECandidateInit
					if json.Unmarshal(payload.Candidate, &cand) == nil {
						if payload.Target == "publisher" {
							_ = c.sfu.HandlePublisherICE(c.SessionID, c.ID, cand)
						} else if payload.Target == "subscriber" {
							_ = c.sfu.HandleSubscriberICE(c.SessionID, c.ID, cand)
						}
					}
				}
			}
		default:
			// ignore
		}
	}
}

// handleGesture feeds pointer/touch coordinates into the per-client swipe
// state machine and reports committed visibility changes back to the client.
func (c *Client) handleGesture(event string, data json.RawMessage, sendToMe func(string, interface{})) {
	var payload struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if event != "gesture_end" {
		if err := json.Unmarshal(data, &payload); err != nil {
			return
		}
	}
	switch event {
	case "gesture_start":
		c.gestures.Begin(payload.X, payload.Y)
	case "gesture_move":
		c.gestures.Move(payload.X, payload.Y)
	case "gesture_end":
		if c.gestures.End() {
			sendToMe("ui_visibility", map[string]bool{"visible": c.gestures.Visible()})
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

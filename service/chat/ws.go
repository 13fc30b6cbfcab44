package chat

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chatrelay/logger"
	"chatrelay/tools/ids"
	"chatrelay/tools/safe"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	presenceOpTimeout = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS upgrades GET /ws?userId=... and runs the per-connection session:
// register the asserted identity, start the writer, then read frames until
// the peer goes away. Each inbound event dispatches as its own goroutine, so
// a slow store call never blocks the read loop.
func (s *Server) HandleWS(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId query required"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade failed: %v", err)
		return
	}

	client := NewClient(ids.GenerateString(), userID, ws, s.sendQueue)
	s.reg.Register(userID, client)
	if s.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), presenceOpTimeout)
		if perr := s.presence.Online(ctx, userID, s.nodeID); perr != nil {
			logger.Warnf("[ws] presence online failed user=%s: %v", userID, perr)
		}
		cancel()
	}
	logger.Infof("[ws] connected user=%s conn=%s", userID, client.ConnID)

	go s.writePump(client)
	s.readLoop(client)
	s.teardown(client)
}

func (s *Server) readLoop(client *Client) {
	ws := client.WS
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		if s.presence != nil {
			ctx, cancel := context.WithTimeout(context.Background(), presenceOpTimeout)
			_ = s.presence.Touch(ctx, client.UserID)
			cancel()
		}
		return nil
	})

	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed user=%s conn=%s", client.UserID, client.ConnID)
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout user=%s conn=%s", client.UserID, client.ConnID)
			} else {
				logger.Infof("[ws] read err user=%s conn=%s: %v", client.UserID, client.ConnID, err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[ws] bad frame user=%s sample=%q: %v", client.UserID, sample, perr)
			s.SendError(client, "", perr)
			continue
		}

		h := s.disp.GetHandler(frame.Event)
		if h == nil {
			s.SendError(client, frame.Event, errNoHandler(frame.Event))
			continue
		}

		// independently scheduled unit of work; handlers re-resolve
		// registry/membership state after every store call
		event, payload := frame.Event, frame.Data
		safe.Go(func() {
			if herr := h.Handle(context.Background(), &Context{S: s, Client: client}, payload); herr != nil {
				logger.Infof("[ws] %s failed user=%s: %v", event, client.UserID, herr)
				s.SendError(client, event, herr)
			}
		})
	}
}

func (s *Server) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.WS.Close()
	}()

	for {
		select {
		case payload, ok := <-client.Send:
			_ = client.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.WS.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.WS.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// teardown runs when the read loop exits. Deregistration is conditional on
// the registry still pointing at this connection, so a reconnect that raced
// the close keeps its fresh entry.
func (s *Server) teardown(client *Client) {
	removed := s.reg.DeregisterConn(client.UserID, client.ConnID)
	if removed && s.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), presenceOpTimeout)
		if err := s.presence.Offline(ctx, client.UserID); err != nil {
			logger.Warnf("[ws] presence offline failed user=%s: %v", client.UserID, err)
		}
		cancel()
	}
	client.Close()
	logger.Infof("[ws] disconnected user=%s conn=%s removed=%v", client.UserID, client.ConnID, removed)
}

package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fighterarena/internal/game"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// Client is one websocket connection and the game session it drives
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	// mu guards session: the read pump writes input while the session
	// goroutine steps it
	mu      sync.Mutex
	session *game.Session

	done     chan struct{}
	stopOnce sync.Once
}

func newClient(id string, conn *websocket.Conn, session *game.Session) *Client {
	return &Client{
		ID:      id,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		session: session,
		done:    make(chan struct{}),
	}
}

// stop signals the session goroutine to finish
func (c *Client) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// send queues an encoded message, dropping it if the client is not keeping up
func (c *Client) send(msg any) {
	data, err := game.Encode(msg)
	if err != nil {
		log.Printf("Error marshaling message for client %s: %v", c.ID, err)
		return
	}

	select {
	case c.Send <- data:
	default:
		log.Printf("Send buffer full for client %s, dropping message", c.ID)
	}
}

// readPump reads input messages until the connection fails
func (c *Client) readPump(onClose func(*Client)) {
	defer func() {
		c.Conn.Close()
		onClose(c)
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for client %s: %v", c.ID, err)
			}
			return
		}

		var input game.InputMsg
		if err := json.Unmarshal(data, &input); err != nil {
			log.Printf("Error unmarshaling input from client %s: %v", c.ID, err)
			continue
		}
		if input.Type != game.MsgTypeInput {
			continue
		}

		c.mu.Lock()
		c.session.SetInput(input)
		c.mu.Unlock()
	}
}

// writePump sends queued messages and keepalive pings. It returns once Send
// is closed or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game over"))
				return
			}
			if err := c.Conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				log.Printf("Write error for client %s: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

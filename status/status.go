// Package status broadcasts progress of long running asset operations
// (check runs, uploads, re-encodes) to websocket clients.
package status

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	INFO = iota
	ERROR
	PROGRESS
	HELLO
)

type Status struct {
	Message  string
	Time     time.Time
	Type     int
	Progress float32
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	ticker := time.NewTicker(time.Second * 30)
	defer func() {
		ticker.Stop()
		unregisterClient(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[status] ws write msg error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[status] ws write ping error: %v", err)
				return
			}
		}
	}
}

// readPump drops everything the client sends and notices disconnects.
func (c *client) readPump() {
	defer c.conn.Close()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

var (
	broadcastList = make(map[*client]bool)
	globalLock    sync.Mutex
	lastMessage   []byte
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ServeWs upgrades the request and subscribes the connection. The first
// message is a HELLO status, followed by the last broadcasted one if any.
func ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[status] upgrade: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 32)}

	hello, _ := json.Marshal(&Status{Message: "connected", Time: time.Now(), Type: HELLO})

	globalLock.Lock()
	broadcastList[c] = true
	c.send <- hello
	if lastMessage != nil {
		c.send <- lastMessage
	}
	globalLock.Unlock()

	go c.writePump()
	go c.readPump()
}

func unregisterClient(c *client) {
	globalLock.Lock()
	defer globalLock.Unlock()
	delete(broadcastList, c)
}

func broadcast(s *Status) {
	data, err := json.Marshal(s)
	if err != nil {
		log.Printf("[status] marshal: %v", err)
		return
	}
	globalLock.Lock()
	defer globalLock.Unlock()
	lastMessage = data
	for c := range broadcastList {
		select {
		case c.send <- data:
		default:
			log.Printf("[status] client %v lags, message dropped", c.conn.RemoteAddr())
		}
	}
}

func Send(msg string, _type int, progress float32) {
	if math.IsNaN(float64(progress)) || math.IsInf(float64(progress), 0) {
		progress = 0
	}
	broadcast(&Status{
		Message:  msg,
		Time:     time.Now(),
		Type:     _type,
		Progress: progress})
}

func Info(format string, a ...interface{}) {
	Send(fmt.Sprintf(format, a...), INFO, 0.0)
}

func Error(format string, a ...interface{}) {
	Send(fmt.Sprintf(format, a...), ERROR, 0.0)
}

func Progress(progress float32, format string, a ...interface{}) {
	Send(fmt.Sprintf(format, a...), PROGRESS, progress)
}

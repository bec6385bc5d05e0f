// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package alert

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

func (c *Component) alertsHandlerFunc(gc *gin.Context) {
	gc.JSON(http.StatusOK, gin.H{"alerts": c.Recent()})
}

// alertsWebsocketHandlerFunc streams alerts to a dashboard consumer as
// JSON messages until the peer goes away or the component stops.
func (c *Component) alertsWebsocketHandlerFunc(gc *gin.Context) {
	conn, err := wsUpgrader.Upgrade(gc.Writer, gc.Request, nil)
	if err != nil {
		c.r.Err(err).Msg("cannot upgrade websocket connection")
		return
	}
	defer conn.Close()
	events, unsubscribe := c.Subscribe("websocket:" + gc.ClientIP())
	defer unsubscribe()

	// Detect a closing peer.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.t.Dying():
			return
		case <-closed:
			return
		case event := <-events:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

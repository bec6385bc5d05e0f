// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package intake

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/gin-gonic/gin"
)

type ingestEvent struct {
	SourceIP  string    `json:"source-ip" binding:"required"`
	DestPort  uint16    `json:"dest-port" binding:"required"`
	Timestamp time.Time `json:"timestamp"`
	Weight    uint64    `json:"weight"`
}

type ingestRequest struct {
	Events []ingestEvent `json:"events" binding:"required"`
}

// ingestHandlerFunc accepts a batch of observations from an external
// capture or synthesis collaborator.
func (c *Component) ingestHandlerFunc(gc *gin.Context) {
	var request ingestRequest
	if err := gc.ShouldBindJSON(&request); err != nil {
		gc.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request."})
		return
	}
	accepted := 0
	for _, event := range request.Events {
		src, err := netip.ParseAddr(event.SourceIP)
		if err != nil {
			continue
		}
		c.Observe(src, event.DestPort, event.Timestamp, event.Weight)
		accepted++
	}
	gc.JSON(http.StatusAccepted, gin.H{"accepted": accepted})
}

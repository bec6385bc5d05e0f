// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package blocker

import (
	"net/http"
	"net/netip"
	"strconv"

	"github.com/gin-gonic/gin"
)

type blockRequest struct {
	IP     string `json:"ip" binding:"required"`
	Reason string `json:"reason"`
}

func (c *Component) blockHandlerFunc(gc *gin.Context) {
	var request blockRequest
	if err := gc.ShouldBindJSON(&request); err != nil {
		gc.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request."})
		return
	}
	ip, err := netip.ParseAddr(request.IP)
	if err != nil {
		gc.JSON(http.StatusBadRequest, gin.H{"message": "Invalid IP address."})
		return
	}
	reason := request.Reason
	if reason == "" {
		reason = "manual"
	}
	c.Block(ip, reason)
	if c.Whitelisted(ip) {
		gc.JSON(http.StatusConflict, gin.H{"message": "IP address is whitelisted."})
		return
	}
	gc.JSON(http.StatusOK, gin.H{"message": "IP address blocked."})
}

func (c *Component) unblockHandlerFunc(gc *gin.Context) {
	var request blockRequest
	if err := gc.ShouldBindJSON(&request); err != nil {
		gc.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request."})
		return
	}
	ip, err := netip.ParseAddr(request.IP)
	if err != nil {
		gc.JSON(http.StatusBadRequest, gin.H{"message": "Invalid IP address."})
		return
	}
	if !c.Unblock(ip) {
		gc.JSON(http.StatusNotFound, gin.H{"message": "IP address is not blocked."})
		return
	}
	gc.JSON(http.StatusOK, gin.H{"message": "IP address unblocked."})
}

func (c *Component) togglePortHandlerFunc(gc *gin.Context) {
	port, err := strconv.ParseUint(gc.Param("port"), 10, 16)
	if err != nil {
		gc.JSON(http.StatusBadRequest, gin.H{"message": "Invalid port number."})
		return
	}
	blocked, err := c.TogglePort(uint16(port))
	if err != nil {
		gc.JSON(http.StatusBadGateway, gin.H{"message": "Effector failure.", "blocked": blocked})
		return
	}
	gc.JSON(http.StatusOK, gin.H{"blocked": blocked})
}

func (c *Component) blockedHandlerFunc(gc *gin.Context) {
	gc.JSON(http.StatusOK, gin.H{"blocked": c.BlockedIPs()})
}

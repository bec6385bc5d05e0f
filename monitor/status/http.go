// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package status

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (c *Component) statusHandlerFunc(gc *gin.Context) {
	all := c.All()
	ports := make([]uint16, 0, len(all))
	for port := range all {
		ports = append(ports, port)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	answer := make([]PortStatus, 0, len(ports))
	for _, port := range ports {
		answer = append(answer, all[port])
	}
	gc.JSON(http.StatusOK, gin.H{"ports": answer})
}

func (c *Component) statusPortHandlerFunc(gc *gin.Context) {
	port, err := strconv.ParseUint(gc.Param("port"), 10, 16)
	if err != nil {
		gc.JSON(http.StatusBadRequest, gin.H{"message": "Invalid port number."})
		return
	}
	st, ok := c.Get(uint16(port))
	if !ok {
		gc.JSON(http.StatusNotFound, gin.H{"message": "Unknown port."})
		return
	}
	gc.JSON(http.StatusOK, st)
}

package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// setRelayCORS marks a relay response readable from any origin.
func setRelayCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", "*")
}

// relayPreflight answers an OPTIONS request without reading the body.
func relayPreflight(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
	c.AbortWithStatus(http.StatusOK)
}

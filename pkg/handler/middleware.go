package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devsapp/serverless-style-transfer-api/pkg/config"
	"github.com/devsapp/serverless-style-transfer-api/pkg/module"
	"github.com/devsapp/serverless-style-transfer-api/pkg/utils"
)

// ApiAuth api key check against the configured bcrypt hash
func ApiAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(apiKeyHeader)
		if key == "" || !utils.MatchPassword(key, config.ConfigGlobal.ApiKeyHash) {
			handleError(c, http.StatusUnauthorized, config.UNAUTHORIZED)
			c.Abort()
			return
		}
		c.Next()
	}
}

// sessionId header first, then cookie
func sessionId(c *gin.Context) string {
	if id := c.GetHeader(sessionHeader); id != "" {
		return id
	}
	id, _ := c.Cookie(sessionCookie)
	return id
}

// session resolve the caller's session, writes 404 when absent or expired
func (h *StyleHandler) session(c *gin.Context) (*module.Session, bool) {
	if val, ok := c.Get(sessionKey); ok {
		return val.(*module.Session), true
	}
	s, ok := h.sessions.Get(sessionId(c))
	if !ok {
		handleError(c, http.StatusNotFound, config.NOSESSION)
		return nil, false
	}
	c.Set(sessionKey, s)
	return s, true
}

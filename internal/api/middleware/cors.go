package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func ConfigCORS(allowedDomains string) gin.HandlerFunc {
	conf := cors.DefaultConfig()
	conf.AllowHeaders = append(conf.AllowHeaders, "Authorization")
	conf.MaxAge = 12 * time.Hour

	if allowedDomains == "" || allowedDomains == "*" {
		conf.AllowAllOrigins = true
		return cors.New(conf)
	}

	var origins []string
	for _, domain := range strings.Split(allowedDomains, ",") {
		if domain = strings.TrimSpace(domain); domain != "" {
			origins = append(origins, domain)
		}
	}
	conf.AllowOrigins = origins

	return cors.New(conf)
}

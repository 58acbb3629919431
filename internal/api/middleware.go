package api

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"quicklearn/internal/logger"
	"quicklearn/internal/models"
	"quicklearn/internal/view"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SessionName is the cookie name carrying the caller's view id
const SessionName = "quicklearn_session"

// CORSMiddleware allows the configured frontend origin to call the API with credentials
func CORSMiddleware(frontendURL string) gin.HandlerFunc {
	if frontendURL == "" {
		frontendURL = "http://localhost:5173"
	}
	return cors.New(cors.Config{
		AllowOrigins:     []string{strings.TrimSuffix(frontendURL, "/")},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Accept", "Origin", "Cache-Control", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// SessionMiddleware stores the view id in a signed cookie.
func SessionMiddleware(secret string, secure bool) gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(SessionName, store)
}

// RequestLogger logs one line per request, leveled by status.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// TemplateFuncs are the helpers available to the HTML view.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"abbreviate": view.Abbreviate,
		"paragraphs": view.Paragraphs,
		"thumb":      view.MediumThumbnail,
		"watchURL":   view.WatchURL,
		"statsFor": func(stats map[string]models.VideoStats, id string) *models.VideoStats {
			s, ok := stats[id]
			if !ok {
				return nil
			}
			return &s
		},
	}
}

package api

import (
	"embed"
	"html/template"

	"quicklearn/internal/api/handlers"
	"quicklearn/internal/logger"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// SetupRoutes sets up middleware, the HTML view and the API routes
func SetupRoutes(router *gin.Engine, handler *handlers.Handler, log *logger.Logger, frontendURL string) {
	router.Use(RequestLogger(log))
	router.Use(CORSMiddleware(frontendURL))

	router.SetHTMLTemplate(template.Must(template.New("").Funcs(TemplateFuncs()).ParseFS(templateFS, "templates/*.tmpl")))

	router.GET("/healthz", handlers.HealthCheck)

	// --- HTML view ---
	router.GET("/", handler.HandleIndex)
	router.POST("/", handler.HandleIndexSubmit)

	// --- API Routes ---
	api := router.Group("/api")
	{
		api.GET("/styles", handler.HandleListStyles)
		api.POST("/ask", handler.HandleAsk)     // ?async=true returns 202 with the loading state
		api.GET("/view", handler.HandleGetView) // poll target for async submissions
		api.GET("/videos/:id/transcript", handler.HandleTranscript)
	}
}

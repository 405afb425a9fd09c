package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/photovault/photovault/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under the /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")
	group.POST("/photos", r.handlers.Photo.Upload)
	group.GET("/photos/:id/download", r.handlers.Photo.Download)
	group.GET("/storage/usage", r.handlers.Photo.Usage)
	group.POST("/events/:eventId/archive", r.handlers.Archive.Start)
	group.GET("/archives/:backupId", r.handlers.Archive.Status)
}

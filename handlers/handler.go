package handlers

import (
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/dkenzhe/photomatte/internal/matting"
	"github.com/dkenzhe/photomatte/internal/session"
	"github.com/dkenzhe/photomatte/services/storage"
)

// MaxUploadBytes caps accepted image uploads at 50 MiB.
const MaxUploadBytes = 50 * 1024 * 1024

// PhotoHandler carries the services shared by the workflow endpoints.
// Storage is optional; when nil, results live only in the session store.
type PhotoHandler struct {
	Sessions *session.Store
	Matting  matting.Remover
	Storage  storage.StorageService
}

func jsonError(c *app.RequestContext, code int, msg string) {
	c.JSON(code, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

func invalidSession(c *app.RequestContext) {
	jsonError(c, http.StatusBadRequest, "invalid session")
}

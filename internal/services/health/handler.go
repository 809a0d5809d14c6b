package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"status-backend/internal/shared/server/middleware"
	"status-backend/internal/shared/server/respond"
)

// Paths served by the status handler. Anything else is a 404.
var Paths = []string{"/api", "/api/"}

// AllowedMethods lists the methods served when strict method handling is on.
const AllowedMethods = "GET, HEAD"

// UnavailableResponse is the 503 body. Failure details stay in the logs.
type UnavailableResponse struct {
	Database  bool   `json:"database"`
	UserAdmin bool   `json:"userAdmin"`
	Error     string `json:"error"`
}

type Handler struct {
	Svc    *Service
	Logger *zap.Logger
}

func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Svc: svc, Logger: logger}
}

// RegisterRoutes mounts the status check. With strict set only GET and HEAD
// are routed; otherwise every method is answered the same way.
func (h *Handler) RegisterRoutes(r gin.IRoutes, strict bool) {
	for _, path := range Paths {
		if strict {
			r.GET(path, h.status)
			r.HEAD(path, h.status)
			continue
		}
		r.Any(path, h.status)
	}
}

func (h *Handler) status(c *gin.Context) {
	status, err := h.Svc.Check(c.Request.Context())
	if err != nil {
		h.Logger.Error("db.unavailable",
			zap.String("request_id", middleware.RequestIDFromContext(c)),
			zap.String("reason", Reason(err)),
			zap.Error(err),
		)
		_ = c.Error(err)
		respond.JSON(c, http.StatusServiceUnavailable, UnavailableResponse{Error: "db_unavailable"})
		return
	}
	respond.OK(c, status)
}

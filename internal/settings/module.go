package settings

import (
	apphttp "fieldops_backend/internal/http"
	"fieldops_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires the settings bounded context.
type Module struct {
	service *Service
}

// NewModule creates the settings module.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := NewRepository(pool)
	return &Module{service: NewService(repo)}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "settings"
}

// Service returns the settings service for other modules.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/settings")
	group.GET("", m.list)
	group.PUT("/:key", m.set)
}

func (m *Module) list(c *gin.Context) {
	items, err := m.service.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items})
}

type setRequest struct {
	Value string `json:"value" binding:"required"`
}

func (m *Module) set(c *gin.Context) {
	var req setRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, "invalid request body", nil)
		return
	}
	if err := m.service.Set(c.Request.Context(), c.Param("key"), req.Value); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

var _ apphttp.Module = (*Module)(nil)

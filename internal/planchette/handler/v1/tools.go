package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/kestrad/planchette/internal/pkg/core"
	"github.com/kestrad/planchette/internal/planchette/service/tools"
	"github.com/kestrad/planchette/pkg/errorx"
	"github.com/kestrad/planchette/pkg/utils/json"
)

// ToolHandler exposes the tool registry over the REST API.
type ToolHandler struct {
	registry *tools.Registry
}

// NewToolHandler creates a new ToolHandler.
func NewToolHandler(registry *tools.Registry) *ToolHandler {
	return &ToolHandler{registry: registry}
}

// List handles GET /v1/tools.
func (h *ToolHandler) List(c *gin.Context) {
	defs := h.registry.List()

	items := make([]*ToolResponse, 0, len(defs))
	for _, def := range defs {
		item := &ToolResponse{
			Name:        def.Name,
			Description: def.Description,
			Source:      def.Source,
		}
		if len(def.Schema) > 0 {
			var schema interface{}
			if err := json.Unmarshal(def.Schema, &schema); err != nil {
				core.WriteResponse(c, errorx.WrapC(err, ErrToolList, "decode tool schema"), nil)
				return
			}
			item.Schema = schema
		}
		items = append(items, item)
	}
	core.WriteResponse(c, nil, gin.H{"tools": items})
}

// README: Catalog handlers (container services and waste tariffs).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"benne/internal/modules/pricing"
)

type Catalog interface {
	Services() []pricing.ServiceEntry
	WasteRates() []pricing.WasteRate
}

type CatalogHandler struct {
	catalog Catalog
}

func NewCatalogHandler(catalog Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) Services(c *gin.Context) {
	writeJSON(c, http.StatusOK, map[string]any{"services": h.catalog.Services()})
}

func (h *CatalogHandler) WasteTypes(c *gin.Context) {
	writeJSON(c, http.StatusOK, map[string]any{"waste_types": h.catalog.WasteRates()})
}

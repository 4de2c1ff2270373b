package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/coderegistry/internal/domain/code"
	"github.com/GriffinCanCode/coderegistry/internal/domain/network"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/coderegistry/internal/shared/types"
)

// Version is reported by the root endpoint
const Version = "0.3.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	manager *code.Manager
	chain   network.Chain
	loader  string
	metrics *monitoring.Metrics
}

// NewHandlers creates a new handler set. loaderBackend names the loader in
// health output.
func NewHandlers(manager *code.Manager, chain network.Chain, loaderBackend string, metrics *monitoring.Metrics) *Handlers {
	return &Handlers{
		manager: manager,
		chain:   chain,
		loader:  loaderBackend,
		metrics: metrics,
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Code Registry",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	stats, err := h.manager.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"chain":          h.chain,
		"non_production": h.chain.IsNonProduction(),
		"loader":         h.loader,
		"registry":       stats,
	})
}

// PublishBody is the body of POST /registry/publish. Code holds one
// base64 blob per module, in module order.
type PublishBody struct {
	Publisher types.Address `json:"publisher"`
	Package   types.Package `json:"package"`
	Code      [][]byte      `json:"code"`
}

// Publish publishes or upgrades a package
func (h *Handlers) Publish(c *gin.Context) {
	var body PublishBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if body.Publisher.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "publisher is required"})
		return
	}

	result, err := h.manager.Publish(c.Request.Context(), code.PublishRequest{
		Publisher: body.Publisher,
		Package:   body.Package,
		Code:      body.Code,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	if result.UpgradeNumber == 0 {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"success": true,
		"result":  result,
	})
}

// ListAccounts lists every account with published packages
func (h *Handlers) ListAccounts(c *gin.Context) {
	addrs, err := h.manager.Accounts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if addrs == nil {
		addrs = []types.Address{}
	}

	c.JSON(http.StatusOK, gin.H{
		"accounts": addrs,
		"count":    len(addrs),
	})
}

// GetAccount returns the registry at an address. Package metadata only,
// unless ?full=true.
func (h *Handlers) GetAccount(c *gin.Context) {
	addr, ok := addressParam(c)
	if !ok {
		return
	}

	reg, err := h.manager.Registry(c.Request.Context(), addr)
	if err != nil {
		writeError(c, err)
		return
	}

	if full, _ := strconv.ParseBool(c.Query("full")); full {
		c.JSON(http.StatusOK, reg)
		return
	}

	packages := make([]types.PackageMetadata, 0, len(reg.Packages))
	for i := range reg.Packages {
		packages = append(packages, reg.Packages[i].ToMetadata())
	}
	c.JSON(http.StatusOK, gin.H{
		"address":  reg.Address,
		"packages": packages,
	})
}

// GetPackage returns one package in full
func (h *Handlers) GetPackage(c *gin.Context) {
	addr, ok := addressParam(c)
	if !ok {
		return
	}

	pkg, err := h.manager.Package(c.Request.Context(), addr, c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

// Stats returns registry counts
func (h *Handlers) Stats(c *gin.Context) {
	stats, err := h.manager.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func addressParam(c *gin.Context) (types.Address, bool) {
	addr, err := types.ParseAddress(c.Param("address"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return addr, false
	}
	return addr, true
}

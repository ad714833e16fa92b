package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/acctlite/acctlite/internal/core/domain"
	portssvc "github.com/acctlite/acctlite/internal/core/ports/services"
	"github.com/acctlite/acctlite/internal/core/services"
	"github.com/acctlite/acctlite/internal/middleware"
	"github.com/acctlite/acctlite/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	svcs *portssvc.ServiceContainer,
	pool *services.ReceiptWorkerPool,
) {
	registerCustomValidators()

	registerHomeRoutes(r)

	// All business endpoints sit behind auth under /api/v1
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))
	registerLedgerRoutes(v1, svcs.Ledger)
	registerReceiptRoutes(v1, svcs.Receipt, pool)
}

// registerCustomValidators adds the binding tags the request DTOs rely on.
func registerCustomValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("direction", func(fl validator.FieldLevel) bool {
		switch domain.Direction(fl.Field().String()) {
		case domain.Debit, domain.Credit:
			return true
		}
		return false
	})
}

// Package api exposes the categorization engine over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finsort/finsort/internal/engine"
	"github.com/finsort/finsort/internal/service"
)

// Server wires the categorization engine into HTTP handlers.
type Server struct {
	storage  service.Storage
	assigner *engine.Assigner
	auto     *engine.AutoCategorizer
	router   *gin.Engine
}

// NewServer builds the HTTP server and its route table.
func NewServer(storage service.Storage, assigner *engine.Assigner, auto *engine.AutoCategorizer) *Server {
	s := &Server{
		storage:  storage,
		assigner: assigner,
		auto:     auto,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		api.POST("/transactions", s.createTransactions)
		api.GET("/transactions/:id", s.getTransaction)
		api.DELETE("/transactions/:id", s.deleteTransaction)
		api.POST("/transactions/:id/category", s.assignCategory)
		api.DELETE("/transactions/:id/category", s.removeCategory)
		api.POST("/categorize/auto", s.autoCategorize)
		api.GET("/categories", s.listCategories)
		api.GET("/rules", s.listRules)
	}

	s.router = router
	return s
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP on the given address until the listener fails.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

package handler

import (
	"net/http"

	"storefront-service/internal/repository"
	"storefront-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const maxDocuments = 1000

// DataHandler exposes the storefront's generic collection endpoints
type DataHandler struct {
	documents repository.DocumentRepository
}

func NewDataHandler(documents repository.DocumentRepository) *DataHandler {
	return &DataHandler{documents: documents}
}

// ListDocuments returns every document of an allowed collection
func (h *DataHandler) ListDocuments(c echo.Context) error {
	log := logger.FromEcho(c)
	collection := c.Param("collection")
	if !repository.Collections[collection] {
		return fail(c, http.StatusBadRequest, "Unknown collection")
	}

	docs, err := h.documents.ListDocuments(c.Request().Context(), collection, int64(queryLimit(c, maxDocuments, maxDocuments)))
	if err != nil {
		log.Error("Error fetching data", zap.String("collection", collection), zap.Error(err))
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    docs,
	})
}

// AddDocument inserts the request body into an allowed collection
func (h *DataHandler) AddDocument(c echo.Context) error {
	log := logger.FromEcho(c)
	collection := c.Param("collection")
	if !repository.Collections[collection] {
		return fail(c, http.StatusBadRequest, "Unknown collection")
	}

	// body only: path params must not leak into the stored document
	var doc map[string]interface{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &doc); err != nil || doc == nil {
		return fail(c, http.StatusBadRequest, "Invalid request data")
	}
	delete(doc, "_id")

	id, err := h.documents.InsertDocument(c.Request().Context(), collection, doc)
	if err != nil {
		log.Error("Error adding document", zap.String("collection", collection), zap.Error(err))
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	log.Info("Document added", zap.String("collection", collection), zap.String("id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Document added successfully",
		"id":      id,
	})
}

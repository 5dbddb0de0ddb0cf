package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/EricBlanvillain/control-automation/api/middleware"
	"github.com/EricBlanvillain/control-automation/api/model"
	"github.com/EricBlanvillain/control-automation/internal/category"
	"github.com/EricBlanvillain/control-automation/internal/document"
	"github.com/EricBlanvillain/control-automation/internal/models"
	"github.com/EricBlanvillain/control-automation/internal/repository"
	"github.com/EricBlanvillain/control-automation/pkg/storage"
)

// DocumentHandler handles document upload and lifecycle requests.
type DocumentHandler struct {
	docRepo     repository.DocumentRepository
	fileStorage storage.Storage
	resolver    *category.Resolver
	logger      *logrus.Logger
}

// NewDocumentHandler creates a document handler.
func NewDocumentHandler(docRepo repository.DocumentRepository, fileStorage storage.Storage, resolver *category.Resolver) *DocumentHandler {
	return &DocumentHandler{
		docRepo:     docRepo,
		fileStorage: fileStorage,
		resolver:    resolver,
		logger:      middleware.GetLogger(),
	}
}

// UploadDocument handles POST /api/documents.
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	var req model.DocumentUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid document upload request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"invalid upload request",
		))
		return
	}

	filename := req.File.Filename
	if document.DetectFormat(filename) == document.FormatUnknown {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"unsupported file type",
		))
		return
	}

	metaCategory := ""
	if req.MetaCategory != "" {
		if !h.resolver.IsKnown(req.MetaCategory) {
			c.JSON(http.StatusBadRequest, model.NewErrorResponse(
				http.StatusBadRequest,
				"unknown meta category",
			))
			return
		}
		resolved, err := h.resolver.Resolve(filename, req.MetaCategory)
		if err == nil {
			metaCategory = resolved
		}
	}

	file, err := req.File.Open()
	if err != nil {
		h.logger.WithError(err).WithField("filename", filename).Error("Failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to open uploaded file",
		))
		return
	}
	defer file.Close()

	fileInfo, err := h.fileStorage.Save(file, filename)
	if err != nil {
		h.logger.WithError(err).WithField("filename", filename).Error("Failed to save file")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to save file",
		))
		return
	}

	doc := &models.Document{
		ID:           fileInfo.ID,
		FileName:     fileInfo.Name,
		FileType:     string(document.DetectFormat(filename)),
		FilePath:     fileInfo.Path,
		FileSize:     fileInfo.Size,
		Status:       models.DocStatusUploaded,
		MetaCategory: metaCategory,
	}
	if err := h.docRepo.Create(doc); err != nil {
		h.logger.WithError(err).WithField("document_id", fileInfo.ID).Error("Failed to create document record")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to record document",
		))
		return
	}

	h.logger.WithFields(logrus.Fields{
		"document_id": fileInfo.ID,
		"filename":    fileInfo.Name,
		"size":        fileInfo.Size,
	}).Info("Document uploaded")

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.DocumentUploadResponse{
		DocumentID:   doc.ID,
		FileName:     doc.FileName,
		Status:       string(doc.Status),
		MetaCategory: doc.MetaCategory,
	}))
}

// GetDocument handles GET /api/documents/:id.
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	var req model.DocumentIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"document ID is required",
		))
		return
	}

	doc, err := h.docRepo.GetByID(req.ID)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound,
				"document not found",
			))
			return
		}
		h.logger.WithError(err).WithField("document_id", req.ID).Error("Failed to get document")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to get document",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.ConvertDocumentInfo(doc)))
}

// ListDocuments handles GET /api/documents.
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	var req model.DocumentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"invalid list request",
		))
		return
	}

	filters := map[string]interface{}{}
	if req.Status != "" {
		filters["status"] = req.Status
	}
	if req.MetaCategory != "" {
		filters["meta_category"] = req.MetaCategory
	}
	if req.FileName != "" {
		filters["file_name"] = req.FileName
	}

	page := req.GetPage()
	pageSize := req.GetPageSize()
	docs, total, err := h.docRepo.List((page-1)*pageSize, pageSize, filters)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list documents")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to list documents",
		))
		return
	}

	infos := make([]model.DocumentInfo, len(docs))
	for i, doc := range docs {
		infos[i] = model.ConvertDocumentInfo(doc)
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.DocumentListResponse{
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
		Documents: infos,
	}))
}

// DeleteDocument handles DELETE /api/documents/:id.
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	var req model.DocumentIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"document ID is required",
		))
		return
	}

	if _, err := h.docRepo.GetByID(req.ID); err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound,
				"document not found",
			))
			return
		}
		h.logger.WithError(err).WithField("document_id", req.ID).Error("Failed to get document")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to get document",
		))
		return
	}

	if err := h.fileStorage.Delete(req.ID); err != nil {
		h.logger.WithError(err).WithField("document_id", req.ID).Warn("Failed to delete stored file")
	}

	if err := h.docRepo.Delete(req.ID); err != nil {
		h.logger.WithError(err).WithField("document_id", req.ID).Error("Failed to delete document record")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to delete document",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.DocumentDeleteResponse{
		Success:    true,
		DocumentID: req.ID,
	}))
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/EricBlanvillain/control-automation/api/middleware"
	"github.com/EricBlanvillain/control-automation/api/model"
	"github.com/EricBlanvillain/control-automation/internal/rules"
)

// RuleHandler handles control rule management requests.
type RuleHandler struct {
	store  rules.Store
	logger *logrus.Logger
}

// NewRuleHandler creates a rule handler.
func NewRuleHandler(store rules.Store) *RuleHandler {
	return &RuleHandler{
		store:  store,
		logger: middleware.GetLogger(),
	}
}

// ListRules handles GET /api/rules.
func (h *RuleHandler) ListRules(c *gin.Context) {
	var req model.RuleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"invalid list request",
		))
		return
	}

	var listed []rules.Rule
	if req.MetaCategory != "" {
		result, err := h.store.List(req.MetaCategory)
		if err != nil {
			h.logger.WithError(err).Error("Failed to list rules")
			c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
				http.StatusInternalServerError,
				"failed to list rules",
			))
			return
		}
		listed = result
	} else {
		categories, err := h.store.Categories()
		if err != nil {
			h.logger.WithError(err).Error("Failed to list rule categories")
			c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
				http.StatusInternalServerError,
				"failed to list rules",
			))
			return
		}
		for _, cat := range categories {
			result, err := h.store.List(cat)
			if err != nil {
				h.logger.WithError(err).WithField("meta_category", cat).Error("Failed to list rules")
				c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
					http.StatusInternalServerError,
					"failed to list rules",
				))
				return
			}
			listed = append(listed, result...)
		}
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(listed))
}

// GetRule handles GET /api/rules/:id.
func (h *RuleHandler) GetRule(c *gin.Context) {
	var req model.RuleIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"control ID is required",
		))
		return
	}

	rule, err := h.store.Get(req.ID)
	if err != nil {
		if errors.Is(err, rules.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound,
				"rule not found",
			))
			return
		}
		h.logger.WithError(err).WithField("control_id", req.ID).Error("Failed to get rule")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to get rule",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(rule))
}

// CreateRule handles POST /api/rules.
func (h *RuleHandler) CreateRule(c *gin.Context) {
	var rule rules.Rule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"invalid rule",
		))
		return
	}
	if err := rule.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			err.Error(),
		))
		return
	}

	if err := h.store.Create(rule); err != nil {
		h.logger.WithError(err).WithField("control_id", rule.ControlID).Error("Failed to create rule")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to create rule: "+err.Error(),
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(rule))
}

// UpdateRule handles PUT /api/rules/:id.
func (h *RuleHandler) UpdateRule(c *gin.Context) {
	var req model.RuleIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"control ID is required",
		))
		return
	}

	var rule rules.Rule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"invalid rule",
		))
		return
	}
	rule.ControlID = req.ID
	if err := rule.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			err.Error(),
		))
		return
	}

	if err := h.store.Update(rule); err != nil {
		if errors.Is(err, rules.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound,
				"rule not found",
			))
			return
		}
		h.logger.WithError(err).WithField("control_id", req.ID).Error("Failed to update rule")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to update rule",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(rule))
}

// DeleteRule handles DELETE /api/rules/:id.
func (h *RuleHandler) DeleteRule(c *gin.Context) {
	var req model.RuleIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"control ID is required",
		))
		return
	}

	if err := h.store.Delete(req.ID); err != nil {
		if errors.Is(err, rules.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, model.NewErrorResponse(
				http.StatusNotFound,
				"rule not found",
			))
			return
		}
		h.logger.WithError(err).WithField("control_id", req.ID).Error("Failed to delete rule")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to delete rule",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(gin.H{"deleted": req.ID}))
}

// ListCategories handles GET /api/rules/categories.
func (h *RuleHandler) ListCategories(c *gin.Context) {
	categories, err := h.store.Categories()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list rule categories")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to list categories",
		))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.CategoryListResponse{
		Categories: categories,
	}))
}

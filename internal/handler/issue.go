package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gin-gonic/gin"
	"github.com/issuetracker/tracker/internal/model"
	"github.com/issuetracker/tracker/internal/repository"
	"github.com/issuetracker/tracker/internal/service"
	"k8s.io/klog/v2"
)

// IssueHandler issues API 的 HTTP 入口，错误体沿用 {"detail": ...} 格式
type IssueHandler struct {
	service *service.IssueService
	doc     *openapi3.T
}

func NewIssueHandler(service *service.IssueService, doc *openapi3.T) *IssueHandler {
	return &IssueHandler{service: service, doc: doc}
}

// RegisterRoutes 注册路由
func (h *IssueHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", h.Health)
	router.GET("/openapi.json", h.OpenAPI)
	router.GET("/issues", h.List)
	router.POST("/issues", h.Create)
	router.GET("/issues/:id", h.Get)
	router.PUT("/issues/:id", h.Update)
}

// listRequest 查询参数，page/pageSize 用指针区分未传与传 0
type listRequest struct {
	Search   string           `form:"search"`
	Status   model.Status     `form:"status"`
	Priority model.Priority   `form:"priority"`
	Assignee string           `form:"assignee"`
	SortBy   model.SortColumn `form:"sortBy"`
	SortDir  model.SortDir    `form:"sortDir"`
	Page     *int             `form:"page"`
	PageSize *int             `form:"pageSize"`
}

func (h *IssueHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *IssueHandler) OpenAPI(c *gin.Context) {
	if h.doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
		return
	}
	c.JSON(http.StatusOK, h.doc)
}

func (h *IssueHandler) List(c *gin.Context) {
	var req listRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		validationFailed(c, "query", "", err.Error())
		return
	}
	query := model.IssuesQuery{
		Search:   req.Search,
		Status:   req.Status,
		Priority: req.Priority,
		Assignee: req.Assignee,
		SortBy:   req.SortBy,
		SortDir:  req.SortDir,
	}
	if req.Page != nil {
		if *req.Page < 1 {
			validationFailed(c, "query", "page", "page must be greater than or equal to 1")
			return
		}
		query.Page = *req.Page
	}
	if req.PageSize != nil {
		if *req.PageSize < 1 {
			validationFailed(c, "query", "pageSize", "pageSize must be greater than or equal to 1")
			return
		}
		query.PageSize = *req.PageSize
	}

	page, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *IssueHandler) Get(c *gin.Context) {
	id, ok := parseIssueID(c)
	if !ok {
		return
	}
	issue, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (h *IssueHandler) Create(c *gin.Context) {
	var body model.IssueCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		validationFailed(c, "body", "", err.Error())
		return
	}
	issue, err := h.service.Create(c.Request.Context(), body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, issue)
}

func (h *IssueHandler) Update(c *gin.Context) {
	id, ok := parseIssueID(c)
	if !ok {
		return
	}
	var body model.IssueUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		validationFailed(c, "body", "", err.Error())
		return
	}
	issue, err := h.service.Update(c.Request.Context(), id, body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (h *IssueHandler) fail(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Issue not found"})
	case errors.As(err, &validationErr):
		validationFailed(c, validationErr.Location, validationErr.Field, validationErr.Message)
	default:
		klog.Errorf("[IssueHandler] %s %s 失败: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
	}
}

func parseIssueID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		validationFailed(c, "path", "id", "value is not a valid integer")
		return 0, false
	}
	return uint(id), true
}

func validationFailed(c *gin.Context, location, field, message string) {
	loc := []string{location}
	if field != "" {
		loc = append(loc, field)
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"detail": []gin.H{{"loc": loc, "msg": message, "type": "value_error"}},
	})
}

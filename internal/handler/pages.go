package handler

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/issuetracker/tracker/config"
	"github.com/issuetracker/tracker/internal/client"
	"github.com/issuetracker/tracker/internal/model"
	"github.com/issuetracker/tracker/internal/session"
	"github.com/issuetracker/tracker/internal/view"
	"k8s.io/klog/v2"
)

const shellKey = "issuetracker.shell"

// PageData 页面模板的数据
type PageData struct {
	Title       string
	Path        string
	List        view.ListSnapshot
	Detail      view.DetailSnapshot
	Form        view.FormSnapshot
	Statuses    []model.Status
	Priorities  []model.Priority
	SortColumns []model.SortColumn
	PageSizes   []int
}

type filterForm struct {
	Search   string `form:"search"`
	Status   string `form:"status"`
	Priority string `form:"priority"`
	Assignee string `form:"assignee"`
}

type issueForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Status      string `form:"status"`
	Priority    string `form:"priority"`
	Assignee    string `form:"assignee"`
}

// PageHandler 浏览器页面：GET 渲染当前页面，POST 驱动页面操作后重定向
type PageHandler struct {
	sessions  *session.Store
	pageSizes []int
}

func NewPageHandler(sessions *session.Store, ui config.UIConfig) *PageHandler {
	pageSizes := ui.PageSizes
	if len(pageSizes) == 0 {
		pageSizes = []int{10, 20, 50, 100}
	}
	return &PageHandler{sessions: sessions, pageSizes: pageSizes}
}

// RegisterRoutes 注册路由
func (h *PageHandler) RegisterRoutes(router gin.IRouter) {
	pages := router.Group("/issues", h.Session())
	{
		pages.GET("", h.Show)
		pages.GET("/new", h.Show)
		pages.GET("/:id", h.Show)
		pages.GET("/:id/edit", h.Show)

		pages.POST("/filter", h.Filter)
		pages.POST("/reset", h.Reset)
		pages.POST("/refresh", h.Refresh)
		pages.POST("/sort", h.Sort)
		pages.POST("/page", h.Page)
		pages.POST("/page-size", h.PageSize)

		pages.POST("/new", h.Save)
		pages.POST("/new/cancel", h.Cancel)
		pages.POST("/:id/edit", h.Save)
		pages.POST("/:id/edit/cancel", h.Cancel)
		pages.POST("/:id/back", h.Back)
	}
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, view.ListPath)
	})
}

// Session 取出或新建会话，并把 Shell 放入上下文
func (h *PageHandler) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(session.CookieName)
		id, shell, created := h.sessions.GetOrCreate(id)
		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(session.CookieName, id, 0, "/", "", false, true)
		}
		c.Set(shellKey, shell)
		c.Next()
	}
}

func shellFrom(c *gin.Context) *view.Shell {
	return c.MustGet(shellKey).(*view.Shell)
}

// Show 导航到请求路径并渲染活动页面
func (h *PageHandler) Show(c *gin.Context) {
	shell := shellFrom(c)
	if err := shell.Navigate(c.Request.Context(), c.Request.URL.RequestURI()); err != nil {
		klog.Errorf("[PageHandler.Show] 导航失败: %s, error=%v", c.Request.URL.RequestURI(), err)
		c.String(http.StatusInternalServerError, "navigation failed")
		return
	}
	h.render(c, shell)
}

func (h *PageHandler) render(c *gin.Context, shell *view.Shell) {
	data := PageData{
		Path:        shell.Location().Path,
		Statuses:    model.Statuses(),
		Priorities:  model.Priorities(),
		SortColumns: model.SortColumns(),
		PageSizes:   h.pageSizes,
	}
	switch page := shell.Page().(type) {
	case *view.ListView:
		data.Title = "Issues"
		data.List = page.Snapshot()
		c.HTML(http.StatusOK, "list.html", data)
	case *view.DetailView:
		data.Detail = page.Snapshot()
		data.Title = "Issue"
		if data.Detail.Issue != nil {
			data.Title = data.Detail.Issue.Title
		}
		status := http.StatusOK
		if data.Detail.State.Failed() && errors.Is(data.Detail.State.Err, client.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.HTML(status, "detail.html", data)
	case *view.FormView:
		data.Form = page.Snapshot()
		data.Title = "New issue"
		if data.Form.IsEdit {
			data.Title = "Edit issue"
		}
		c.HTML(http.StatusOK, "form.html", data)
	default:
		c.Redirect(http.StatusFound, view.ListPath)
	}
}

// redirect POST 之后回到 Shell 当前位置
func redirect(c *gin.Context, shell *view.Shell) {
	c.Redirect(http.StatusSeeOther, shell.Location().String())
}

// listView 确保列表页处于活动状态，已在列表页时保留其状态
func listView(c *gin.Context, shell *view.Shell) (*view.ListView, bool) {
	if err := shell.Navigate(c.Request.Context(), view.ListPath); err != nil {
		klog.Errorf("[PageHandler] 导航到列表失败: %v", err)
		c.String(http.StatusInternalServerError, "navigation failed")
		return nil, false
	}
	list, ok := shell.Page().(*view.ListView)
	if !ok {
		c.String(http.StatusInternalServerError, "list page unavailable")
		return nil, false
	}
	return list, true
}

func (h *PageHandler) Filter(c *gin.Context) {
	shell := shellFrom(c)
	list, ok := listView(c, shell)
	if !ok {
		return
	}
	var form filterForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	list.ApplyFilters(c.Request.Context(), view.Filters{
		Search:   strings.TrimSpace(form.Search),
		Status:   model.Status(form.Status),
		Priority: model.Priority(form.Priority),
		Assignee: strings.TrimSpace(form.Assignee),
	})
	redirect(c, shell)
}

func (h *PageHandler) Reset(c *gin.Context) {
	shell := shellFrom(c)
	list, ok := listView(c, shell)
	if !ok {
		return
	}
	list.ResetFilters(c.Request.Context())
	redirect(c, shell)
}

func (h *PageHandler) Refresh(c *gin.Context) {
	shell := shellFrom(c)
	list, ok := listView(c, shell)
	if !ok {
		return
	}
	list.Fetch(c.Request.Context())
	redirect(c, shell)
}

func (h *PageHandler) Sort(c *gin.Context) {
	shell := shellFrom(c)
	list, ok := listView(c, shell)
	if !ok {
		return
	}
	column := model.SortColumn(c.Query("column"))
	if column.Valid() {
		list.OnSort(c.Request.Context(), column)
	}
	redirect(c, shell)
}

func (h *PageHandler) Page(c *gin.Context) {
	shell := shellFrom(c)
	list, ok := listView(c, shell)
	if !ok {
		return
	}
	if delta, err := strconv.Atoi(c.Query("delta")); err == nil {
		list.OnPageChange(c.Request.Context(), delta)
	}
	redirect(c, shell)
}

func (h *PageHandler) PageSize(c *gin.Context) {
	shell := shellFrom(c)
	list, ok := listView(c, shell)
	if !ok {
		return
	}
	size, err := strconv.Atoi(c.PostForm("pageSize"))
	if err == nil && slices.Contains(h.pageSizes, size) {
		list.SetPageSize(size)
		list.OnPageSizeChange(c.Request.Context())
	}
	redirect(c, shell)
}

// Save 新建或编辑表单提交
func (h *PageHandler) Save(c *gin.Context) {
	shell := shellFrom(c)
	ctx := c.Request.Context()
	if err := shell.Navigate(ctx, c.Request.URL.Path); err != nil {
		klog.Errorf("[PageHandler.Save] 导航失败: %v", err)
		c.String(http.StatusInternalServerError, "navigation failed")
		return
	}
	form, ok := shell.Page().(*view.FormView)
	if !ok {
		redirect(c, shell)
		return
	}
	var body issueForm
	if err := c.ShouldBind(&body); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	form.SetModel(view.FormModel{
		Title:       body.Title,
		Description: body.Description,
		Status:      model.Status(body.Status),
		Priority:    model.Priority(body.Priority),
		Assignee:    body.Assignee,
	})
	form.Save(ctx)
	redirect(c, shell)
}

func (h *PageHandler) Cancel(c *gin.Context) {
	shell := shellFrom(c)
	ctx := c.Request.Context()
	var err error
	if form, ok := shell.Page().(*view.FormView); ok {
		err = form.Cancel(ctx)
	} else {
		err = shell.Navigate(ctx, view.ListPath)
	}
	if err != nil {
		klog.Errorf("[PageHandler.Cancel] 导航失败: %v", err)
	}
	redirect(c, shell)
}

func (h *PageHandler) Back(c *gin.Context) {
	shell := shellFrom(c)
	ctx := c.Request.Context()
	var err error
	if detail, ok := shell.Page().(*view.DetailView); ok {
		err = detail.Back(ctx)
	} else {
		err = shell.Navigate(ctx, view.ListPath)
	}
	if err != nil {
		klog.Errorf("[PageHandler.Back] 导航失败: %v", err)
	}
	redirect(c, shell)
}

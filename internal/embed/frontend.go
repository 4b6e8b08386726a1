package embed

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/issuetracker/tracker/internal/model"
	"github.com/issuetracker/tracker/internal/pkg/markdown"
	"github.com/issuetracker/tracker/internal/view"
)

//go:embed ui/templates/*.html ui/static/*
var embeddedFiles embed.FS

// GetFrontendFS 获取嵌入的模板与静态文件
func GetFrontendFS() fs.FS {
	return embeddedFiles
}

// FuncMap 页面模板使用的辅助函数
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"markdown":  markdown.Render,
		"label":     label,
		"sortMark":  sortMark,
		"orDash":    orDash,
		"timestamp": timestamp,
		"detailURL": view.DetailPath,
		"editURL":   view.EditPath,
	}
}

// Templates 解析全部嵌入模板
func Templates() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(embeddedFiles, "ui/templates/*.html")
}

// SetupRouter 注册模板渲染、静态文件、gzip 压缩，未匹配的路径回到列表页
func SetupRouter(r *gin.Engine) error {
	// 添加 gzip 压缩中间件
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	tmpl, err := Templates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)

	staticFS, err := fs.Sub(embeddedFiles, "ui/static")
	if err != nil {
		return err
	}
	r.StaticFS("/static", http.FS(staticFS))

	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.String(http.StatusNotFound, "not found")
			return
		}
		c.Redirect(http.StatusFound, view.ListPath)
	})
	return nil
}

// label 将 in_progress 之类的枚举值转为展示文本
func label(value interface{}) string {
	var raw string
	switch v := value.(type) {
	case model.Status:
		raw = string(v)
	case model.Priority:
		raw = string(v)
	case model.SortColumn:
		if v == model.SortByUpdatedAt {
			return "Updated"
		}
		if v == model.SortByID {
			return "ID"
		}
		raw = string(v)
	case string:
		raw = v
	default:
		return ""
	}
	raw = strings.ReplaceAll(raw, "_", " ")
	if raw == "" {
		return ""
	}
	return strings.ToUpper(raw[:1]) + raw[1:]
}

func sortMark(list view.ListSnapshot, column model.SortColumn) string {
	if list.SortBy != column {
		return ""
	}
	if list.SortDir == model.SortAsc {
		return "▲"
	}
	return "▼"
}

func orDash(value *string) string {
	if value == nil || *value == "" {
		return "—"
	}
	return *value
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

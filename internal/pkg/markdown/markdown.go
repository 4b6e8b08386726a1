package markdown

import (
	"bytes"
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"k8s.io/klog/v2"
)

var (
	rendererOnce sync.Once
	renderer     goldmark.Markdown
	policy       *bluemonday.Policy
)

func instances() (goldmark.Markdown, *bluemonday.Policy) {
	rendererOnce.Do(func() {
		renderer = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		)
		policy = bluemonday.UGCPolicy()
		policy.RequireNoFollowOnLinks(true)
	})
	return renderer, policy
}

// Render 将 issue 描述按 GFM 渲染为经过清洗的 HTML
func Render(source string) template.HTML {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	md, sanitizer := instances()
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		klog.Warningf("[markdown.Render] 渲染失败，按纯文本输出: %v", err)
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes()))
}

package view

import (
	"strconv"
	"strings"
)

// PageKind 路由对应的页面类型
type PageKind string

const (
	PageList   PageKind = "list"
	PageDetail PageKind = "detail"
	PageForm   PageKind = "form"
)

const (
	ListPath = "/issues"
	NewPath  = "/issues/new"
)

type Route struct {
	Pattern string
	Kind    PageKind
}

// 顺序即匹配优先级，/issues/new 必须排在 /issues/:id 之前
var routes = []Route{
	{Pattern: "/issues", Kind: PageList},
	{Pattern: "/issues/new", Kind: PageForm},
	{Pattern: "/issues/:id/edit", Kind: PageForm},
	{Pattern: "/issues/:id", Kind: PageDetail},
}

// Match 按路由表匹配路径，未匹配时 ok 为 false，调用方应重定向到 ListPath
func Match(path string) (Route, map[string]string, bool) {
	segments := splitPath(path)
	for _, route := range routes {
		if params, ok := matchPattern(splitPath(route.Pattern), segments); ok {
			return route, params, true
		}
	}
	return Route{}, nil, false
}

func matchPattern(pattern, segments []string) (map[string]string, bool) {
	if len(pattern) != len(segments) {
		return nil, false
	}
	params := map[string]string{}
	for i, part := range pattern {
		if strings.HasPrefix(part, ":") {
			if segments[i] == "" {
				return nil, false
			}
			params[part[1:]] = segments[i]
			continue
		}
		if part != segments[i] {
			return nil, false
		}
	}
	return params, true
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func DetailPath(id uint) string {
	return ListPath + "/" + strconv.FormatUint(uint64(id), 10)
}

func EditPath(id uint) string {
	return DetailPath(id) + "/edit"
}

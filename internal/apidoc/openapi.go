package apidoc

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var rawDocument []byte

// Load 解析并校验 issues API 的 OpenAPI 文档；maxPageSize > 0 时覆盖 pageSize 上限
func Load(ctx context.Context, maxPageSize int) (*openapi3.T, error) {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(rawDocument)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if maxPageSize > 0 {
		if err := setMaxPageSize(doc, maxPageSize); err != nil {
			return nil, err
		}
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("openapi: validate: %w", err)
	}
	return doc, nil
}

func setMaxPageSize(doc *openapi3.T, maxPageSize int) error {
	item := doc.Paths.Value("/issues")
	if item == nil || item.Get == nil {
		return fmt.Errorf("openapi: /issues GET missing")
	}
	param := item.Get.Parameters.GetByInAndName(openapi3.ParameterInQuery, "pageSize")
	if param == nil || param.Schema == nil || param.Schema.Value == nil {
		return fmt.Errorf("openapi: pageSize parameter missing")
	}
	limit := float64(maxPageSize)
	param.Schema.Value.Max = &limit
	return nil
}

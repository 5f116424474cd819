package state

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tradehub/internal/common"
	"github.com/dmitrijs2005/tradehub/internal/models"
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ByCategory returns the products of category; common.CategoryAll and the
// empty string select everything.
func ByCategory(products []models.Product, category string) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if category == "" || category == common.CategoryAll || strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}

// Filter is a compiled boolean expression over the fields of a product,
// e.g. `condition == "New" && name contains "iPhone"`.
type Filter struct {
	program    *exprvm.Program
	expression string
}

func productEnv(p models.Product) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"condition":   p.Condition,
		"category":    p.Category,
		"userId":      p.UserID,
		"image":       p.Image,
	}
}

// CompileFilter rejects expressions that do not yield a bool or refer to
// unknown fields.
func CompileFilter(expression string) (*Filter, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, fmt.Errorf("%w: empty filter", common.ErrorInvalidArgument)
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(productEnv(models.Product{})),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInvalidArgument, err)
	}
	return &Filter{program: program, expression: expression}, nil
}

func (f *Filter) Match(p models.Product) (bool, error) {
	out, err := exprlang.Run(f.program, productEnv(p))
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", f.expression, err)
	}
	return out.(bool), nil
}

// Apply returns the products matching f.
func (f *Filter) Apply(products []models.Product) ([]models.Product, error) {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		ok, err := f.Match(p)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

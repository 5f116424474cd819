package state

import (
	"testing"

	"github.com/dmitrijs2005/tradehub/internal/common"
	"github.com/dmitrijs2005/tradehub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalogue = []models.Product{
	{ID: "p1", Name: "iPhone 12", Condition: "New", Category: "Électronique", UserID: "u1"},
	{ID: "p2", Name: "Canapé", Condition: "Used", Category: "Maison", UserID: "u2"},
	{ID: "p3", Name: "Robe", Condition: "Like new", Category: "Femmes", UserID: "u1"},
}

func ids(ps []models.Product) []string {
	out := []string{}
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestByCategory(t *testing.T) {
	tests := []struct {
		category string
		want     []string
	}{
		{common.CategoryAll, []string{"p1", "p2", "p3"}},
		{"", []string{"p1", "p2", "p3"}},
		{"Maison", []string{"p2"}},
		{"maison", []string{"p2"}},
		{"Animaux", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(ByCategory(catalogue, tt.category)))
		})
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		expr string
		want []string
	}{
		{`condition == "New"`, []string{"p1"}},
		{`userId == "u1"`, []string{"p1", "p3"}},
		{`name contains "a"`, []string{"p2"}},
		{`category in ["Maison", "Femmes"] && condition != "New"`, []string{"p2", "p3"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := CompileFilter(tt.expr)
			require.NoError(t, err)
			got, err := f.Apply(catalogue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestCompileFilter_Rejects(t *testing.T) {
	for _, expr := range []string{"", "   ", `name`, `price > 3`, `condition ==`} {
		_, err := CompileFilter(expr)
		assert.ErrorIs(t, err, common.ErrorInvalidArgument, expr)
	}
}

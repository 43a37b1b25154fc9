package search

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCondSQL(t *testing.T) {
	cases := []struct {
		name string
		cond Cond
		sql  string
		args []interface{}
	}{
		{"contains", Cond{Field: FieldName, Op: OpContains, Value: "Pana"}, `LOWER(name) LIKE ? ESCAPE '\'`, []interface{}{"%pana%"}},
		{"contains escapes", Cond{Field: FieldName, Op: OpContains, Value: `5%_\`}, `LOWER(name) LIKE ? ESCAPE '\'`, []interface{}{`%5\%\_\\%`}},
		{"prefix tokens", Cond{Field: FieldName, Op: OpPrefix, Value: []string{"Aug", "1G"}}, `LOWER(name) LIKE ? ESCAPE '\'`, []interface{}{"aug%1g%"}},
		{"prefix string", Cond{Field: FieldName, Op: OpPrefix, Value: "au"}, `LOWER(name) LIKE ? ESCAPE '\'`, []interface{}{"au%"}},
		{"equals", Cond{Field: FieldBarcode, Op: OpEquals, Value: "622"}, "barcode = ?", []interface{}{"622"}},
		{"equals fold", Cond{Field: FieldManufacturer, Op: OpEqualsFold, Value: "GSK"}, "LOWER(manufacturer) = ?", []interface{}{"gsk"}},
		{"gte", Cond{Field: FieldPrice, Op: OpGTE, Value: 10}, "price >= ?", []interface{}{10}},
		{"lte", Cond{Field: FieldPrice, Op: OpLTE, Value: 20}, "price <= ?", []interface{}{20}},
		{"between", Cond{Field: FieldPrice, Op: OpBetween, Value: 1, Upper: 2}, "price BETWEEN ? AND ?", []interface{}{1, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sql, args := tc.cond.SQL()
			assert.Equal(t, tc.sql, sql)
			assert.Equal(t, tc.args, args)
		})
	}
}

func TestGroupRendering(t *testing.T) {
	a := Cond{Field: FieldName, Op: OpContains, Value: "a"}
	b := Cond{Field: FieldBarcode, Op: OpEquals, Value: "1"}
	c := Cond{Field: FieldPrice, Op: OpGTE, Value: decimal.NewFromInt(3)}

	sql, args := Render(And(c, Or(a, b)))
	assert.Equal(t, `(price >= ? AND (LOWER(name) LIKE ? ESCAPE '\' OR barcode = ?))`, sql)
	assert.Len(t, args, 3)
	assert.Equal(t, "%a%", args[1])

	assert.Nil(t, And())
	assert.Nil(t, And(nil, nil))
	assert.Equal(t, a, And(nil, a))

	single, ok := Or(a).(Group)
	assert.True(t, ok)
	assert.True(t, single.Or)

	sql, args = Render(nil)
	assert.Empty(t, sql)
	assert.Nil(t, args)
}

func TestWalk(t *testing.T) {
	p := And(
		Cond{Field: FieldCategory, Op: OpContains, Value: "x"},
		Or(Cond{Field: FieldName, Op: OpContains, Value: "y"}, Raw{Expr: "1 = 1"}),
	)
	var conds int
	Walk(p, func(n Predicate) bool {
		if _, ok := n.(Cond); ok {
			conds++
		}
		return true
	})
	assert.Equal(t, 2, conds)

	visited := 0
	Walk(p, func(Predicate) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}

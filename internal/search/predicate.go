package search

import (
	"fmt"
	"strings"
)

// Field is a searchable column of the products relation
type Field string

const (
	FieldName         Field = "name"
	FieldLocalName    Field = "local_name"
	FieldIngredient   Field = "ingredient"
	FieldManufacturer Field = "manufacturer"
	FieldCategory     Field = "category"
	FieldDescription  Field = "description"
	FieldBarcode      Field = "barcode"
	FieldPrice        Field = "price"
)

// Op is a comparison applied by a Cond
type Op int

const (
	// OpContains matches the value anywhere in the field, ignoring case
	OpContains Op = iota
	// OpPrefix matches the field start. A []string value matches the tokens
	// in order with anything between them.
	OpPrefix
	OpEquals
	OpEqualsFold
	OpGTE
	OpLTE
	// OpBetween matches Value <= field <= Upper
	OpBetween
)

func (o Op) String() string {
	switch o {
	case OpContains:
		return "contains"
	case OpPrefix:
		return "prefix"
	case OpEquals:
		return "equals"
	case OpEqualsFold:
		return "equals_fold"
	case OpGTE:
		return "gte"
	case OpLTE:
		return "lte"
	case OpBetween:
		return "between"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Predicate is a node of a WHERE tree. SQL renders it with '?' placeholders
// and returns the arguments in placeholder order.
type Predicate interface {
	SQL() (string, []interface{})
}

// Cond compares one field against a value
type Cond struct {
	Field Field
	Op    Op
	Value interface{}
	Upper interface{}
}

func (c Cond) SQL() (string, []interface{}) {
	switch c.Op {
	case OpContains:
		return likeSQL(string(c.Field)), []interface{}{ContainsPattern(fmt.Sprint(c.Value))}
	case OpPrefix:
		var tokens []string
		switch v := c.Value.(type) {
		case []string:
			tokens = v
		default:
			tokens = []string{fmt.Sprint(v)}
		}
		return likeSQL(string(c.Field)), []interface{}{PrefixPattern(tokens)}
	case OpEquals:
		return fmt.Sprintf("%s = ?", c.Field), []interface{}{c.Value}
	case OpEqualsFold:
		return fmt.Sprintf("LOWER(%s) = ?", c.Field), []interface{}{strings.ToLower(fmt.Sprint(c.Value))}
	case OpGTE:
		return fmt.Sprintf("%s >= ?", c.Field), []interface{}{c.Value}
	case OpLTE:
		return fmt.Sprintf("%s <= ?", c.Field), []interface{}{c.Value}
	case OpBetween:
		return fmt.Sprintf("%s BETWEEN ? AND ?", c.Field), []interface{}{c.Value, c.Upper}
	}
	return "1 = 0", nil
}

// Group joins its items with AND or OR. The rendering is always parenthesized.
type Group struct {
	Or    bool
	Items []Predicate
}

func (g Group) SQL() (string, []interface{}) {
	if len(g.Items) == 0 {
		return "1 = 1", nil
	}
	sep := " AND "
	if g.Or {
		sep = " OR "
	}
	parts := make([]string, 0, len(g.Items))
	var args []interface{}
	for _, item := range g.Items {
		s, a := item.SQL()
		parts = append(parts, s)
		args = append(args, a...)
	}
	return "(" + strings.Join(parts, sep) + ")", args
}

// Raw is a literal SQL fragment, used for subqueries
type Raw struct {
	Expr string
	Args []interface{}
}

func (r Raw) SQL() (string, []interface{}) { return r.Expr, r.Args }

// And joins the non-nil predicates. It returns nil when none is left and the
// predicate itself when only one is.
func And(ps ...Predicate) Predicate { return join(false, ps) }

// Or is And with OR semantics. A single-item OR is still a group.
func Or(ps ...Predicate) Predicate { return join(true, ps) }

func join(or bool, ps []Predicate) Predicate {
	items := make([]Predicate, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			items = append(items, p)
		}
	}
	switch {
	case len(items) == 0:
		return nil
	case len(items) == 1 && !or:
		return items[0]
	}
	return Group{Or: or, Items: items}
}

// Render renders p, treating nil as "no constraint"
func Render(p Predicate) (string, []interface{}) {
	if p == nil {
		return "", nil
	}
	return p.SQL()
}

// Walk visits p and its descendants depth first until fn returns false
func Walk(p Predicate, fn func(Predicate) bool) bool {
	if p == nil {
		return true
	}
	if !fn(p) {
		return false
	}
	if g, ok := p.(Group); ok {
		for _, item := range g.Items {
			if !Walk(item, fn) {
				return false
			}
		}
	}
	return true
}

// ContainsPattern returns the LIKE pattern matching s anywhere, lower-cased
func ContainsPattern(s string) string {
	return "%" + escapeLike(strings.ToLower(s)) + "%"
}

// PrefixPattern returns the LIKE pattern matching tokens in order at the start
func PrefixPattern(tokens []string) string {
	escaped := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			escaped = append(escaped, escapeLike(strings.ToLower(t)))
		}
	}
	return strings.Join(escaped, "%") + "%"
}

func likeSQL(column string) string {
	return fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, column)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

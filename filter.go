package typesearch

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter is a composable filter expression, rendered to the engine's
// filter_by syntax by search, export and delete-by-filter.
type Filter interface {
	// Render produces the filter_by string for this expression.
	Render() string

	// filter is a marker method to keep the set of expression types closed.
	filter()
}

// baseFilter provides the filter marker method for all expression types.
type baseFilter struct{}

func (baseFilter) filter() {}

// CmpFilter is a single field comparison.
type CmpFilter struct {
	baseFilter
	// Field is the name of the field to compare.
	Field string
	// Op is the engine comparison operator, e.g. ":=" or ":>".
	Op string
	// Value is the value to compare against.
	Value interface{}
}

func (c CmpFilter) Render() string {
	return c.Field + c.Op + renderValue(c.Value)
}

// Eq matches documents whose field equals value.
func Eq(field string, value interface{}) Filter {
	return CmpFilter{Field: field, Op: ":=", Value: value}
}

// Ne matches documents whose field does not equal value.
func Ne(field string, value interface{}) Filter {
	return CmpFilter{Field: field, Op: ":!=", Value: value}
}

// Gt matches documents whose field is greater than value.
func Gt(field string, value interface{}) Filter {
	return CmpFilter{Field: field, Op: ":>", Value: value}
}

// Gte matches documents whose field is greater than or equal to value.
func Gte(field string, value interface{}) Filter {
	return CmpFilter{Field: field, Op: ":>=", Value: value}
}

// Lt matches documents whose field is less than value.
func Lt(field string, value interface{}) Filter {
	return CmpFilter{Field: field, Op: ":<", Value: value}
}

// Lte matches documents whose field is less than or equal to value.
func Lte(field string, value interface{}) Filter {
	return CmpFilter{Field: field, Op: ":<=", Value: value}
}

// InFilter matches documents whose field equals any of the listed values.
type InFilter struct {
	baseFilter
	// Field is the name of the field to compare.
	Field string
	// Values are the accepted values.
	Values []interface{}
}

// Render produces the list comparison, or nothing when the value list is
// empty: the engine rejects an empty list literal.
func (i InFilter) Render() string {
	if len(i.Values) == 0 {
		return ""
	}
	rendered := make([]string, 0, len(i.Values))
	for _, v := range i.Values {
		rendered = append(rendered, renderValue(v))
	}
	return i.Field + ":=[" + strings.Join(rendered, ",") + "]"
}

// In matches documents whose field equals any of the given values.
func In(field string, values ...interface{}) Filter {
	return InFilter{Field: field, Values: values}
}

// AndFilter matches documents satisfying every inner expression.
type AndFilter struct {
	baseFilter
	// Filters contains the expressions to combine with AND logic.
	Filters []Filter
}

func (a AndFilter) Render() string {
	return renderJoin(a.Filters, " && ")
}

// And combines expressions with AND logic.
func And(filters ...Filter) Filter {
	return AndFilter{Filters: filters}
}

// OrFilter matches documents satisfying at least one inner expression.
// It renders parenthesized so it nests correctly inside AND.
type OrFilter struct {
	baseFilter
	// Filters contains the expressions to combine with OR logic.
	Filters []Filter
}

func (o OrFilter) Render() string {
	joined := renderJoin(o.Filters, " || ")
	if joined == "" {
		return ""
	}
	return "(" + joined + ")"
}

// Or combines expressions with OR logic.
func Or(filters ...Filter) Filter {
	return OrFilter{Filters: filters}
}

// NotFilter matches documents not satisfying the inner expression. The
// engine has no general NOT operator, so negation is pushed down
// structurally: comparison operators flip, list membership becomes
// exclusion, and AND/OR swap over negated children.
type NotFilter struct {
	baseFilter
	// Inner is the expression to negate.
	Inner Filter
}

func (n NotFilter) Render() string {
	switch inner := n.Inner.(type) {
	case CmpFilter:
		return CmpFilter{Field: inner.Field, Op: negatedOps[inner.Op], Value: inner.Value}.Render()
	case InFilter:
		rendered := InFilter{Field: inner.Field, Values: inner.Values}.Render()
		return strings.Replace(rendered, ":=[", ":!=[", 1)
	case AndFilter:
		return OrFilter{Filters: negateAll(inner.Filters)}.Render()
	case OrFilter:
		return AndFilter{Filters: negateAll(inner.Filters)}.Render()
	case NotFilter:
		return inner.Inner.Render()
	default:
		return ""
	}
}

// Not negates the given expression.
func Not(filter Filter) Filter {
	return NotFilter{Inner: filter}
}

var negatedOps = map[string]string{
	":=":  ":!=",
	":!=": ":=",
	":>":  ":<=",
	":>=": ":<",
	":<":  ":>=",
	":<=": ":>",
}

func negateAll(filters []Filter) []Filter {
	negated := make([]Filter, 0, len(filters))
	for _, f := range filters {
		negated = append(negated, Not(f))
	}
	return negated
}

// renderJoin joins the non-empty renderings of filters. Expressions that
// render to nothing, such as an empty In, drop out instead of leaving a
// dangling connective.
func renderJoin(filters []Filter, sep string) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if part := f.Render(); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, sep)
}

// renderValue formats a value for the filter_by syntax. Strings carrying
// whitespace or syntax characters are backtick-quoted.
func renderValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		if strings.ContainsAny(v, " \t,():&|[]") {
			return "`" + v + "`"
		}
		return v
	case bool:
		return strconv.FormatBool(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Package filters builds the formula expressions the record store
// accepts in its filterByFormula query parameter. Formulas are composed
// as a small expression tree and rendered by one encoder, so escaping
// lives in one place instead of at every call site.
package filters

import "strings"

type Formula interface {
	// Render produces the wire form of the expression. Percent-encoding
	// is the transport's job.
	Render() string
}

type equals struct {
	field string
	value string
}

func (e equals) Render() string {
	return "{" + e.field + "}=" + quote(e.value)
}

type equalsFold struct {
	field string
	value string
}

func (e equalsFold) Render() string {
	return "LOWER({" + e.field + "})=LOWER(" + quote(e.value) + ")"
}

type conjunction struct {
	exprs []Formula
}

func (c conjunction) Render() string {
	parts := make([]string, 0, len(c.exprs))
	for _, expr := range c.exprs {
		parts = append(parts, expr.Render())
	}
	return "AND(" + strings.Join(parts, ",") + ")"
}

// Equals matches records whose field equals value exactly.
func Equals(field, value string) Formula {
	return equals{field: field, value: value}
}

// EqualsFold matches records whose field equals value ignoring case.
func EqualsFold(field, value string) Formula {
	return equalsFold{field: field, value: value}
}

// And combines expressions into a conjunction. A single expression is
// returned as-is rather than wrapped.
func And(exprs ...Formula) Formula {
	if len(exprs) == 1 {
		return exprs[0]
	}
	return conjunction{exprs: exprs}
}

var valueEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(value string) string {
	return `"` + valueEscaper.Replace(value) + `"`
}

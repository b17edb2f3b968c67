package postgrest

import (
	"net/url"
	"strconv"
	"strings"
)

// query builds PostgREST query strings such as status=eq.active&order=created_at.desc.
type query struct {
	values url.Values
}

func newQuery() *query {
	return &query{values: url.Values{}}
}

func (q *query) Select(columns string) *query {
	q.values.Set("select", columns)
	return q
}

// Eq adds an equality filter. Empty values are ignored.
func (q *query) Eq(column, value string) *query {
	if value != "" {
		q.values.Add(column, "eq."+value)
	}
	return q
}

func (q *query) IsNull(column string) *query {
	q.values.Add(column, "is.null")
	return q
}

// Or adds a disjunction of filters written as column.op.value.
func (q *query) Or(filters ...string) *query {
	q.values.Add("or", "("+strings.Join(filters, ",")+")")
	return q
}

func (q *query) Order(column string, desc bool) *query {
	dir := "asc"
	if desc {
		dir = "desc"
	}
	q.values.Add("order", column+"."+dir)
	return q
}

func (q *query) Limit(n int) *query {
	q.values.Set("limit", strconv.Itoa(n))
	return q
}

func (q *query) Values() url.Values {
	return q.values
}

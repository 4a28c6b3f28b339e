package client

import "net/url"

// Query is a request's query-string parameters. Encode renders keys in sorted
// order, so the output does not depend on the order WithValue was called in;
// values under one key keep the order they were added.
type Query map[string][]string

func NewQuery() Query {
	return make(Query)
}

func (q Query) WithValue(key string, values ...string) Query {
	q[key] = append(q[key], values...)
	return q
}

// Encode renders q as a percent-escaped query string, without a leading '?'.
func (q Query) Encode() string {
	return url.Values(q).Encode()
}

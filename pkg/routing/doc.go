// Package routing decides where an inbound request goes.
//
// The Resolver checks the request path against the reserved prefixes
// (Proxima's own namespaces, never proxied) and then against the ordered
// route rules from the configuration document. Matching is first-match in
// declaration order. Patterns support double wildcards ("/api/**"),
// single-segment wildcards ("/api/*"), embedded wildcards ("/api/*/health"),
// and exact/prefix matches. When no rule matches, the default downstream
// base is used.
package routing

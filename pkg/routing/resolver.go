package routing

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/FreeSideNomad/proxima/pkg/config"
)

// Resolver matches inbound paths against the configured route rules and
// builds the concrete downstream target URL. Rules are evaluated strictly
// in declaration order; the first enabled rule that matches wins. The
// priority field on rules is carried in the document but deliberately does
// not reorder matching.
type Resolver struct {
	store  *config.Store
	logger *slog.Logger
}

// NewResolver creates a resolver reading rules from the given store.
func NewResolver(store *config.Store) *Resolver {
	return &Resolver{
		store:  store,
		logger: slog.Default().With("component", "routing.resolver"),
	}
}

// Resolution is the outcome of resolving a request path: the concrete
// downstream URL and, when a rule matched, which pattern it was.
type Resolution struct {
	Target  string
	Matched bool
	Pattern string
}

// Resolve returns the downstream target for a request path. Paths under
// a reserved prefix return a ReservedPathError and must not be proxied.
// When no rule matches, the default downstream base plus the original path
// is returned.
func (r *Resolver) Resolve(path string) (Resolution, error) {
	cfg := r.store.Snapshot()

	if IsReserved(path, cfg.ReservedPrefixes) {
		r.logger.Debug("reserved path, not proxying", "path", path)
		return Resolution{}, &ReservedPathError{Path: path}
	}

	for i := range cfg.Routes {
		rule := &cfg.Routes[i]
		if !rule.RouteEnabled() {
			continue
		}
		if Match(rule.PathPattern, path) {
			target := BuildTarget(rule.PathPattern, rule.TargetURL, path)
			r.logger.Info("route matched",
				"description", rule.Description,
				"path", path,
				"target", target,
				"pattern", rule.PathPattern,
			)
			return Resolution{Target: target, Matched: true, Pattern: rule.PathPattern}, nil
		}
	}

	fallback := joinTarget(cfg.Downstream.URL, path)
	r.logger.Debug("no route matched, using default downstream",
		"path", path,
		"target", fallback,
	)
	return Resolution{Target: fallback}, nil
}

// IsReserved reports whether a path lives inside Proxima's own namespace.
// The bare root path is always reserved.
func IsReserved(path string, prefixes []string) bool {
	if path == "/" || path == "" {
		return true
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Match reports whether a path matches a route pattern. Pattern classes,
// in the order they are recognized:
//
//   - "prefix/**" matches any path starting with prefix.
//   - "prefix/*" matches prefix plus at most one more path segment.
//   - a pattern with "*" anywhere else is a glob where "*" matches any run
//     of characters, anchored at both ends.
//   - anything else matches exactly, or as a prefix followed by "/...".
func Match(pattern, path string) bool {
	if pattern == "" {
		return false
	}

	switch {
	case strings.HasSuffix(pattern, "/**"):
		prefix := strings.TrimSuffix(pattern, "/**")
		return strings.HasPrefix(path, prefix)

	case strings.HasSuffix(pattern, "/*"):
		// Keep the trailing slash in the prefix: "/api/users/*" matches
		// "/api/users/123" and "/api/users/" but not "/api/users" or
		// "/api/users/123/details".
		prefix := strings.TrimSuffix(pattern, "*")
		if !strings.HasPrefix(path, prefix) {
			return false
		}
		remainder := path[len(prefix):]
		return !strings.Contains(remainder, "/")

	case strings.Contains(pattern, "*"):
		return matchGlob(pattern, path)

	default:
		return path == pattern || strings.HasPrefix(path, pattern+"/")
	}
}

// matchGlob matches a path against a pattern whose "*" runs expand to any
// characters. The match covers the whole path.
func matchGlob(pattern, path string) bool {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	re, err := regexp.Compile("^" + strings.Join(parts, ".*") + "$")
	if err != nil {
		return false
	}
	return re.MatchString(path)
}

// BuildTarget constructs the concrete downstream URL for a path that
// matched the given pattern. The remainder after the matched prefix is
// appended to the target; for embedded-wildcard patterns the entire
// original path is appended. Exact matches return the target unmodified.
func BuildTarget(pattern, target, path string) string {
	switch {
	case strings.HasSuffix(pattern, "/**"):
		prefix := strings.TrimSuffix(pattern, "/**")
		return joinTarget(target, path[len(prefix):])

	case strings.HasSuffix(pattern, "/*"):
		prefix := strings.TrimSuffix(pattern, "/*")
		return joinTarget(target, path[len(prefix):])

	case strings.Contains(pattern, "*"):
		return joinTarget(target, path)

	default:
		if path == pattern {
			return target
		}
		return joinTarget(target, path[len(pattern):])
	}
}

// joinTarget concatenates a target base and a remainder that begins with
// "/", collapsing the doubled slash when the target has a trailing one.
func joinTarget(target, remainder string) string {
	if remainder == "" {
		return target
	}
	if strings.HasSuffix(target, "/") && strings.HasPrefix(remainder, "/") {
		return target + remainder[1:]
	}
	return target + remainder
}

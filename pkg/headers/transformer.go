// Package headers builds the outbound header set for a proxied request.
//
// Hop-by-hop headers are stripped, inbound headers are optionally renamed
// per the active preset's mappings, and the preset's static headers are
// applied last, overwriting any same-named header. Renaming lets an inbound
// header survive a static override under its new name.
package headers

import (
	"net/http"
	"net/textproto"
	"strings"

	"github.com/FreeSideNomad/proxima/pkg/config"
)

// hopByHop is the set of headers meaningful only for a single connection
// leg; they are never forwarded. Host is included because the outbound
// request carries its own.
var hopByHop = map[string]struct{}{
	"connection":          {},
	"keep-alive":          {},
	"proxy-authenticate":  {},
	"proxy-authorization": {},
	"te":                  {},
	"trailer":             {},
	"transfer-encoding":   {},
	"upgrade":             {},
	"host":                {},
}

// IsHopByHop reports whether a header name (any case) is hop-by-hop.
func IsHopByHop(name string) bool {
	_, ok := hopByHop[strings.ToLower(name)]
	return ok
}

// Transform produces the outbound header set for a proxied request.
//
// Every inbound header outside the hop-by-hop set is copied, renamed when
// the preset's header mappings name it. An inbound header whose (unchanged)
// name collides with a preset static header is skipped, since the static
// value would overwrite it anyway; a renamed header is always carried. The
// preset's static headers are then applied unconditionally, replacing any
// value already present under their name. A nil preset forwards the inbound
// headers minus the hop-by-hop set.
func Transform(inbound http.Header, preset *config.Preset) http.Header {
	renames := canonicalize(presetMappings(preset))
	static := canonicalize(presetHeaders(preset))

	out := make(http.Header, len(inbound))

	for name, values := range inbound {
		if IsHopByHop(name) {
			continue
		}

		outName := name
		if renamed, ok := renames[name]; ok {
			outName = textproto.CanonicalMIMEHeaderKey(renamed)
		}

		if outName == name {
			if _, overridden := static[outName]; overridden {
				continue
			}
		}

		out[outName] = append(out[outName], values...)
	}

	for name, value := range static {
		out.Set(name, value)
	}

	return out
}

// presetHeaders returns the preset's static headers, nil-safe.
func presetHeaders(preset *config.Preset) map[string]string {
	if preset == nil {
		return nil
	}
	return preset.Headers
}

// presetMappings returns the preset's rename map, nil-safe.
func presetMappings(preset *config.Preset) map[string]string {
	if preset == nil {
		return nil
	}
	return preset.HeaderMappings
}

// canonicalize rewrites map keys into canonical MIME header form so
// lookups against http.Header keys succeed regardless of how the
// configuration spells them.
func canonicalize(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[textproto.CanonicalMIMEHeaderKey(k)] = v
	}
	return out
}

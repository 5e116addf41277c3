// Proxima is a developer-facing reverse proxy with a simulated OpenID
// Connect identity provider.
//
// It forwards requests to configured downstream services, injecting and
// renaming headers according to the active preset, and issues signed JWTs
// through a local OAuth2 authorization code flow so that applications can
// be developed against realistic identity without a real provider.
//
// Usage:
//
//	# Start the proxy with default configuration
//	proxima run
//
//	# Start with a custom configuration file
//	proxima run --config /path/to/proxima.yaml
//
//	# Validate a configuration file
//	proxima validate --config proxima.yaml
//
//	# Generate a signing key pair
//	proxima keys generate --key-id local-dev
//
//	# Show version information
//	proxima version
//
// For complete documentation, see: https://github.com/FreeSideNomad/proxima
package main

func main() {
	Execute()
}

// Package config defines the Proxima configuration document and its loader.
//
// The document describes the HTTP server, the default downstream target,
// the ordered route rules, the header presets with their optional OIDC
// personas, and telemetry settings. Configuration is loaded from a YAML
// file with defaults applied and validation performed before use:
//
//	store, err := config.NewStore("proxima.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	cfg := store.Snapshot()
//
// The Store re-reads the backing file when it changes (by modification time
// on read, or eagerly via Watch), so every Snapshot is a point-in-time view
// of the document. Environment variables of the form PROXIMA_SECTION_FIELD
// override file values.
package config

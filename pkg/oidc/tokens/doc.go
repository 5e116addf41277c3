// Package tokens mints OpenID Connect token sets for configured personas
// and caches them per preset. Claims come from the persona's identity
// fields plus its free-form custom claims; signing is delegated to the
// key store. A background refresher keeps cached sets from expiring
// mid-session.
package tokens

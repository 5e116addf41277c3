// Package codes manages short-lived, single-use OAuth2 authorization codes.
//
// Codes are held in memory only. Each code is bound to the client and
// redirect URI it was issued for, expires after ten minutes, and is removed
// from the ledger the moment it is exchanged. A periodic sweep reclaims
// codes the client abandoned without exchanging.
package codes

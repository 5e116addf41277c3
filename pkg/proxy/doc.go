// Package proxy forwards client requests to the downstream application.
// The forwarder resolves each path through the route table, injects the
// active preset's headers, and relays the downstream response verbatim.
// A downstream failure maps to 502, a timeout to 504; downstream error
// statuses pass through untouched.
package proxy

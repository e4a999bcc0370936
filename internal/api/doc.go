// Package api is the typed gateway to the meeting-assistant REST backend.
//
// Every call goes through Client.Do, which resolves the path against one of two
// base URLs, attaches a JSON body and an X-Request-ID header, and turns any
// non-2xx response into a *RequestError. The error message comes from the
// response's "error" field, then its "message" field, then the raw body text,
// and finally a generic "Request failed (<status>)". A 503, or a body that
// says "Service Unavailable", becomes a retry hint classified as
// services.ErrUnavailable.
//
// Endpoint methods validate their arguments before touching the network and
// percent-encode identifier path segments. The gateway never retries, never
// caches, and never mutates caller-held state.
package api

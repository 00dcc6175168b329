// Package gateway provides the authenticated HTTP transport used for every call
// to the wallet backend.
//
// Transport is an http.RoundTripper that adds two behaviors to a base transport:
//
//   - Outbound: attaches "Authorization: Bearer <access token>" read from the
//     credential store, unless the request opts out with the skipAuth marker
//     (header "skipAuth: true" or WithSkipAuth on the request context). The
//     marker is stripped and never reaches the network.
//   - Inbound: when the backend answers with the designated expired status
//     (403 by default), obtains a new credential pair through a Refresher and
//     replays the request once with the new access token.
//
// # Refresh episodes
//
// At most one refresh call is outstanding at any time. The first request to see
// the expired status becomes the episode leader and performs the refresh; every
// request failing while the episode is open queues behind it and is released
// with the leader's outcome. On refresh failure the stored credentials are
// cleared and every affected request fails with the refresh error.
//
// A request that is rejected with the expired status after its replay fails
// permanently with a *StatusError; it never starts a second refresh.
//
// # Status handling
//
// Responses with a 2xx/3xx status and client errors other than the expired
// status are returned unchanged, so callers can branch on the envelope's
// responseCode. Server errors are returned as *StatusError.
package gateway

// Package tokensource turns stored wallet credentials into oauth2 tokens.
//
// The wallet backend issues bearer tokens that are usually JWTs but are treated
// as opaque by the gateway. Bearer builds the oauth2.Token used to set the
// Authorization header:
//
//	tokensource.Bearer(accessToken).SetAuthHeader(req)
//
// Inspect decodes the claims of a JWT access token without verifying its
// signature, for display purposes only:
//
//	info, err := tokensource.Inspect(accessToken)
//	if err == nil && info.Expired(time.Now()) { ... }
//
// StoreSource adapts a credential store to oauth2.TokenSource for callers that
// expect one, such as oauth2.Transport.
package tokensource

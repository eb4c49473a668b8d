package common

// AuthorizationHeaderName carries the optional bearer token used for
// author attribution on HTTP requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "

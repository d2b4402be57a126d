package common

// AuthorizationHeader is the HTTP header carrying the collaborator-issued
// bearer token on every request to the remote store.
const AuthorizationHeader = "Authorization"

// BearerPrefix precedes the token value in AuthorizationHeader.
const BearerPrefix = "Bearer "

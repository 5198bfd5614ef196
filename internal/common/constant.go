// Package common contains shared constants and sentinel errors used across
// the todoauth server components.
package common

// AccessTokenHeaderName is the HTTP header carrying the bearer access token
// on protected requests.
const AccessTokenHeaderName = "Authorization"

// BearerPrefix precedes the access token inside AccessTokenHeaderName.
const BearerPrefix = "Bearer "

// DefaultRefreshCookieName is the cookie that carries the refresh token when
// the configuration does not override it.
const DefaultRefreshCookieName = "refreshToken"

package middleware

import "errors"

var (
	errMissingToken    = errors.New("missing authorization header")
	errMalformedHeader = errors.New("invalid authorization header format")
	errInvalidToken    = errors.New("invalid token")
	errMissingSubject  = errors.New("missing subject in token")
)

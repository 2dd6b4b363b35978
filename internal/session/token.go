// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiry extracts the exp claim from a bearer token without
// verifying the signature. The client has no signing key; the claim is
// used only to display expiry and to skip restoring a token the backend
// would reject anyway. Opaque or claimless tokens yield the zero time.
func tokenExpiry(token string) time.Time {
	if token == "" || strings.HasPrefix(token, localTokenPrefix) {
		return time.Time{}
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Package auth obtains and caches OAuth2 client-credentials tokens.
package auth

import (
	"net/url"

	"github.com/gradecam/schoolnet-client/internal/constants"
)

// Credentials are the fields posted to the token endpoint.
type Credentials struct {
	ClientID     string
	ClientSecret string
	GrantType    string
	Scope        string
}

// NewCredentials builds client-credentials for clientID and secret. scope may
// be empty.
func NewCredentials(clientID, clientSecret, scope string) Credentials {
	return Credentials{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		GrantType:    constants.GrantType,
		Scope:        scope,
	}
}

// Values encodes the credentials as a token request form. Empty fields are
// left out and a scope is sent as a tenant path.
func (c Credentials) Values() url.Values {
	form := url.Values{}

	set := func(key, value string) {
		if value != "" {
			form.Set(key, value)
		}
	}

	set("client_id", c.ClientID)
	set("client_secret", c.ClientSecret)
	set("grant_type", c.GrantType)

	if c.Scope != "" {
		form.Set("scope", constants.ScopePrefix+c.Scope)
	}

	return form
}

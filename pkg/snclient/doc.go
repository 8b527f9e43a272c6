// Package snclient builds a ready-to-use Schoolnet API client.
//
// It wires configuration, logging, the token cache and the retrying HTTP
// transport behind the resource methods declared by schoolnet.Client.
//
// Quick start
//
//	ctx := context.Background()
//
//	cli, err := snclient.New(ctx, &schoolnet.Config{
//	  BaseURL:      "https://district.schoolnet.com",
//	  ClientID:     "client-id",
//	  ClientSecret: "client-secret",
//	  Scope:        "district-tenant",
//	})
//	if err != nil { log.Fatal(err) }
//
//	districts, err := cli.GetDistricts(ctx)
//
// # Endpoints
//
// Only the scheme and host of BaseURL matter: resources are read from
// /api/v1/ and tokens from /api/oauth/token on the same host.
//
// # Sharing tokens
//
// Set Config.TokenCache to a schoolnet.NATSKVCache so that several processes
// using the same credentials reuse one access token.
package snclient

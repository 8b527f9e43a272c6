// Package schoolnet provides types, interfaces, and helpers for working with the
// Schoolnet roster and assessment REST API.
//
// # Overview
//
// The schoolnet package defines the public surface of the client: the Client
// interface (districts, schools, sections, staff, students, assessments), the
// Config used to build one, the Ref type used to address resources, and the
// error taxonomy. A concrete implementation is provided by the snclient
// package, which wires configuration, transport, token caching and logging.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/gradecam/schoolnet-client/pkg/schoolnet"
//	  "github.com/gradecam/schoolnet-client/pkg/snclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := snclient.New(ctx, &schoolnet.Config{
//	    BaseURL:      "https://district.schoolnet.com",
//	    ClientID:     "client-id",
//	    ClientSecret: "client-secret",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  districts, err := cli.GetDistricts(ctx)
//	  if err != nil { log.Fatal(err) }
//
//	  for _, district := range districts {
//	    schools, _ := cli.GetSchools(ctx, schoolnet.RefFromRecord(district), nil)
//	    _ = schools
//	  }
//	}
//
// # Pagination
//
// List calls page through the API transparently unless a Limit or Offset is
// set on ListOptions, in which case exactly one page is returned (or, with
// Recursive, every page starting at that offset).
//
// # Errors
//
// Token endpoint failures are reported as *AuthenticationError, non-2xx API
// responses as *APIError. Writes never return errors: inspect
// WriteResult.Success instead.
package schoolnet

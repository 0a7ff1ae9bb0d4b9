// Package fxcrm provides types, interfaces, and helpers for working with the
// Fxiaoke (ShareCRM) open API.
//
// # Overview
//
// The fxcrm package defines the call contract (Caller, Client), the response
// envelope and its normalized Result, the typed errors, the paging Cursor and
// the Request builder. A concrete Client is provided by the fxclient package,
// which wires credentials, the corp access token manager and the HTTP
// transport together.
//
// Getting a client
//
//	cli, err := fxclient.New(ctx, &fxcrm.Config{
//	  AppID:         "FSAID_...",
//	  AppSecret:     "...",
//	  PermanentCode: "...",
//	  OpenUserID:    "FSUID_...",
//	})
//	if err != nil { log.Fatal(err) }
//
// # Queries and pagination
//
// Query returns a Cursor with its first page loaded. The cursor keeps
// requesting pages while the server reports total > offset + limit:
//
//	cursor, err := fxcrm.Query(ctx, cli, fxcrm.QueryOptions{APIName: "AccountObj", Limit: 50})
//	if err != nil { /* handle error */ }
//	for account, err := range cursor.All(ctx) {
//	  if err != nil { break }
//	  _ = account
//	}
//
// Lower-level access is available through NewRequestBuilder for any node/endpoint
// pair, and through Caller.Call for literal URLs.
//
// # Errors
//
// AuthError, TransportError and APIError cover token failures, non-200
// responses and nonzero errorCode envelopes. IsAuthError, IsTransportError,
// IsAPIError and APIErrorCode branch on them. Nothing is retried.
//
// # Interceptors
//
// Request and response interceptors run around every HTTP exchange, token
// refreshes included: logging, curl dumps, Prometheus metrics and call
// events published to NATS.
package fxcrm

// Package fxclient provides the primary entry point for constructing a
// Fxiaoke CRM API client that implements the fxcrm.Client interface.
//
// It layers configuration, HTTP transport and corp access token management
// on top of the call contract, cursor and request builder defined in the
// fxcrm package.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/sharecrm-io/fxcrm/pkg/fxclient"
//	  "github.com/sharecrm-io/fxcrm/pkg/fxcrm"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := fxclient.New(ctx, &fxcrm.Config{
//	    AppID:         "FSAID_...",
//	    AppSecret:     "...",
//	    PermanentCode: "...",
//	    OpenUserID:    "FSUID_...",
//	    Debug:         true, // print every request as a curl command
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  account, err := fxcrm.Get(ctx, cli, "AccountObj", "5f0c...")
//	  if err != nil { log.Fatal(err) }
//	  log.Println(account["name"])
//	}
//
// Metrics and events
//
// Pass a fxcrm.MetricsCollector in Config.Metrics to record Prometheus
// metrics, and add fxcrm.EventInterceptor to Config.Interceptors to publish
// one event per HTTP exchange, for example to a *nats.Conn.
//
// Defaults
//
// APIRoot is https://open.fxiaoke.com/cgi/crm, AuthRoot is
// https://open.fxiaoke.com/cgi, APIVersion is v2 and Timeout is 30 seconds.
// SetAsDefault registers the client with fxcrm.SetDefault.
package fxclient

// Package twitter is a client for the v1.1 user timeline endpoint.
//
// The client authenticates with an app bearer token, keeps requests inside
// the configured rate limit and retries transient failures. Responses are
// decoded into Tweet values, which satisfy normalize.RawPost, and HTTP
// failures are mapped to the typed errors of pkg/errors:
//
//	401, 403  auth
//	404       not_found
//	429       rate_limit (retried)
//	5xx       server_error (retried)
//	bad JSON  parse
//
// Example usage:
//
//	client, err := twitter.NewClient(cfg, log)
//	if err != nil {
//		return err
//	}
//	page, err := client.FetchPage(ctx, "NASA", 200, nil)
//	if errors.IsType(err, errors.ErrorTypeAuth) {
//		// token rejected
//	}
package twitter

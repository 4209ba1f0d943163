// Package httpclient provides the HTTP transport used by remote content
// loaders.
//
// Built on go-resty/resty over a hashicorp/go-retryablehttp transport:
//   - retries with exponential backoff on connection errors and 5xx
//   - a token bucket rate limiter per client
//   - a circuit breaker so a dead host fails fast
//   - bounded response bodies
//
// Example Usage:
//
//	client := httpclient.New(httpclient.DefaultConfig(), logger)
//	resp, err := client.Get(ctx, "https://example.com/")
package httpclient

// Package httpclient provides the outbound HTTP client used for remote
// lookups. It is resty over the pooled go-retryablehttp transport, with
// sonic handling JSON. Deadlines come from the caller's context.
package httpclient

// Package middleware provides the HTTP middleware hotghost's API server
// wraps its router in.
//
// It includes:
//   - Request IDs (X-Request-ID) so generation logs can be tied to a request
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labeled by mux route template
//   - Upload size limits for the multipart generation endpoints
//   - gzip compression for JSON and text responses; generated media is
//     already compressed and passes through untouched
package middleware

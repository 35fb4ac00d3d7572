// Package handlers provides the HTTP API of the hotghost server.
//
// It includes handlers for:
//   - Confusable text substitution
//   - Still image and video generation from multipart uploads
//   - Downloading and releasing held video results
//   - Template and effect parameter catalogs
//   - Engine state, generation history stats, health and version
//
// Generation endpoints never queue: a request that arrives while another
// generation runs gets 503 with Retry-After.
package handlers

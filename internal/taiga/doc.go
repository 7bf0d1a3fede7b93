// Package taiga is a typed client for the Taiga v1 REST API implementing
// storage.Backend.
//
// Authentication uses Taiga's "normal" login (POST /auth with username and
// password). The returned token is cached by TokenProvider and shared by
// concurrent requests; a 401 response drops it so the next request logs in
// again. Failed requests are never retried.
//
// List endpoints are requested with pagination disabled, so every story or
// task of a project comes back in one response.
package taiga

// Package server implements the HTTP surface of GoChat.
//
// The chat core lives in package chat; this package turns REST calls into
// hub operations and streams each user's events over Server-Sent Events or
// WebSocket. Configuration, origin checks, rate limiting, routing and
// server construction each live in their own file.
package server

// Package musicgpt implements the client side of the MusicGPT generation
// backend: the duplex WebSocket event stream and the HTTP artifact download
// endpoint.
package musicgpt

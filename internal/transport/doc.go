// Package transport builds the HTTP clients used to reach the scraping
// service and the language model.
//
// Every outbound request of intelscan goes through a client created here, so
// per-call timeouts, the optional SOCKS5 proxy and the User-Agent header are
// configured in exactly one place.
package transport

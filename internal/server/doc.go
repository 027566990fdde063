// Package server implements the clock's single-client HTTP server.
//
// The server holds a listening socket and serves exactly one connection at a
// time: accept, read one request with the protocol package, dispatch it, write
// one reply, close, and accept again. There is no keep-alive and no
// concurrent serving; a second client waits in the listen backlog until the
// first has been closed.
//
// # Connection Handling
//
// Each accepted connection is wrapped in a Session. The Acceptor keeps at most
// one Session and tears it down before accepting the next, so a connection
// can never leak into the next cycle. Teardown is idempotent.
//
// Requests are handled as follows:
//   - GET or POST that parsed within limits: passed to the Dispatcher and the
//     returned Response is written
//   - Any other method: read to the end of the headers, then the connection is
//     closed without a reply
//   - Oversized or malformed input: answered with an empty 404
//   - Peer closed or read deadline expired: closed without a reply
//
// A Response may carry an OnSent hook. It runs after the reply has been
// written and the connection closed; the reboot page uses it.
//
// # Usage Example
//
//	config := server.DefaultConfig()
//	config.Port = 8080
//
//	srv, err := server.New(config, router)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Run blocks until ctx is cancelled or Stop is called
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Cancellation
//
// Cancelling the context expires the deadlines on the listener and on the
// active connection. Blocked accepts and reads return at once and the serving
// goroutine closes the socket itself.
package server

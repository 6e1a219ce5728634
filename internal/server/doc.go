// Package server implements the LDAP inspector: a TCP listener that decodes
// every LDAP message a client sends and answers without touching a directory.
//
// Each accepted connection runs its own message loop over a stream.Reader,
// so requests may arrive fragmented or pipelined:
//
//	srv := server.New(server.Config{Address: "127.0.0.1:3890"}, logger)
//	err := srv.ListenAndServe(ctx)
//
// The loop handles operations as follows:
//
//   - UnbindRequest closes the connection.
//   - AbandonRequest is logged and ignored.
//   - A request that has a response is decoded with its operation grammar
//     and answered with unwillingToPerform, or with the result code of the
//     decode error when the operation is malformed.
//   - A message that cannot be decoded, or a response sent by the client,
//     is answered with a Notice of Disconnection carrying protocolError,
//     after which the connection is closed.
//
// Cancelling the context passed to ListenAndServe stops the listener and
// closes every open connection.
package server

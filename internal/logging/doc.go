// Package logging provides structured logging for the codec tools and the
// inspector server.
//
// Logger is a small key-value interface backed by zerolog:
//
//	log, closer, err := logging.New(logging.Config{Level: "debug", Format: "json", Output: "codec.log"})
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
//	log.Info("message decoded", "grammar", "LDAPMessage", "bytes", 42)
//
// The text format uses zerolog's console writer; the json format writes one
// object per line with "time", "level" and "message" keys. Connection-scoped
// loggers carry a request ID:
//
//	connLog := log.WithRequestID(logging.GenerateRequestID())
//
// Codec packages (ber, grammar, encode, ldap, kerberos) never log.
package logging

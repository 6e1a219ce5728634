// Package ldap implements LDAP protocol message parsing and encoding
// as specified in RFC 4511.
//
// Messages are decoded with the grammars of this package and the resumable
// engine in internal/grammar, and encoded through internal/encode.
//
// # Message Structure
//
// All LDAP messages follow the LDAPMessage envelope structure:
//
//	LDAPMessage ::= SEQUENCE {
//	    messageID       MessageID,
//	    protocolOp      CHOICE { ... },
//	    controls        [0] Controls OPTIONAL
//	}
//
// MessageGrammar keeps the protocol operation as a RawOperation and decodes
// the controls. Operations are decoded on demand:
//
//	msg, err := ldap.ParseLDAPMessage(data)
//	if err != nil {
//	    // reply with protocolError
//	}
//	switch msg.OperationType() {
//	case ldap.ApplicationBindRequest:
//	    req, err := ldap.ParseBindRequest(msg.Operation.Data)
//	    // handle bind request
//	case ldap.ApplicationDelRequest:
//	    req, err := ldap.ParseDeleteRequest(msg.Operation.Data)
//	    // handle delete request
//	}
//
// Streams carrying several messages, or messages split across reads, are
// decoded with grammar.Decode and MessageGrammar directly.
//
// # Supported Operations
//
//   - Bind (APPLICATION 0)
//   - Unbind (APPLICATION 2)
//   - Modify (APPLICATION 6)
//   - Add (APPLICATION 8)
//   - Delete (APPLICATION 10)
//   - ModifyDN (APPLICATION 12)
//   - Compare (APPLICATION 14)
//   - Abandon (APPLICATION 16)
//   - every LDAPResult response, including ExtendedResponse
//
// Search requests are carried as RawOperation only.
//
// # Encoding
//
// Requests and responses implement encode.Marshaler. NewMessage wraps one in
// an envelope:
//
//	msg, err := ldap.NewMessage(7, &ldap.Response{
//	    Type:       ldap.ApplicationBindResponse,
//	    LDAPResult: ldap.NewSuccessResult(),
//	})
//	buf, err := msg.Encode()
//
// # References
//
//   - RFC 4511: LDAP Protocol
//   - RFC 2696: Simple Paged Results Manipulation
package ldap

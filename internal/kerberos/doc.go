// Package kerberos decodes and encodes the Kerberos V5 structures exchanged
// during SASL/GSSAPI binds (RFC 4120).
//
// Every field is wrapped in an explicit context tag, KerberosString is a
// GeneralString and KerberosTime a GeneralizedTime in UTC:
//
//	PrincipalName   ::= SEQUENCE {
//	        name-type       [0] Int32,
//	        name-string     [1] SEQUENCE OF KerberosString
//	}
//
// Nested structures are decoded by embedding their grammar, so
// AuthenticatorGrammar reuses PrincipalNameGrammar, ChecksumGrammar,
// EncryptionKeyGrammar and AuthorizationDataGrammar. Encrypted parts are
// carried as opaque ciphertext; this package does not decrypt.
//
// OPTIONAL fields follow the convention of gokrb5: an integer field left at
// zero and a nil pointer or slice are omitted on encode and reported as zero
// when absent on decode.
package kerberos

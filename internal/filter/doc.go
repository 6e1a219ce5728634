// Package filter implements LDAP search filters (RFC 4511 Section 4.5.1).
//
// A Filter is a tree of AND, OR and NOT nodes over attribute assertions:
// equality, substring, ordering, presence, approximate and extensible
// match. Filters have two representations:
//
//   - BER, decoded incrementally by Grammar and encoded by MarshalBER. The
//     grammar is recursive: the children of AND, OR and NOT are decoded as
//     nested Filters, each level counting against the decoder's depth
//     limit.
//   - The RFC 4515 string form, produced by String and read by Parse.
//
// Example:
//
//	f, err := filter.Parse("(&(objectClass=person)(cn=ali*))")
//	if err != nil {
//	    return err
//	}
//	data, err := encode.Encode(f)
//
//	g, err := filter.Decode(data)
//	fmt.Println(g) // (&(objectClass=person)(cn=ali*))
package filter

// Package encode implements the two-pass BER encoder.
//
// A message is first described as a tree of Nodes. ComputeLength walks the
// tree bottom-up and records every value length; EncodeTo then writes the
// tree top-down into a buffer of exactly the computed size. Lengths are
// always in definite, minimal form, and every constructed length equals the
// sum of its children's encoded sizes.
//
//	n := encode.Sequence(
//	    encode.Integer(1),
//	    encode.Explicit(0, encode.GeneralString("EXAMPLE.COM")),
//	)
//	buf, err := encode.EncodeNode(n)
//
// Message types implement Marshaler and are encoded with Encode.
package encode

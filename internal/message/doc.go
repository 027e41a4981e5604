// Package message defines the envelope exchanged with the cortile binary and
// the recursively typed Value carried in its payload.
//
// Every invocation of the binary prints one JSON object of the form
//
//	{"Process": 123, "Time": 1700000000000, "Type": "Property", "Name": "Windows", "Data": {...}}
//
// Parse turns captured output into an Envelope. It never fails: output that
// is not a JSON envelope is folded into a locally synthesized Error envelope.
package message

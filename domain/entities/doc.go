// Package entities provides the core data model shared by every layer of the
// call gate: the element-type tag of a host value, the host value itself, and
// the structured error detail reported back across the boundary.
//
// A Value is the host's representation of one call argument. Numeric and
// logical values own (or borrow) a single contiguous column-major buffer;
// typed views over that buffer are produced by the marshal package and never
// outlive the call that created them.
package entities

// Package marshal turns host values into typed views and back.
//
// Every read checks the element class first, then the dimensionality, then
// the size, and only then reinterprets the host buffer as a []T. Reads never
// widen implicitly: ToVec[float64] of an int32 array is a BadType error. The
// As* getters are the converting counterpart and go through Convert, which
// refuses any conversion that would change the value.
//
// Views alias host storage and are valid only for the call that produced them.
package marshal

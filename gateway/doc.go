// Package gateway routes host calls to wrapped Go objects.
//
// A wrapped type is described once with a Class: a constructor plus named
// instance and static methods. New turns that description into a Gateway,
// whose Call method is the single entry point the host uses:
//
//	"@new", args...           constructs an object, returns its handle token
//	"@delete", token          destroys the object behind token
//	"@static", name, args...  runs a static method
//	name, token, args...      runs an instance method on the object behind token
//
// Every failure, including a panic inside a method, comes back from Call as
// a single *errors.BoundaryError and no outputs.
//
// Example usage:
//
//	cls := gateway.NewClass("Counter", newCounter).
//	    Method("inc", (*Counter).inc).
//	    Static("version", version)
//	gw, err := gateway.New(cls, gateway.WithLogger(logger))
package gateway

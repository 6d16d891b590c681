// Package registry holds the bindings exposed to the managed side.
//
// Classes are registered during package initialization together with their
// function, field and enum bindings. The load step walks the registry once
// and freezes it; after Freeze every mutation fails with a frozen error and
// reads take no locks.
//
// Each Class can describe itself as a list of stub declarations, which is
// what a source generator needs to emit the managed counterpart:
//
//	for _, d := range class.Declarations() {
//		fmt.Println(d)
//	}
//	// public static native int add(int arg0, int arg1);
//	// public native void close();
package registry

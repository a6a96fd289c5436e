// Package loop implements the owner loop: a single goroutine that runs posted
// tasks in FIFO order.
//
// ARCHITECTURE:
//
// Work that arrives on arbitrary goroutines (backend listener callbacks, write
// completions) is handed to the owner loop with Post. The loop's Run method
// executes tasks one at a time, so state touched only from tasks needs no
// further coordination between writers.
//
// A Loop can also be pumped manually with Drain. Tests use this to control
// exactly when posted work becomes visible.
//
// Both the sync core (one loop per store or per host) and the in-process
// backends (one loop per backend, standing in for the SDK's callback thread)
// are built on this package.
package loop

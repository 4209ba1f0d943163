// Package loader defines how frames obtain content for an address.
//
// A Loader runs off the control goroutine and must honour context
// cancellation. This package holds the contract and the in-process
// loaders:
//   - Func adapts a plain function
//   - Static serves an in-memory table, for built-in pages and tests
//   - Router dispatches by glob pattern over the address
//
// Network and filesystem loaders live in package source.
package loader

// Package internal holds small helpers shared by the Engine and the store
// implementations.
//
// # What this package must NOT do
//
//   - Import trybeauth or any store package.
//   - Hold state.
package internal

// Package internal contains helper utilities that are intentionally private
// to accessgate, currently secure session-identifier generation.
//
// # What this package must NOT do
//
//   - Export types that appear in the public accessgate API.
//   - Be imported by any package outside the accessgate module.
package internal

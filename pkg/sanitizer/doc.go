// Package sanitizer provides input normalization for user-facing text fields.
//
// All normalization functions are idempotent - applying them multiple times
// produces the same result. Functions handle invalid input gracefully,
// returning empty strings rather than errors.
//
// Normalization includes:
//   - Free text (titles, notes): collapse whitespace runs, trim leading/trailing spaces
//   - Usernames: whitespace normalization plus a lowercase uniqueness key
package sanitizer

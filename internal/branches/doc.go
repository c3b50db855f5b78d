// Package branches groups the branch-level policies applied to working copies.
//
// Subpackage reconcile brings every local branch that tracks an upstream in
// line with it, fast-forwarding the checked-out branch only when its working
// tree is clean and moving other branch refs without a checkout.
package branches

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match links grade-rating records to review records that describe
// the same instructor.
//
// The two sources share no identifier, only names written in different
// formats. Resolve normalizes every source name into a key (see package
// names) and then runs four tiers over two shrinking pools of unmatched
// entries, in a fixed order:
//
//  1. Exact: keys equal on both sides.
//  2. Fuzzy: for each remaining ratings key, the single best review key by
//     similarity score, subject to a threshold and a length guard. First
//     seen wins ties.
//  3. Structural: keys with middle tokens against their first+last form,
//     ratings side first, then review side.
//  4. Transposition: two-token ratings keys against their reversed form.
//
// Each tier runs to completion before the next starts, and a key consumed
// by one tier is never seen by a later one. Everything still in a pool at
// the end is reported as unmatched for that side.
//
// Matched records merge review fields with ratings fields laid over them, so
// ratings values win any conflict. The canonical key of a match is always
// the review-side key.
//
// Resolution is synchronous, does no I/O, and never fails: malformed names
// normalize to the empty key, which no tier will match. The fuzzy tier costs
// O(|ratings| x |review|) score evaluations; the other tiers are linear.
package match

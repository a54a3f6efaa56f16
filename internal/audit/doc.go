// Package audit maintains the append-only mutation log and its
// optional hash-chain tamper evidence.
//
// Invariants enforced here:
//   - The log only ever grows by suffix-appending; ValidateAppendOnly
//     rejects any shorter or rewritten log before it can be persisted.
//   - In hash_chain mode each appended entry carries
//     hash = H(entry content + prev_hash), where prev_hash is the hash
//     of the most recently hashed entry. Entries appended before the
//     mode was activated carry no hash and are excluded from the chain
//     rather than breaking it.
//   - Verification reports violations; it never repairs them.
package audit

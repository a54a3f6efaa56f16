// Package policy evaluates precedence-ordered authorization rules
// against transition requests.
//
// A policy document carries a version and an ordered rule list. Rules
// belong to one of five domains with fixed precedence:
//
//	constitutional > governance > risk > capability > environment
//
// Evaluation walks domains in precedence order, document order within
// a domain. The first applicable rule at the highest-precedence domain
// is decisive: a deny stops evaluation immediately (denial wins over
// any lower-precedence allow); an allow lets evaluation continue
// recording trace entries for lower domains without reversing the
// allow. No applicable rule at all means default allow.
//
// Malformed documents fail closed: the decoder rejects them with a
// specific diagnostic and every transition they would govern is denied.
//
// After a native allow, an optional external decision embedded in state
// (opa_adapter_result) may be consulted; the external call itself is an
// out-of-core collaborator.
package policy

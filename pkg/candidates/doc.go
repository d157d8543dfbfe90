/*
Package candidates defines the request and proposal contract of the candidate
generation service.

A Request asks a strategy for new candidates synchronously. A Proposal is the
same request tracked asynchronously through a small lifecycle:

	CREATED ──claim──▶ CLAIMED ──finish──▶ FINISHED
	   │                  │
	   └──────fail────────┴────fail──────▶ FAILED

Both are value objects. Construction (NewRequest, NewProposal, or decoding JSON)
always runs full validation and either returns a valid instance or a
*domain.ValidationError listing every failed field. Lifecycle transitions never
mutate a Proposal in place; Claim, Finish and Fail return a new, re-validated
copy with LastUpdatedAt set to the transition time.
*/
package candidates

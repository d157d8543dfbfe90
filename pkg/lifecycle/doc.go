/*
Package lifecycle orchestrates proposals through their lifecycle on top of a
ports.ProposalStore.

A Manager submits proposals, then claims, finishes and fails them by loading
the current version, applying the transition and saving the result while it
holds a per-proposal lock. The lock is a local mutex and, when a
ports.DistributedLocker is configured, a distributed lock as well, so that the
CREATED to CLAIMED step is atomic across replicas.
*/
package lifecycle

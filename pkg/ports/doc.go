/*
Package ports defines the driven ports (interfaces) of the proposal service.

These interfaces decouple the lifecycle manager from external implementations,
allowing it to work with various storage backends and lock providers.

# Key Interfaces

  - ProposalStore: Responsible for persisting and loading proposals by ID.
  - DistributedLocker: Provides distributed locking so that a proposal is claimed by one worker only.
*/
package ports

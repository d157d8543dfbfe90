/*
Package proposer validates and tracks requests for new experimental candidates.

A client describes a design space (the domain) and a strategy, optionally
with prior experiments, and asks for n candidates. The request can be
answered synchronously, or submitted as a proposal that moves through
CREATED, CLAIMED and then FINISHED or FAILED while a worker generates the
candidates.

# Usage

	cfg, err := proposer.LoadConfig("proposer.yaml")
	if err != nil {
		log.Fatal(err)
	}

	svc, err := proposer.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer svc.Close()

	id, err := svc.Manager.Submit(ctx, proposal)

Serve exposes the JSON API and, when enabled, runs the background worker
until the context is cancelled.

# Storage

Proposals are kept in memory by default. The file, sqlite and redis drivers
persist them across restarts; with redis, replicas can share one store and
coordinate claims through a distributed lock.
*/
package proposer

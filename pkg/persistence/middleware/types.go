// Package middleware decorates proposal stores.
package middleware

import "github.com/aretw0/proposer/pkg/ports"

// Middleware allows wrapping a ProposalStore to add behavior.
type Middleware func(ports.ProposalStore) ports.ProposalStore

// Chain applies middlewares so that the first one is the outermost.
func Chain(store ports.ProposalStore, mws ...Middleware) ports.ProposalStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

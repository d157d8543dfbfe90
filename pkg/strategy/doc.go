/*
Package strategy holds the optimization strategies that turn a validated request
into candidates.

Strategies are registered by name in a Registry. The registry selects one by
the strategy descriptor's type, runs it and checks the result against the
domain and the requested count before returning it.

The built-in "random" strategy samples every input feature uniformly. Its
params accept an optional integer "seed" for reproducible output.
*/
package strategy

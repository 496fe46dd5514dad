// Package client wraps an ai.Provider with request defaults (model, system
// prompt, generation parameters) and a send middleware chain. The chain is
// how timeouts, retries, logging and observability are layered around the
// single service call the extraction pipeline makes.
package client

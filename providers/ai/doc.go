// Package ai defines the provider-agnostic request and response types used to
// talk to a text-generation service, and the [Provider] interface every
// adapter implements. Adapters live in the openai and ollama subpackages.
package ai

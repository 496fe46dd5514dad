// Package openai implements ai.Provider against the OpenAI-compatible
// /chat/completions endpoint. Besides the OpenAI API itself this covers
// OpenRouter and Ollama's /v1 compatibility layer.
//
// Credentials and endpoint default to OPENAI_API_KEY and OPENAI_API_BASE_URL.
// Reasoning emitted inside <think> tags is moved out of the content into
// ChatResponse.Reasoning.
package openai

// Package openai implements the ai interfaces against OpenAI-compatible APIs.
//
// Both the hosted OpenAI API and local OpenAI-compatible servers (Ollama,
// LocalAI, vLLM) are supported; the latter accept any token, so an empty
// configured token is sent as "none". Clients are built with langchaingo.
package openai

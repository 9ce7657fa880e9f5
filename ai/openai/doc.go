// Package openai implements ai.Embedder over OpenAI-compatible
// embedding APIs, including local servers such as Ollama.
package openai

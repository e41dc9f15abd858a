// Package llm provides a provider-neutral abstraction layer for Large Language Model (LLM) APIs.
//
// This package defines common types, interfaces, and utilities that allow the chat
// service to talk to OpenAI, Gemini, Claude, Grok, DeepSeek, Mistral, Together-hosted
// models and a local Ollama daemon without being tightly coupled to any provider SDK.
//
// # Core Concepts
//
//  1. Messages: a Message is a role (user, assistant, system) and its plain text.
//
//  2. Client Interface: The Client interface provides Synchronous() for single-shot calls.
//     Implementations under llm/openai, llm/anthropic, llm/gemini and llm/ollama handle
//     the provider-specific details.
//
//  3. ChatClient: ChatClient binds a Client to one provider's model identifier, token
//     budget and temperature. It turns a prompt plus bounded history into a Request and
//     normalizes the Response into a single reply string with ReplyText.
//
//  4. Registry: Registry maps route names ("gpt", "claude", ...) to ChatClients. It is
//     built once at startup and never mutated.
//
//  5. Middleware: a Middleware wraps one Client in another. Chain composes them so
//     logging can be added without touching provider implementations.
//
//  6. Errors: The Error type provides provider-neutral error handling. A ChatClient
//     without credentials fails with KindNotConfigured before any network call;
//     SDK failures surface as provider errors carrying the display name.
//
// Usage Example
//
//	base := openai.NewClient(apiKey, "", "", logger)
//	chat := llm.NewChatClient("gpt", "ChatGPT", "gpt-4o-mini", 512, 0.7,
//	    llm.Chain(base, llm.WithLogging(logger, "gpt")))
//
//	reply, err := chat.GetReply(ctx, "", "Hello!", history)
//
// # Extension Points
//
// To add a new LLM provider:
//  1. Implement the Client interface
//  2. Translate between provider-specific types and llm package types
//  3. Handle provider-specific errors and translate to llm.Error types
//  4. Register a ChatClient for it when building the Registry
package llm

// Package model defines the provider-agnostic abstractions for the
// chat-completion call that drives the assistant.
//
// Core goals:
//   - Normalize tool / function call representation (ToolDefinition, ToolCall)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI, Anthropic) implement the Model interface from this
// package so the assistant layer remains decoupled from vendor SDKs. The
// backend deliberately exposes only non-streaming generation; responses are
// returned whole once the completion finishes.
package model

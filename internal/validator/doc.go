// Package validator judges call transcripts against checklist criteria.
//
// Validator is the port the debrief orchestrator depends on. Each method
// corresponds to one judgment category and returns a typed result decoded
// strictly from the backend's JSON response: a missing key or a value of the
// wrong shape is a *ServiceError wrapping ErrMalformedResponse, never a
// silent default.
//
// LLMValidator implements Validator over a Completer. Two completers are
// provided, OpenAI through langchaingo and Anthropic over HTTP. Both are
// wrapped by NewResilientCompleter, which rate limits every call and retries
// transport failures (network errors, 429, 5xx) with exponential backoff.
// Responses that parse but disagree with expectations are never retried.
package validator

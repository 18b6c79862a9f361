// Package proxy relays AI-agent calls to LLM providers and records each
// exchange as audit evidence.
//
// Agents point their SDK base URL at /proxy/{provider} (openai, anthropic or
// groq) and identify themselves with X-Agent-ID and, optionally,
// X-Session-ID. For every call the proxy:
//
//  1. reads the request body and extracts prompt, model and token fields
//  2. forwards it upstream, passing only Content-Type from the client and
//     substituting the configured provider credentials
//  3. relays the upstream status, headers and body unchanged
//  4. extracts the completion text, output tokens and tool calls and hands
//     one Interaction to the recorder
//
// Calls whose request body is not a JSON object are relayed but not
// recorded. A recording failure is logged and never changes the response
// the agent receives. Unknown providers get 400 and a provider without a
// configured key gets 500, both as {"detail": "..."}.
//
// Streaming responses are relayed after the upstream completes; the proxy
// does not interpret the provider protocol beyond the fields above.
package proxy

// Package auth protects the management API with HMAC-signed JWT bearer
// tokens.
//
// Authentication is optional and off by default. When enabled, every /api
// request must carry "Authorization: Bearer <token>" where the token is
// HS256-signed with the configured secret, has a subject and an expiry, and,
// if an issuer is configured, a matching iss claim. The proxy routes are
// never wrapped: agents authenticate with X-Agent-ID only.
//
// Tokens can be minted with JWTValidator.Issue or the "agentguard token"
// command.
package auth

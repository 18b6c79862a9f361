// Package api implements the AgentGuard management REST API.
//
// Routes are registered on a gorilla/mux router:
//
//	POST   /api/agents/register
//	GET    /api/agents/
//	GET    /api/agents/{id}
//	DELETE /api/agents/{id}
//	GET    /api/audit/{agent_id}
//	GET    /api/audit/{agent_id}/stats
//	POST   /api/compliance/check
//	GET    /api/compliance/{agent_id}/history
//	GET    /api/dashboard/summary
//	POST   /api/reports/generate
//	GET    /api/reports/{id}/download
//
// Errors are returned as {"detail": "..."}. Invalid input maps to 422, a
// missing resource to 404 and everything else to 500 with a fixed message.
package api

package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/miosalud/miosync/internal/session"
)

// SessionStatusTool handles the session_status MCP tool.
type SessionStatusTool struct {
	sess *session.Store
}

// NewSessionStatusTool creates a SessionStatusTool over the session store.
func NewSessionStatusTool(sess *session.Store) *SessionStatusTool {
	return &SessionStatusTool{sess: sess}
}

// Definition returns the MCP tool definition for registration.
func (t *SessionStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("session_status",
		mcp.WithDescription(
			"Report the current session: whether the patient is "+
				"authenticated, the hydration state, and the patient id. "+
				"Never includes credentials or the token.",
		),
	)
}

// Handle processes the session_status tool call.
func (t *SessionStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !t.sess.Authenticated() {
		return mcp.NewToolResultText(
			"Sin sesión activa. El paciente debe iniciar sesión."), nil
	}

	cur := t.sess.Current()
	response := fmt.Sprintf(
		"# Estado de Sesión\n\n"+
			"- Paciente: %s\n"+
			"- Estado: %s\n"+
			"- Patient ID: %d\n"+
			"- Health Plan ID: %d\n",
		cur.DisplayName(), t.sess.State(), cur.PatientID, cur.HealthPlanID,
	)
	return mcp.NewToolResultText(response), nil
}

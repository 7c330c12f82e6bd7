package service

import (
	"fmt"
	"time"

	"github.com/louisbranch/ha-diag/internal/platform/logging"
	"github.com/louisbranch/ha-diag/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "home-automation-diagnostics"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

const (
	mcpEntityToolsModuleName     = "entity-tools"
	mcpServiceToolsModuleName    = "service-tools"
	mcpAutomationToolsModuleName = "automation-tools"
	mcpSystemToolsModuleName     = "system-tools"
)

type mcpRegistrationModule struct {
	name     string
	register func(mcpRegistrationTarget) error
}

type mcpServerRegistrationAdapter struct {
	server *mcp.Server
}

func (r mcpServerRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	return addMCPTool(r.server, tool, handler)
}

type mcpToolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any)
}

func newMCPToolRegistrar[I any, O any]() mcpToolRegistrar {
	return mcpToolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any) {
			mcp.AddTool(server, tool, handler.(mcp.ToolHandlerFor[I, O]))
		},
	}
}

var mcpToolRegistrars = []mcpToolRegistrar{
	newMCPToolRegistrar[domain.EntityInput, domain.GetStateResult](),
	newMCPToolRegistrar[domain.EntityInput, domain.DiagnoseEntityResult](),
	newMCPToolRegistrar[domain.FindEntitiesInput, domain.FindEntitiesResult](),
	newMCPToolRegistrar[domain.ListEntitiesInput, domain.ListEntitiesResult](),
	newMCPToolRegistrar[domain.NoInput, domain.ListServicesResult](),
	newMCPToolRegistrar[domain.DiagListServicesInput, domain.DiagListServicesResult](),
	newMCPToolRegistrar[domain.NoInput, domain.HostInfoResult](),
	newMCPToolRegistrar[domain.ListRepairsInput, domain.ListRepairsResult](),
	newMCPToolRegistrar[domain.DiagnoseAutomationInput, domain.DiagnoseAutomationResult](),
	newMCPToolRegistrar[domain.AutomationInput, domain.AutomationConfigResult](),
	newMCPToolRegistrar[domain.YAMLSnippetInput, domain.YAMLSnippetResult](),
	newMCPToolRegistrar[domain.AutomationInput, domain.YAMLDefinitionResult](),
}

func addMCPTool(server *mcp.Server, tool *mcp.Tool, handler any) error {
	for _, registrar := range mcpToolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler)
			return nil
		}
	}
	toolName := "<nil>"
	if tool != nil {
		toolName = tool.Name
	}
	return fmt.Errorf("mcp registration adapter does not support handler type %T for tool %q", handler, toolName)
}

// Dependencies are the collaborators the tool handlers run against.
type Dependencies struct {
	// HomeAssistant serves every Home Assistant read and the event bus.
	HomeAssistant domain.HomeAssistant
	// YAMLDefinitions resolves YAML-managed automations. Nil makes the
	// YAML definition tool report that no add-on URL is configured.
	YAMLDefinitions domain.YAMLDefinitionFetcher
	Logger          *zap.Logger
	// Now overrides the clock used for diagnosis windows.
	Now func() time.Time
}

func newMCPRegistrationModules(deps Dependencies) []mcpRegistrationModule {
	return []mcpRegistrationModule{
		{
			name: mcpEntityToolsModuleName,
			register: func(registrar mcpRegistrationTarget) error {
				return registerEntityTools(registrar, deps.HomeAssistant)
			},
		},
		{
			name: mcpServiceToolsModuleName,
			register: func(registrar mcpRegistrationTarget) error {
				return registerServiceTools(registrar, deps.HomeAssistant, deps.Logger)
			},
		},
		{
			name: mcpAutomationToolsModuleName,
			register: func(registrar mcpRegistrationTarget) error {
				return registerAutomationTools(registrar, deps.HomeAssistant, deps.YAMLDefinitions, deps.Now)
			},
		},
		{
			name: mcpSystemToolsModuleName,
			register: func(registrar mcpRegistrationTarget) error {
				return registerSystemTools(registrar, deps.HomeAssistant)
			},
		},
	}
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	logger    *zap.Logger
}

// NewServer creates an MCP server with every diagnostic tool registered.
func NewServer(deps Dependencies) (*Server, error) {
	if deps.HomeAssistant == nil {
		return nil, fmt.Errorf("home assistant client is required")
	}
	deps.Logger = logging.OrNop(deps.Logger)

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	for _, module := range newMCPRegistrationModules(deps) {
		if err := module.register(mcpServerRegistrationAdapter{server: mcpServer}); err != nil {
			return nil, fmt.Errorf("register MCP module %q: %w", module.name, err)
		}
	}
	return &Server{mcpServer: mcpServer, logger: deps.Logger}, nil
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	if s == nil {
		return nil
	}
	return s.mcpServer
}

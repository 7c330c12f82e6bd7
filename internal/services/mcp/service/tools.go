package service

import (
	"fmt"
	"time"

	"github.com/louisbranch/ha-diag/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type mcpRegistrationTarget interface {
	AddTool(*mcp.Tool, any) error
}

func registerEntityTools(registrar mcpRegistrationTarget, client domain.HomeAssistant) error {
	if err := registerTool(registrar, domain.GetStateTool(), domain.GetStateHandler(client)); err != nil {
		return err
	}
	if err := registerTool(registrar, domain.DiagnoseEntityTool(), domain.DiagnoseEntityHandler(client)); err != nil {
		return err
	}
	if err := registerTool(registrar, domain.FindEntitiesTool(), domain.FindEntitiesHandler(client)); err != nil {
		return err
	}
	return registerTool(registrar, domain.ListEntitiesTool(), domain.ListEntitiesHandler(client))
}

func registerServiceTools(registrar mcpRegistrationTarget, client domain.HomeAssistant, logger *zap.Logger) error {
	if err := registerTool(registrar, domain.ListServicesTool(), domain.ListServicesHandler(client)); err != nil {
		return err
	}
	return registerTool(registrar, domain.DiagListServicesTool(), domain.DiagListServicesHandler(client, logger))
}

func registerAutomationTools(
	registrar mcpRegistrationTarget,
	client domain.HomeAssistant,
	fetcher domain.YAMLDefinitionFetcher,
	now func() time.Time,
) error {
	if err := registerTool(registrar, domain.DiagnoseAutomationTool(), domain.DiagnoseAutomationHandler(client, now)); err != nil {
		return err
	}
	if err := registerTool(registrar, domain.AutomationConfigTool(), domain.AutomationConfigHandler(client)); err != nil {
		return err
	}
	if err := registerTool(registrar, domain.YAMLSnippetTool(), domain.YAMLSnippetHandler(client)); err != nil {
		return err
	}
	return registerTool(registrar, domain.YAMLDefinitionTool(), domain.YAMLDefinitionHandler(fetcher))
}

func registerSystemTools(registrar mcpRegistrationTarget, client domain.HomeAssistant) error {
	if err := registerTool(registrar, domain.HostInfoTool(), domain.HostInfoHandler(client)); err != nil {
		return err
	}
	return registerTool(registrar, domain.ListRepairsTool(), domain.ListRepairsHandler(client))
}

func registerTool(registrar mcpRegistrationTarget, tool *mcp.Tool, handler any) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	return registrar.AddTool(tool, handler)
}

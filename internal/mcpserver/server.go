// Package mcpserver exposes generation and validation as Model Context
// Protocol tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/indusense/testgen/internal/config"
	"github.com/indusense/testgen/internal/generator"
	"github.com/indusense/testgen/internal/models"
	"github.com/indusense/testgen/internal/parser"
	"github.com/indusense/testgen/internal/prompts"
	"github.com/indusense/testgen/internal/validation"
)

// Tool names.
const (
	ToolGenerate      = "generate_procedure"
	ToolValidate      = "validate_procedure"
	ToolListPrompts   = "list_prompts"
	ToolProjectSchema = "project_schema"
)

// Recorder persists per-document metrics.
type Recorder interface {
	Record(ctx context.Context, m models.GenerationMetrics) (string, error)
}

// Deps holds the collaborators of the tool handlers.
type Deps struct {
	Config     *config.AppConfig
	Parsers    *parser.Registry
	Prompts    *prompts.Registry
	Generators func(providerName string) (*generator.Generator, error)
	Recorder   Recorder // nil disables recording
	Version    string
	Logger     logrus.FieldLogger
}

// Server wraps an MCP server with the procedure tools registered.
type Server struct {
	deps Deps
	mcp  *server.MCPServer
}

// New creates the server and registers every tool.
func New(deps Deps) *Server {
	s := &Server{
		deps: deps,
		mcp: server.NewMCPServer(
			"testgen",
			deps.Version,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
		),
	}
	s.addTools()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves on stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func testTypeNames() []string {
	var out []string
	for _, tt := range models.AllTestTypes() {
		out = append(out, string(tt))
	}
	return out
}

func (s *Server) addTools() {
	projectOpts := []mcp.ToolOption{
		mcp.WithString("project",
			mcp.Description("Project document as JSON, YAML or TOML text"),
		),
		mcp.WithString("project_file",
			mcp.Description("Path to a project file, used when project is empty"),
		),
	}

	generateOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Generate a test procedure document for a project"),
		mcp.WithString("test_type",
			mcp.Description("Kind of procedure to generate"),
			mcp.Enum(testTypeNames()...),
		),
		mcp.WithString("prompt_version",
			mcp.Description("Prompt template version, defaults to the configured one"),
		),
		mcp.WithString("provider",
			mcp.Description("Backend to use"),
			mcp.Enum("mock", "openai"),
		),
	}, projectOpts...)
	s.mcp.AddTool(mcp.NewTool(ToolGenerate, generateOpts...), s.handleGenerate)

	validateOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Validate a procedure document against its project"),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Procedure markdown"),
		),
		mcp.WithString("test_type",
			mcp.Description("Kind of procedure the content is"),
			mcp.Enum(testTypeNames()...),
		),
		mcp.WithBoolean("strict",
			mcp.Description("Also run strict validation, where warnings become errors"),
		),
	}, projectOpts...)
	s.mcp.AddTool(mcp.NewTool(ToolValidate, validateOpts...), s.handleValidate)

	s.mcp.AddTool(mcp.NewTool(ToolListPrompts,
		mcp.WithDescription("List the registered prompt template versions"),
	), s.handleListPrompts)

	s.mcp.AddTool(mcp.NewTool(ToolProjectSchema,
		mcp.WithDescription("Return the JSON schema of a project document"),
	), s.handleProjectSchema)
}

func (s *Server) handleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := s.project(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	testType, err := s.testType(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	gen, err := s.deps.Generators(req.GetString("provider", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := gen.Generate(ctx, project, testType, req.GetString("prompt_version", ""))
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return mcp.NewToolResultError("Project is invalid:\n- " + strings.Join(verr.Errors, "\n- ")), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Generation failed: %v", err)), nil
	}

	report := validation.ValidateAll(result.Content, project, testType)
	if s.deps.Recorder != nil {
		if _, err := s.deps.Recorder.Record(ctx, gen.Metrics(result, report)); err != nil {
			s.deps.Logger.WithError(err).Warn("Failed to record generation metrics")
		}
	}

	summary, err := json.MarshalIndent(map[string]interface{}{
		"metadata":   result.Metadata,
		"validation": report,
	}, "", "  ")
	if err != nil {
		return nil, err
	}

	out := mcp.NewToolResultText(result.Content)
	out.Content = append(out.Content, mcp.NewTextContent(string(summary)))
	return out, nil
}

func (s *Server) handleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil || strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("content is required"), nil
	}
	project, err := s.project(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	testType, err := s.testType(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := map[string]interface{}{
		"result": validation.ValidateAll(content, project, testType),
	}
	if req.GetBool("strict", false) {
		resp["strict"] = validation.ValidateStrict(content, project)
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleListPrompts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Default: %s\n", s.deps.Config.Generation.PromptVersion)
	for _, v := range s.deps.Prompts.Versions() {
		fmt.Fprintf(&b, "- %s: %s (%d chars)\n", v.Version, v.Description, v.TemplateLength)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleProjectSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := parser.ProjectSchemaJSON()
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) project(req mcp.CallToolRequest) (*models.Project, error) {
	if text := req.GetString("project", ""); strings.TrimSpace(text) != "" {
		return s.deps.Parsers.LoadBytes("project", []byte(text))
	}
	if path := req.GetString("project_file", ""); path != "" {
		return s.deps.Parsers.Load(path)
	}
	return nil, errors.New("project or project_file is required")
}

func (s *Server) testType(req mcp.CallToolRequest) (models.TestType, error) {
	raw := req.GetString("test_type", s.deps.Config.Generation.DefaultTestType)
	return models.ParseTestType(raw)
}

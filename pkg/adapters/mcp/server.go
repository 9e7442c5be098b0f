package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/dealreg"
	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/duplicate"
	"github.com/aretw0/dealreg/pkg/ports"
	"github.com/aretw0/dealreg/pkg/sanitize"
	"github.com/aretw0/dealreg/pkg/validation"
)

// StepsURI is the resource listing the wizard steps and their fields.
const StepsURI = "dealreg://steps"

// DraftInput is the argument shape of the draft-based tools.
type DraftInput struct {
	Draft map[string]any `json:"draft" jsonschema_description:"Draft fields keyed by field name"`
	Step  string         `json:"step,omitempty" jsonschema_description:"Limit validation to the fields of this step"`
}

// ValidateResponse is the result of validate_draft.
type ValidateResponse struct {
	Errors map[string]string `json:"errors" jsonschema_description:"Failed fields with their first error message"`
	Valid  bool              `json:"valid" jsonschema_description:"True when no field failed"`
}

// DuplicateInput is the argument shape of check_duplicates.
type DuplicateInput struct {
	CompanyName string `json:"company_name"`
	Domain      string `json:"domain"`
}

// DuplicateResponse is the result of check_duplicates.
type DuplicateResponse struct {
	Checked    bool               `json:"checked" jsonschema_description:"False when the query was too short to look up"`
	Candidates []domain.Candidate `json:"candidates" jsonschema_description:"Previously registered deals that may conflict"`
}

// PayloadResponse is the result of build_payload.
type PayloadResponse struct {
	Payload sanitize.Payload `json:"payload" jsonschema_description:"The submission record the draft would produce"`
}

// StepInfo describes one step for the steps resource.
type StepInfo struct {
	domain.Step
	Fields []string `json:"fields"`
}

// Server exposes the stateless wizard components as MCP tools.
type Server struct {
	lookup    ports.DuplicateLookup
	rules     validation.RuleSet
	validator *validation.Engine
	timeout   time.Duration
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithRules replaces the default rule set.
func WithRules(rules validation.RuleSet) Option {
	return func(s *Server) {
		s.rules = rules
	}
}

// WithClock sets the clock used for date rules.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.validator = validation.New(validation.WithClock(now))
	}
}

// WithLookupTimeout bounds check_duplicates. Non-positive values keep the default.
func WithLookupTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewServer creates a new MCP Server instance. A nil lookup disables check_duplicates.
func NewServer(lookup ports.DuplicateLookup, opts ...Option) *Server {
	s := &Server{
		lookup:    lookup,
		rules:     validation.DefaultRules(),
		validator: validation.New(),
		timeout:   duplicate.DefaultTimeout,
		mcpServer: server.NewMCPServer("dealreg-mcp", strings.TrimSpace(dealreg.Version),
			server.WithToolCapabilities(false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("validate_draft",
		mcp.WithDescription("Validate deal registration fields. Returns the first error message per failed field."),
		mcp.WithInputSchema[DraftInput](),
		mcp.WithOutputSchema[ValidateResponse](),
	), s.handleValidate)

	if s.lookup != nil {
		s.mcpServer.AddTool(mcp.NewTool("check_duplicates",
			mcp.WithDescription("Look up previously registered deals matching a company name or domain."),
			mcp.WithInputSchema[DuplicateInput](),
			mcp.WithOutputSchema[DuplicateResponse](),
		), s.handleDuplicates)
	}

	s.mcpServer.AddTool(mcp.NewTool("build_payload",
		mcp.WithDescription("Build the sanitized submission payload for a draft without submitting it."),
		mcp.WithInputSchema[DraftInput](),
		mcp.WithOutputSchema[PayloadResponse](),
	), s.handlePayload)
}

// draftFrom turns raw tool arguments into a typed draft.
func draftFrom(raw map[string]any) (domain.Draft, error) {
	var d domain.Draft
	clean, err := sanitize.Patch(raw)
	if err != nil {
		return d, err
	}
	if err := d.Apply(domain.Patch(clean)); err != nil {
		return d, err
	}
	return d, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input DraftInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid validate_draft arguments", err), nil
	}
	d, err := draftFrom(input.Draft)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("invalid draft", err), nil
	}

	rules := s.rules
	if input.Step != "" {
		if domain.IndexOf(domain.DefaultSteps(), input.Step) < 0 {
			return mcp.NewToolResultError(fmt.Sprintf("unknown step %q", input.Step)), nil
		}
		rules = validation.StepRules(rules, input.Step)
	}

	errs := s.validator.EvaluateDraft(rules, d)
	return mcp.NewToolResultStructuredOnly(ValidateResponse{
		Errors: errs,
		Valid:  errs.IsValid(),
	}), nil
}

func (s *Server) handleDuplicates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input DuplicateInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid check_duplicates arguments", err), nil
	}

	q := duplicate.Query{CompanyName: input.CompanyName, Domain: input.Domain}
	if !q.Armed() {
		return mcp.NewToolResultStructuredOnly(DuplicateResponse{Candidates: []domain.Candidate{}}), nil
	}

	lctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	candidates, err := s.lookup.Lookup(lctx, q.CompanyName, q.Domain)
	if err != nil {
		slog.Warn("MCP check_duplicates: lookup failed", "error", err)
		return mcp.NewToolResultErrorFromErr("duplicate lookup failed", err), nil
	}
	if candidates == nil {
		candidates = []domain.Candidate{}
	}
	return mcp.NewToolResultStructuredOnly(DuplicateResponse{Checked: true, Candidates: candidates}), nil
}

func (s *Server) handlePayload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input DraftInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid build_payload arguments", err), nil
	}
	d, err := draftFrom(input.Draft)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("invalid draft", err), nil
	}
	return mcp.NewToolResultStructuredOnly(PayloadResponse{Payload: sanitize.FromDraft(d)}), nil
}

// Steps returns the wizard steps with the fields edited on each.
func Steps() []StepInfo {
	steps := domain.DefaultSteps()
	out := make([]StepInfo, len(steps))
	for i, st := range steps {
		out[i] = StepInfo{Step: st, Fields: validation.StepFields(st.ID)}
	}
	return out
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StepsURI, "Wizard Steps",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(Steps())
		if err != nil {
			return nil, fmt.Errorf("failed to encode steps: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StepsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

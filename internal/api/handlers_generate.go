// handlers_generate.go - Generation and validation handlers
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/indusense/testgen/internal/config"
	"github.com/indusense/testgen/internal/currency"
	"github.com/indusense/testgen/internal/generator"
	"github.com/indusense/testgen/internal/models"
	"github.com/indusense/testgen/internal/parser"
	"github.com/indusense/testgen/internal/storage"
	"github.com/indusense/testgen/internal/validation"
)

const mimeMsgpack = "application/msgpack"

// GenerateHandlerImpl implements the GenerateHandler interface
type GenerateHandlerImpl struct {
	projectResolver
	cfg        *config.AppConfig
	generators GeneratorFactory
	metrics    MetricsStore
	rates      RateSource
	logger     logrus.FieldLogger
}

// NewGenerateHandler creates a new generate handler
func NewGenerateHandler(deps *Dependencies) GenerateHandler {
	return &GenerateHandlerImpl{
		projectResolver: projectResolver{store: deps.Store, parsers: deps.Parsers},
		cfg:             deps.Config,
		generators:      deps.Generators,
		metrics:         deps.Metrics,
		rates:           deps.Rates,
		logger:          deps.Logger,
	}
}

// HandleGenerate generates one procedure document, validates it and records
// its metrics. Responds with msgpack when asked to.
func (h *GenerateHandlerImpl) HandleGenerate(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	project, err := h.resolveProject(req.projectSource)
	if err != nil {
		return err
	}

	testType, err := h.testType(req.TestType)
	if err != nil {
		return err
	}

	gen, err := h.generators(req.Provider)
	if err != nil {
		return FromDomainError(err)
	}

	ctx := c.Request().Context()
	result, err := gen.Generate(ctx, project, testType, req.PromptVersion)
	if err != nil {
		return FromDomainError(err)
	}

	resp := generateResponse{
		Procedure: gen.Procedure(result),
		Metadata:  result.Metadata,
	}

	// Metrics are recorded whether or not validation ran; v stays zero when it did not.
	var v models.ValidationResult
	if h.cfg.Generation.EnableValidation {
		v = validation.ValidateAll(result.Content, project, testType)
		resp.Validation = &v

		if req.Strict || h.cfg.Generation.StrictValidation {
			strict := validation.ValidateStrict(result.Content, project)
			resp.StrictValidation = &strict
		}
	}

	if h.metrics != nil && h.cfg.Metrics.EnableMetricsDB {
		if _, err := h.metrics.Record(ctx, gen.Metrics(result, v)); err != nil {
			h.logger.WithError(err).Warn("Failed to record generation metrics")
		}
	}

	if h.rates != nil && h.cfg.Metrics.EnableCostTracking {
		eur, quote := h.rates.ToEUR(ctx, result.Metadata.CostUSD)
		resp.CostEUR = &eur
		resp.Rate = &quote
	}

	if wantsMsgpack(c) {
		return respondMsgpack(c, http.StatusOK, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleValidate runs the three validators over supplied content
func (h *GenerateHandlerImpl) HandleValidate(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	if strings.TrimSpace(req.Content) == "" {
		return NewValidationError("content")
	}

	project, err := h.resolveProject(req.projectSource)
	if err != nil {
		return err
	}

	testType, err := h.testType(req.TestType)
	if err != nil {
		return err
	}

	resp := validateResponse{
		Result: validation.ValidateAll(req.Content, project, testType),
	}
	if req.Strict {
		strict := validation.ValidateStrict(req.Content, project)
		resp.Strict = &strict
	}

	return c.JSON(http.StatusOK, resp)
}

// projectResolver loads a stored project by file ID or decodes an inline one.
type projectResolver struct {
	store   storage.Store
	parsers *parser.Registry
}

func (r projectResolver) resolveProject(src projectSource) (*models.Project, error) {
	switch {
	case src.ProjectID != "":
		p, err := r.store.Project(src.ProjectID)
		if err != nil {
			return nil, NewNotFoundError("project", src.ProjectID)
		}
		return p, nil
	case len(src.Project) > 0 && string(src.Project) != "null":
		p, err := r.parsers.LoadBytes("request.json", src.Project)
		if err != nil {
			return nil, FromDomainError(err)
		}
		return p, nil
	default:
		return nil, NewValidationError("project")
	}
}

func (h *GenerateHandlerImpl) testType(raw string) (models.TestType, error) {
	if raw == "" {
		raw = h.cfg.Generation.DefaultTestType
	}
	tt, err := models.ParseTestType(raw)
	if err != nil {
		return "", NewBadRequestError("unsupported test type", err)
	}
	return tt, nil
}

func wantsMsgpack(c echo.Context) bool {
	if c.QueryParam("format") == "msgpack" {
		return true
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), mimeMsgpack)
}

// respondMsgpack encodes v using its json tags so both formats share keys.
func respondMsgpack(c echo.Context, status int, v interface{}) error {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(status, mimeMsgpack, buf.Bytes())
}

// Request/Response types

type projectSource struct {
	ProjectID string          `json:"project_id"`
	Project   json.RawMessage `json:"project"`
}

type generateRequest struct {
	projectSource
	TestType      string `json:"test_type"`
	PromptVersion string `json:"prompt_version"`
	Provider      string `json:"provider"`
	Strict        bool   `json:"strict"`
}

type generateResponse struct {
	Procedure        *models.TestProcedure    `json:"procedure"`
	Metadata         generator.Metadata       `json:"metadata"`
	Validation       *models.ValidationResult `json:"validation,omitempty"`
	StrictValidation *models.ValidationResult `json:"strict_validation,omitempty"`
	CostEUR          *float64                 `json:"cost_eur,omitempty"`
	Rate             *currency.Quote          `json:"rate,omitempty"`
}

type validateRequest struct {
	projectSource
	Content  string `json:"content"`
	TestType string `json:"test_type"`
	Strict   bool   `json:"strict"`
}

type validateResponse struct {
	Result models.ValidationResult  `json:"result"`
	Strict *models.ValidationResult `json:"strict,omitempty"`
}

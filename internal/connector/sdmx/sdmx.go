package sdmx

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/nucleus/sdmx-core/internal/connector/http"
	"github.com/nucleus/sdmx-core/internal/core"
	"github.com/nucleus/sdmx-core/internal/endpoint"
)

// =============================================================================
// SDMX CONNECTOR
// Implements endpoint.SourceEndpoint, StructureCapable and DatasetCapable
// =============================================================================

// TemplateID is the registry identifier of the connector.
const TemplateID = "http.sdmx"

// Ensure interface compliance
var (
	_ endpoint.SourceEndpoint    = (*SDMX)(nil)
	_ endpoint.StructureCapable  = (*SDMX)(nil)
	_ endpoint.DatasetCapable    = (*SDMX)(nil)
	_ endpoint.StatisticalSource = (*SDMX)(nil)
)

// SDMX is the SDMX 2.1 REST connector.
type SDMX struct {
	*http.Base
	config *Config
	logger *slog.Logger
}

// Option customizes a connector.
type Option func(*options)

type options struct {
	auth   http.AuthConfig
	logger *slog.Logger
	client *http.ClientConfig
}

// WithAuth sets the authentication strategy. Public APIs need none.
func WithAuth(auth http.AuthConfig) Option {
	return func(o *options) { o.auth = auth }
}

// WithLogger sets the logger used by the connector and its HTTP client.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClientConfig overrides the HTTP client configuration (for tests/stubs).
// BaseURL is always taken from Config.
func WithClientConfig(cfg *http.ClientConfig) Option {
	return func(o *options) { o.client = cfg }
}

// New creates a new SDMX connector with the given configuration.
func New(config *Config, opts ...Option) (*SDMX, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	httpConfig := o.client
	if httpConfig == nil {
		httpConfig = http.DefaultClientConfig()
		httpConfig.Timeout = config.Timeout
		httpConfig.MaxRetries = config.MaxRetries
		httpConfig.RateLimit = config.RateLimit
		httpConfig.RateBurst = config.RateBurst
	}
	httpConfig.BaseURL = config.BaseURL
	httpConfig.Logger = logger
	if o.auth != nil {
		httpConfig.Auth = o.auth
	}

	return &SDMX{
		Base:   http.NewBase(TemplateID, "SDMX REST", config.AgencyID, httpConfig),
		config: config,
		logger: logger.With("connector", TemplateID),
	}, nil
}

// Config returns the connector configuration.
func (s *SDMX) Config() Config {
	return *s.config
}

// =============================================================================
// ENDPOINT INTERFACE
// =============================================================================

// ValidateConfig checks the configuration and probes the dataflow listing.
func (s *SDMX) ValidateConfig(ctx context.Context, config map[string]any) (*endpoint.ValidationResult, error) {
	if len(config) > 0 {
		cfg, err := ConfigFromMap(config)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return &endpoint.ValidationResult{Valid: false, Message: err.Error()}, nil
		}
	}
	path, query := DataflowsPath(s.config.AgencyID)
	s.Version = "2.1"
	return s.ProbeConnection(ctx, path, query, acceptStructure)
}

// GetCapabilities returns SDMX source capabilities.
func (s *SDMX) GetCapabilities() *endpoint.Capabilities {
	return &endpoint.Capabilities{
		SupportsFull:      true,
		SupportsPreview:   true,
		SupportsMetadata:  true,
		SupportsStructure: true,
		SupportsDataset:   true,
		SupportsLastN:     true,
		DefaultFetchSize:  1000,
	}
}

// GetDescriptor returns the SDMX endpoint descriptor.
func (s *SDMX) GetDescriptor() *endpoint.Descriptor {
	return &endpoint.Descriptor{
		ID:          TemplateID,
		Family:      "http",
		Title:       "SDMX 2.1 REST",
		Vendor:      s.config.AgencyID,
		Description: "Statistical data and structural metadata from SDMX 2.1 REST services such as the Eurostat dissemination API",
		Categories:  []string{"statistics", "open-data"},
		Protocols:   []string{"https"},
		DocsURL:     "https://wikis.ec.europa.eu/display/EUROSTATHELP/API+SDMX+2.1+-+data+query",
		Fields: []*endpoint.FieldDescriptor{
			{Key: "baseUrl", Label: "REST root", ValueType: "string", Required: true, DefaultValue: DefaultBaseURL},
			{Key: "agencyId", Label: "Agency", ValueType: "string", Required: true, DefaultValue: DefaultAgencyID},
			{Key: "structureVersion", Label: "Dataflow version", ValueType: "string", DefaultValue: DefaultStructureVersion, Advanced: true},
			{Key: "language", Label: "Label language", ValueType: "string", DefaultValue: DefaultLanguage, Advanced: true},
			{Key: "timeout", Label: "Request timeout", ValueType: "duration", DefaultValue: DefaultTimeout.String(), Advanced: true},
			{Key: "maxRetries", Label: "Max retries", ValueType: "integer", DefaultValue: "3", Advanced: true},
			{Key: "rateLimit", Label: "Requests per second", ValueType: "number", DefaultValue: strconv.FormatFloat(DefaultRateLimit, 'f', -1, 64), Advanced: true},
			{Key: "token", Label: "Bearer token", ValueType: "string", Sensitive: true, Advanced: true},
		},
		SampleConfig: map[string]any{
			"baseUrl":  DefaultBaseURL,
			"agencyId": DefaultAgencyID,
		},
	}
}

// =============================================================================
// SOURCE ENDPOINT
// =============================================================================

// ListDatasets returns the agency's dataflows.
func (s *SDMX) ListDatasets(ctx context.Context) ([]*endpoint.Dataset, error) {
	path, query := DataflowsPath(s.config.AgencyID)
	msg, err := s.fetchStructure(ctx, path, query)
	if err != nil {
		return nil, err
	}
	out := make([]*endpoint.Dataset, 0, len(msg.Dataflows))
	for _, df := range msg.Dataflows {
		out = append(out, &endpoint.Dataset{
			ID:       df.ID,
			Name:     df.Name,
			Kind:     "dataflow",
			AgencyID: df.AgencyID,
			Version:  df.Version,
		})
	}
	return out, nil
}

// GetSchema describes the columns of a dataset's SDMX-CSV rendering.
func (s *SDMX) GetSchema(ctx context.Context, datasetID string) (*endpoint.Schema, error) {
	dsd, err := s.FetchDataStructure(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	schema := &endpoint.Schema{}
	for i, c := range dsd.Components {
		field := &endpoint.FieldDefinition{
			Name:     c.ID,
			DataType: "string",
			Nullable: c.Role != core.RoleDimension,
			Comment:  c.Name,
			Position: i + 1,
			Role:     c.Role.String(),
		}
		if c.Role == core.RoleMeasure {
			field.DataType = "double"
		}
		if c.HasEnumeration() {
			field.Codelist = c.Enumeration.ID
		}
		schema.Fields = append(schema.Fields, field)
	}
	return schema, nil
}

// Read streams the observations of a dataset slice. Measure values are
// returned as float64 when numeric.
func (s *SDMX) Read(ctx context.Context, req *endpoint.ReadRequest) (endpoint.Iterator[endpoint.Record], error) {
	ds, err := s.FetchDataset(ctx, core.DataQuery{
		ResourceID:        req.DatasetID,
		Key:               req.Key,
		StartPeriod:       req.StartPeriod,
		EndPeriod:         req.EndPeriod,
		LastNObservations: req.LastN,
	})
	if err != nil {
		return nil, err
	}

	measures := make(map[string]bool)
	if dsd, err := ds.DataStructure(); err == nil {
		for _, c := range dsd.Components {
			if c.Role == core.RoleMeasure {
				measures[c.ID] = true
			}
		}
	}

	records := make([]endpoint.Record, 0, ds.Data.Len())
	for _, row := range ds.Data.Rows() {
		rec := make(endpoint.Record, len(row))
		for k, v := range row {
			if measures[k] {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					rec[k] = f
					continue
				}
			}
			rec[k] = v
		}
		records = append(records, rec)
	}
	return endpoint.NewSliceIterator(records, int(req.Limit)), nil
}

// =============================================================================
// STRUCTURE AND DATASET SERVICES
// =============================================================================

// FetchStructure retrieves the dataflow with all its descendants.
func (s *SDMX) FetchStructure(ctx context.Context, resourceID string) (*core.StructureMessage, error) {
	path, query := StructurePath(s.config.AgencyID, resourceID, s.config.StructureVersion)
	msg, err := s.fetchStructure(ctx, path, query)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("structure retrieved", "dataset", resourceID,
		"dataflows", len(msg.Dataflows), "dsds", len(msg.DataStructures), "codelists", len(msg.Codelists))
	return msg, nil
}

// FetchDataflow resolves the dataflow of a dataset.
func (s *SDMX) FetchDataflow(ctx context.Context, resourceID string) (*core.Dataflow, error) {
	msg, err := s.FetchStructure(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	return msg.Dataflow()
}

// FetchDataStructure resolves the DSD of a dataset.
func (s *SDMX) FetchDataStructure(ctx context.Context, resourceID string) (*core.DataStructure, error) {
	msg, err := s.FetchStructure(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	return msg.DataStructure()
}

// FetchDataset retrieves structure and data concurrently and binds them.
func (s *SDMX) FetchDataset(ctx context.Context, q core.DataQuery) (*core.Dataset, error) {
	var (
		msg   *core.StructureMessage
		table *core.Table
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		msg, err = s.FetchStructure(gCtx, q.ResourceID)
		return err
	})
	g.Go(func() error {
		path, query := DataPath(q)
		body, err := s.FetchBytes(gCtx, path, query, acceptCSV)
		if err != nil {
			return fmt.Errorf("fetch data %s: %w", q.ResourceID, err)
		}
		table, _, err = ParseCSV(bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("parse data %s: %w", q.ResourceID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ref, err := bind(msg)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("dataset retrieved", "dataset", q.ResourceID, "key", q.Key, "rows", table.Len())
	return &core.Dataset{Structure: ref, Data: table}, nil
}

// bind points a dataset at its dataflow when the message has one, and at the
// DSD directly otherwise.
func bind(msg *core.StructureMessage) (core.StructureRef, error) {
	dsd, err := msg.DataStructure()
	if err != nil {
		return core.StructureRef{}, err
	}
	if len(msg.Dataflows) == 0 {
		return core.DirectRef(dsd), nil
	}
	df, err := msg.Dataflow()
	if err != nil {
		return core.StructureRef{}, err
	}
	if df.Structure == nil {
		bound := *df
		bound.Structure = dsd
		df = &bound
	}
	return core.FlowRef(df), nil
}

func (s *SDMX) fetchStructure(ctx context.Context, path string, query url.Values) (*core.StructureMessage, error) {
	body, err := s.FetchBytes(ctx, path, query, acceptStructure)
	if err != nil {
		return nil, fmt.Errorf("fetch structure %s: %w", path, err)
	}
	msg, err := ParseStructure(bytes.NewReader(body), s.config.Language)
	if err != nil {
		return nil, fmt.Errorf("parse structure %s: %w", path, err)
	}
	return msg, nil
}

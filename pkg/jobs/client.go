package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/protoform/pkg/codec"
	"github.com/platinummonkey/protoform/pkg/descriptor"
	"github.com/platinummonkey/protoform/pkg/observability"
	"github.com/platinummonkey/protoform/pkg/schema"
	"github.com/platinummonkey/protoform/pkg/valuetree"
)

const tracerName = "github.com/platinummonkey/protoform/pkg/jobs"

// Client encodes job arguments against a runner's method schemas and submits
// them through a Transport
type Client struct {
	transport Transport
	cache     *schema.Cache
	logger    *observability.Logger
	metrics   *observability.Metrics
	tracer    trace.Tracer
	codec     []codec.Option
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithLogger sets the client logger
func WithLogger(l *observability.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records enqueues, encodes and decodes to m
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithSchemaCache parses method schemas through cache
func WithSchemaCache(cache *schema.Cache) ClientOption {
	return func(c *Client) { c.cache = cache }
}

// WithTracerProvider sets the tracer provider; the global one is used otherwise
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *Client) { c.tracer = tp.Tracer(tracerName) }
}

// WithCodecOptions sets the codec options used for arguments and results
func WithCodecOptions(opts ...codec.Option) ClientOption {
	return func(c *Client) { c.codec = opts }
}

// NewClient creates a client over transport
func NewClient(transport Transport, opts ...ClientOption) (*Client, error) {
	if transport == nil {
		return nil, errors.New("jobs: transport is required")
	}

	c := &Client{
		transport: transport,
		logger:    observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = schema.NewCache(nil).WithMetrics(c.metrics)
	}
	if c.tracer == nil {
		c.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}
	return c, nil
}

// typeFor loads the primary message of proto text. Blank text has no type.
func (c *Client) typeFor(proto string) (*descriptor.TypeDescriptor, error) {
	if strings.TrimSpace(proto) == "" {
		return nil, nil
	}
	s, err := c.cache.Parse(proto)
	if err != nil {
		return nil, err
	}
	return descriptor.FromSchema(s)
}

// Enqueue encodes args against the args schema of req.Method and submits
// the job. It logs through the logger carried by ctx, if any, tagged with
// the ctx session ID. Arguments that do not validate are never submitted; the
// *codec.ValidationError is returned as is.
func (c *Client) Enqueue(ctx context.Context, schemas MethodProtoMap, req EnqueueRequest, args valuetree.Tree) (*EnqueueResult, error) {
	method, err := schemas.Resolve(req.Method)
	if err != nil {
		return nil, err
	}
	req.Method = method

	ctx, span := c.tracer.Start(ctx, "jobs.Enqueue", trace.WithAttributes(
		attribute.String("job.method", method),
		attribute.String("job.worker_id", req.WorkerID),
	))
	defer span.End()

	logger := observability.FromContext(ctx, c.logger).WithFields(map[string]interface{}{
		"method":    method,
		"worker_id": req.WorkerID,
	})

	res, err := c.enqueue(ctx, schemas.Schemas[method], &req, args)
	c.metrics.RecordEnqueue(method, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WithError(err).Warn("job enqueue failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("job.args.size", len(req.Args)),
		attribute.String("job.id", res.JobID),
	)
	logger.WithField("job_id", res.JobID).Info("job enqueued")
	return res, nil
}

func (c *Client) enqueue(ctx context.Context, ms MethodSchema, req *EnqueueRequest, args valuetree.Tree) (*EnqueueResult, error) {
	td, err := c.typeFor(ms.ArgsProto)
	if err != nil {
		return nil, fmt.Errorf("args schema of %q: %w", req.Method, err)
	}

	b, err := codec.Encode(args, td, c.codec...)
	c.metrics.RecordEncode(err, err == nil && args.IsEmpty())
	if err != nil {
		return nil, err
	}
	req.Args = b

	res, err := c.transport.Enqueue(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("enqueue: %w", err)
	}
	if res == nil {
		res = &EnqueueResult{}
	}
	return res, nil
}

// RetryArgs decodes the arguments of an earlier job into a value tree to
// prefill a new submission. Implicit-presence fields are filled with their
// zero values.
func (c *Client) RetryArgs(schemas MethodProtoMap, method string, args []byte) (valuetree.Tree, error) {
	ms, err := schemas.Lookup(method)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return valuetree.Tree{}, nil
	}

	td, err := c.typeFor(ms.ArgsProto)
	if err != nil {
		return nil, fmt.Errorf("args schema of %q: %w", method, err)
	}

	opts := append(append([]codec.Option{}, c.codec...), codec.WithDefaults())
	dv := codec.Decode(args, td, opts...)
	c.metrics.RecordDecode(dv.Tier.String())
	if dv.Tier != codec.TierStructured {
		return nil, fmt.Errorf("args of %q do not decode: %w", method, dv.Cause)
	}
	return dv.Tree, nil
}

// ResultView is the presentation of a finished job
type ResultView struct {
	Method string
	Args   codec.DisplayValue
	Output codec.DisplayValue
}

// DescribeResult renders a job's arguments and output against the method's
// schemas. It never fails: unknown methods and broken schemas fall back to
// untyped display.
func (c *Client) DescribeResult(schemas MethodProtoMap, method string, args, output []byte) ResultView {
	ms, err := schemas.Lookup(method)
	if err != nil {
		c.logger.WithError(err).Debug("describing result without schema")
	}

	return ResultView{
		Method: method,
		Args:   c.display(ms.ArgsProto, args),
		Output: c.display(ms.ResultProto, output),
	}
}

func (c *Client) display(proto string, data []byte) codec.DisplayValue {
	td, err := c.typeFor(proto)
	if err != nil {
		c.logger.WithError(err).Debug("schema failed to load")
	}
	dv := codec.Decode(data, td, c.codec...)
	c.metrics.RecordDecode(dv.Tier.String())
	return dv
}

package promptic

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ToolStatus is the outcome of a single dispatched tool call.
type ToolStatus string

const (
	ToolStatusSuccess ToolStatus = "success"
	ToolStatusError   ToolStatus = "error"
)

// ToolCallRequest is one tool invocation to dispatch. ID is the provider's
// call identifier and is echoed back on the response.
type ToolCallRequest struct {
	ID           string
	FunctionName string
	Arguments    map[string]any
}

// ToolCallResponse is the outcome of one ToolCallRequest. Result holds the
// tool's return value on success, or a diagnostic string on error.
type ToolCallResponse struct {
	ToolCallID   string
	FunctionName string
	Arguments    map[string]any
	Result       any
	Status       ToolStatus
}

// ToolRequestHook is called before a tool is executed. Returning an error
// vetoes that single call: it becomes an error-status response and the rest
// of the batch continues.
type ToolRequestHook func(ctx context.Context, req ToolCallRequest) error

// ToolResponseHook is called after each tool call settles, for both success
// and error outcomes.
type ToolResponseHook func(ctx context.Context, resp ToolCallResponse)

// ToolErrorHook is called when a tool call fails, with the failure cause and
// the originating request. Observation only; the batch continues regardless.
type ToolErrorHook func(ctx context.Context, err error, req ToolCallRequest)

// Runner dispatches batches of tool calls against a registry.
// Every request produces exactly one response in input order. A failing
// call never aborts the batch; its response carries ToolStatusError and a
// diagnostic message instead.
type Runner struct {
	registry *Registry

	timeout      time.Duration
	requestHook  ToolRequestHook
	responseHook ToolResponseHook
	errorHook    ToolErrorHook
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithToolTimeout bounds each tool execution. A tool that exceeds the
// timeout settles as an error-status response.
func WithToolTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithToolRequestHook sets a callback invoked before each tool execution.
func WithToolRequestHook(hook ToolRequestHook) RunnerOption {
	return func(r *Runner) {
		r.requestHook = hook
	}
}

// WithToolResponseHook sets a callback invoked after each tool call settles.
func WithToolResponseHook(hook ToolResponseHook) RunnerOption {
	return func(r *Runner) {
		r.responseHook = hook
	}
}

// WithToolErrorHook sets a callback invoked whenever a tool call fails.
func WithToolErrorHook(hook ToolErrorHook) RunnerOption {
	return func(r *Runner) {
		r.errorHook = hook
	}
}

// NewRunner creates a runner over the given registry.
func NewRunner(registry *Registry, options ...RunnerOption) *Runner {
	r := &Runner{
		registry: registry,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Run executes the batch sequentially and returns one response per request,
// in the same order. An empty batch returns an empty result without
// touching the registry.
func (r *Runner) Run(ctx context.Context, requests []ToolCallRequest) []ToolCallResponse {
	responses := make([]ToolCallResponse, 0, len(requests))
	if len(requests) == 0 {
		return responses
	}

	logger := LoggerFromContext(ctx)

	for _, req := range requests {
		logger.Debug("dispatch tool call", "id", req.ID, "name", req.FunctionName, "args", req.Arguments)

		resp := ToolCallResponse{
			ToolCallID:   req.ID,
			FunctionName: req.FunctionName,
			Arguments:    req.Arguments,
		}

		result, err := r.dispatch(ctx, req)
		if err != nil {
			logger.Debug("tool call failed", "id", req.ID, "name", req.FunctionName, "error", err)
			if r.errorHook != nil {
				r.errorHook(ctx, err, req)
			}
			resp.Status = ToolStatusError
			resp.Result = err.Error()
		} else {
			resp.Status = ToolStatusSuccess
			resp.Result = result
		}

		if r.responseHook != nil {
			r.responseHook(ctx, resp)
		}

		responses = append(responses, resp)
	}

	return responses
}

func (r *Runner) dispatch(ctx context.Context, req ToolCallRequest) (any, error) {
	if r.requestHook != nil {
		if err := r.requestHook(ctx, req); err != nil {
			return nil, goerr.Wrap(err, "tool call rejected")
		}
	}

	tool, err := r.registry.Resolve(req.FunctionName)
	if err != nil {
		return nil, err
	}

	args := req.Arguments
	if args == nil {
		args = map[string]any{}
	}

	spec := tool.Spec()
	if err := validateArguments(&spec, args); err != nil {
		return nil, err
	}

	result, err := r.invoke(ctx, tool, args)
	if err != nil {
		return nil, goerr.Wrap(err, req.FunctionName+" failed to run", goerr.V("args", args))
	}

	return result, nil
}

// invoke runs the tool, bounded by the configured timeout. The deadline is
// enforced even when the tool ignores context cancellation; the abandoned
// goroutine is left to finish on its own.
func (r *Runner) invoke(ctx context.Context, tool Tool, args map[string]any) (any, error) {
	if r.timeout <= 0 {
		return tool.Run(ctx, args)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		result, err := tool.Run(ctx, args)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		return nil, goerr.Wrap(ctx.Err(), "tool execution timed out")
	}
}

// validateArguments checks args against the tool's declared input schema.
// Both the schema and the instance pass through a JSON round trip so that
// native Go values (int, custom structs) validate the same way as values
// decoded from the model's JSON payload.
func validateArguments(spec *ToolSpec, args map[string]any) error {
	schema, err := compileInputSchema(spec)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal tool arguments", goerr.V("args", args))
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return goerr.Wrap(err, "failed to decode tool arguments")
	}

	if err := schema.Validate(instance); err != nil {
		return goerr.Wrap(err, "invalid arguments for "+spec.Name, goerr.V("args", args))
	}

	return nil
}

func compileInputSchema(spec *ToolSpec) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(spec.InputSchema())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal input schema", goerr.V("tool", spec.Name))
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode input schema", goerr.V("tool", spec.Name))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(spec.Name+".json", doc); err != nil {
		return nil, goerr.Wrap(err, "failed to add schema resource", goerr.V("tool", spec.Name))
	}

	schema, err := compiler.Compile(spec.Name + ".json")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to compile input schema", goerr.V("tool", spec.Name))
	}

	return schema, nil
}

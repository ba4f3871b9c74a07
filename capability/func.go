package capability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/hupe1980/threadflow/core"
)

// Func is a generic adapter that exposes a plain Go function as a capability.
//
// Responsibilities:
//   - Holds a JSON Schema parameter specification
//   - Validates backend supplied arguments against that schema before execution
//   - Invokes the wrapped function with a *core.CallContext giving access to
//     the turn context, correlation ids and logging
//   - Normalizes error handling so callers receive *Error with consistent codes:
//     VALIDATION_ERROR -> schema / argument mismatch
//     EXECUTION_ERROR  -> underlying function returned an error (non-Error)
//     (custom codes preserved if the function returns *Error directly)
//
// A Func has no internal mutable state after construction and is safe for
// concurrent use by multiple goroutines.
type Func struct {
	name        string
	description string
	parameters  map[string]any
	compiled    *jsonschema.Schema
	fn          func(callCtx *core.CallContext, args map[string]any) (any, error)
}

// NewFunc constructs a Func from an explicit JSON Schema and function. The
// schema is compiled once at construction; a malformed schema is rejected here
// rather than at call time.
//
// Example:
//
//	sum, err := capability.NewFunc(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "a": map[string]any{"type": "number"},
//	      "b": map[string]any{"type": "number"},
//	    },
//	    "required": []any{"a", "b"},
//	  },
//	  func(cc *core.CallContext, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunc(
	name, description string,
	parameters map[string]any,
	fn func(callCtx *core.CallContext, args map[string]any) (any, error),
) (*Func, error) {
	compiled, err := compileSchema(name, parameters)
	if err != nil {
		return nil, fmt.Errorf("capability %s: invalid parameter schema: %w", name, err)
	}
	return &Func{
		name:        name,
		description: description,
		parameters:  parameters,
		compiled:    compiled,
		fn:          fn,
	}, nil
}

// MustFunc is like NewFunc but panics on an invalid schema. Intended for
// registration at startup where a bad schema is a programming error.
func MustFunc(
	name, description string,
	parameters map[string]any,
	fn func(callCtx *core.CallContext, args map[string]any) (any, error),
) *Func {
	f, err := NewFunc(name, description, parameters, fn)
	if err != nil {
		panic(err)
	}
	return f
}

// NewFuncFromStruct derives the parameter schema from a struct via reflection.
// It is a convenience for simple argument containers; json tags name the
// properties and jsonschema tags add descriptions.
//
// Example:
//
//	type BookArgs struct {
//	  DoctorName      string `json:"doctor_name" jsonschema:"description=Name of the doctor"`
//	  AppointmentDate string `json:"appointment_date" jsonschema:"description=Date in YYYY-MM-DD format"`
//	}
//
//	book, err := capability.NewFuncFromStruct(
//	  "book_appointment",
//	  "Book an appointment with a doctor",
//	  BookArgs{},
//	  bookFn,
//	)
func NewFuncFromStruct(
	name, description string,
	argsType any,
	fn func(callCtx *core.CallContext, args map[string]any) (any, error),
) (*Func, error) {
	parameters, err := reflectSchema(argsType)
	if err != nil {
		return nil, fmt.Errorf("capability %s: schema reflection failed: %w", name, err)
	}
	return NewFunc(name, description, parameters, fn)
}

// Name returns the unique capability name used in call requests and routing.
func (f *Func) Name() string { return f.name }

// Description returns the short natural language description exposed to backends.
func (f *Func) Description() string { return f.description }

// Parameters returns the JSON schema describing expected arguments.
func (f *Func) Parameters() map[string]any { return f.parameters }

// Invoke validates the provided args against the declared schema then invokes
// the underlying function. Validation or execution failures are wrapped (or
// passed through) as *Error for uniform downstream handling.
func (f *Func) Invoke(callCtx *core.CallContext, args map[string]any) (any, error) {
	logger := callCtx.Logger()
	start := time.Now()

	logger.Debug("capability.call.start", "capability", f.name, "call_id", callCtx.CallID())

	if err := f.compiled.Validate(normalize(args)); err != nil {
		logger.Warn("capability.call.validation_failed", "capability", f.name, "error", err.Error())

		return nil, &Error{
			Capability: f.name,
			Message:    fmt.Sprintf("argument validation failed: %v", err),
			Code:       "VALIDATION_ERROR",
			Details:    err,
		}
	}

	result, err := f.fn(callCtx, args)
	if err != nil {
		if capErr, ok := err.(*Error); ok { // Already an Error -> just log and forward
			logger.Error("capability.call.error", "capability", f.name, "error", capErr.Message)

			return nil, capErr
		}

		logger.Error("capability.call.error", "capability", f.name, "error", err.Error())

		return nil, &Error{
			Capability: f.name,
			Message:    err.Error(),
			Code:       "EXECUTION_ERROR",
		}
	}

	logger.Info("capability.call.success", "capability", f.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

// compileSchema round-trips the schema map through JSON so the validator sees
// the same value shapes a decoded schema document would have.
func compileSchema(name string, parameters map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(parameters)
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	url := fmt.Sprintf("urn:threadflow:%s.json", name)
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}

// reflectSchema derives a plain JSON schema document from a struct type.
func reflectSchema(argsType any) (map[string]any, error) {
	reflector := invopop.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(argsType)
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	// The validator does not need these and backends reject unknown keys.
	delete(doc, "$schema")
	delete(doc, "$id")
	return doc, nil
}

// normalize round-trips decoded arguments so numeric values match what the
// validator expects from a JSON document.
func normalize(args map[string]any) any {
	raw, err := json.Marshal(args)
	if err != nil {
		return args
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return args
	}
	return v
}

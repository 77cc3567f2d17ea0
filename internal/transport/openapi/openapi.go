// Package openapi loads the API contract and validates incoming requests
// against it before they reach a handler.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/frahmantamala/restaurant-ops/api"
	"github.com/frahmantamala/restaurant-ops/internal"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

type Document struct {
	doc    *openapi3.T
	raw    []byte
	router routers.Router
}

// Load reads the document at path, or the embedded copy when path is empty,
// and fails if the document itself is invalid.
func Load(ctx context.Context, path string) (*Document, error) {
	raw := api.OpenAPI
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read openapi document: %w", err)
		}
		raw = data
	}
	return Parse(ctx, raw)
}

func Parse(ctx context.Context, raw []byte) (*Document, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}

	return &Document{doc: doc, raw: raw, router: router}, nil
}

func (d *Document) Version() string {
	return d.doc.Info.Version
}

// ServeHTTP serves the raw document.
func (d *Document) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(d.raw)
}

// ValidateRequests rejects requests whose parameters or body do not match
// the document. Paths the document does not describe pass through untouched.
// Authentication is enforced by the auth middleware, not here.
func (d *Document) ValidateRequests(logger *slog.Logger, write func(http.ResponseWriter, *http.Request, *internal.AppError)) func(http.Handler) http.Handler {
	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		MultiError:         true,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := d.router.FindRoute(r)
			if err != nil {
				if methodNotAllowed(err) {
					write(w, r, &internal.AppError{
						Type:       internal.ErrorTypeValidation,
						Code:       internal.ErrCodeValidationFailed,
						Message:    "method not allowed",
						StatusCode: http.StatusMethodNotAllowed,
					})
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				logger.Debug("request does not match openapi document", "path", r.URL.Path, "error", err)
				write(w, r, toAppError(err))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// methodNotAllowed matches both the sentinel and route errors built with its
// reason.
func methodNotAllowed(err error) bool {
	if errors.Is(err, routers.ErrMethodNotAllowed) {
		return true
	}
	var routeErr *routers.RouteError
	return errors.As(err, &routeErr) && routeErr.Reason == routers.ErrMethodNotAllowed.Error()
}

func toAppError(err error) *internal.AppError {
	var details []internal.ValidationError

	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, e := range multi {
			details = append(details, validationError(e))
		}
	} else {
		details = append(details, validationError(err))
	}

	return internal.NewValidationError("request does not match the API contract", internal.ErrCodeValidationFailed).
		WithDetails(internal.ValidationErrors{Errors: details})
}

func validationError(err error) internal.ValidationError {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		field := "body"
		if reqErr.Parameter != nil {
			field = reqErr.Parameter.Name
		}
		return internal.ValidationError{Field: field, Message: reqErr.Error(), Code: string(internal.ErrCodeValidationFailed)}
	}
	return internal.ValidationError{Field: "request", Message: err.Error(), Code: string(internal.ErrCodeValidationFailed)}
}

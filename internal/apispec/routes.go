// Package apispec loads the tracker backend's OpenAPI document and turns its
// operations into a route table the requester can address by operation ID.
package apispec

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/brizzai/codetrack/internal/config"
	"github.com/brizzai/codetrack/internal/logger"
	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:embed backend.yaml
var embeddedSpec []byte

// Operation IDs the client depends on.
const (
	OpLogin                = "login"
	OpSignup               = "signup"
	OpVerifyOTP            = "verifyOtp"
	OpResendOTP            = "resendOtp"
	OpRefreshToken         = "refreshToken"
	OpLogout               = "logout"
	OpListPlatforms        = "listPlatforms"
	OpStartVerification    = "startVerification"
	OpCompleteVerification = "completeVerification"
	OpRefreshPlatform      = "refreshPlatform"
	OpDisconnectPlatform   = "disconnectPlatform"
)

var requiredOperations = []string{
	OpLogin, OpSignup, OpVerifyOTP, OpResendOTP, OpRefreshToken, OpLogout,
	OpListPlatforms, OpStartVerification, OpCompleteVerification,
	OpRefreshPlatform, OpDisconnectPlatform,
}

// Route is one backend operation.
type Route struct {
	OperationID string
	Method      string
	Path        string
	// Authenticated is false for operations declared with an empty security
	// requirement; an authorization failure on those never triggers a refresh.
	Authenticated bool
}

// Routes is an immutable operation table.
type Routes struct {
	byID map[string]Route
}

// Load reads the document at path, or the embedded document when path is empty.
func Load(ctx context.Context, path string) (*Routes, error) {
	data := embeddedSpec
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read api spec file: %w", err)
		}
	}
	return Parse(ctx, data)
}

// Parse builds a route table from an OpenAPI 3 document in JSON or YAML.
func Parse(ctx context.Context, data []byte) (*Routes, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse api spec: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid api spec: %w", err)
	}

	routes := &Routes{byID: make(map[string]Route)}
	for path, item := range doc.Paths.Map() {
		for method, op := range item.Operations() {
			if op.OperationID == "" {
				logger.Debug("Skipping operation without operationId",
					zap.String("method", method),
					zap.String("path", path))
				continue
			}
			routes.byID[op.OperationID] = Route{
				OperationID:   op.OperationID,
				Method:        method,
				Path:          path,
				Authenticated: requiresAuth(doc, op),
			}
		}
	}

	var missing []string
	for _, id := range requiredOperations {
		if _, ok := routes.byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("api spec is missing operations: %v", missing)
	}

	logger.Debug("Loaded backend routes", zap.Int("operations", len(routes.byID)))
	return routes, nil
}

func requiresAuth(doc *openapi3.T, op *openapi3.Operation) bool {
	if op.Security != nil {
		return len(*op.Security) > 0
	}
	return len(doc.Security) > 0
}

// Lookup returns the route registered under the operation ID.
func (r *Routes) Lookup(operationID string) (Route, error) {
	route, ok := r.byID[operationID]
	if !ok {
		return Route{}, fmt.Errorf("unknown backend operation %q", operationID)
	}
	return route, nil
}

// OperationIDs lists the known operations in sorted order.
func (r *Routes) OperationIDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Module provides the route table loaded from config.
var Module = fx.Module("apispec",
	fx.Provide(func(cfg *config.Config) (*Routes, error) {
		return Load(context.Background(), cfg.Backend.APISpecFile)
	}),
)

package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"camcheck/internal/invocation"
	"camcheck/pkg/mcpserver"
)

// LambdaAdapter serves the direct entrypoint and the MCP server behind an
// API Gateway V2 HTTP API.
type LambdaAdapter struct {
	server     *mcpserver.Server
	invocation *invocation.Handler
}

// NewLambdaAdapter creates a Lambda adapter for the given handlers.
func NewLambdaAdapter(server *mcpserver.Server, inv *invocation.Handler) *LambdaAdapter {
	return &LambdaAdapter{server: server, invocation: inv}
}

// Handle satisfies the aws-lambda-go handler signature for API Gateway V2 HTTP APIs.
func (a *LambdaAdapter) Handle(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := request.RequestContext.HTTP.Method
	path := request.RawPath

	switch {
	case strings.EqualFold(method, http.MethodGet) && path == "/ping":
		return lambdaJSON(invocation.PingResponse(), http.StatusOK), nil

	case strings.EqualFold(method, http.MethodGet) && path == "/healthz":
		return lambdaJSON(map[string]string{"status": "ok"}, http.StatusOK), nil

	case strings.EqualFold(method, http.MethodPost) && path == "/invocations":
		body, err := requestBody(request)
		if err != nil {
			return lambdaError(http.StatusBadRequest, err), nil
		}
		status, payload := a.invocation.InvokeJSON(ctx, body)
		return lambdaJSON(payload, status), nil

	case strings.EqualFold(method, http.MethodPost) && path == "/mcp":
		return a.handleJSONRPC(ctx, request)

	default:
		return lambdaJSON(map[string]string{"error": "route_not_found"}, http.StatusNotFound), nil
	}
}

func (a *LambdaAdapter) handleJSONRPC(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	body, err := requestBody(request)
	if err != nil {
		return lambdaError(http.StatusBadRequest, err), nil
	}

	var rpcReq mcpserver.JSONRPCRequest
	if err := json.Unmarshal(body, &rpcReq); err != nil {
		resp := mcpserver.NewErrorResponse(nil, mcpserver.ErrCodeParse, "invalid JSON: "+err.Error())
		return lambdaJSON(resp, http.StatusBadRequest), nil
	}

	resp := a.server.Handle(ctx, rpcReq)
	if resp.IsNotification() {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusAccepted}, nil
	}
	return lambdaJSON(resp, http.StatusOK), nil
}

func requestBody(request events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !request.IsBase64Encoded {
		return []byte(request.Body), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(request.Body)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	return decoded, nil
}

func lambdaJSON(payload any, status int) events.APIGatewayV2HTTPResponse {
	buf, err := json.Marshal(payload)
	if err != nil {
		return lambdaError(http.StatusInternalServerError, err)
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       string(buf),
	}
}

func lambdaError(status int, err error) events.APIGatewayV2HTTPResponse {
	buf, _ := json.Marshal(map[string]string{"error": err.Error()})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       string(buf),
	}
}

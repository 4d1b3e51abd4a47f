// Package arn turns an AgentCore runtime ARN into the URL its invocations
// (and MCP traffic) are sent to.
package arn

import (
	"fmt"
	"strings"
)

const invocationURLFormat = "https://bedrock-agentcore.us-west-2.amazonaws.com/runtimes/%s/invocations?qualifier=DEFAULT"

// Only ':' and '/' are escaped. This is not a general URL encoder.
var escaper = strings.NewReplacer(":", "%3A", "/", "%2F")

// Escape percent-encodes the ARN separators.
func Escape(arn string) string {
	return escaper.Replace(arn)
}

// InvocationURL embeds the escaped ARN in the runtime invocation endpoint.
func InvocationURL(arn string) string {
	return fmt.Sprintf(invocationURLFormat, Escape(arn))
}

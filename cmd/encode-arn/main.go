// Command encode-arn prints the invocation URL for an AgentCore runtime ARN,
// which is also the endpoint MCP clients connect to (with a bearer token).
//
//	encode-arn <arn>
package main

import (
	"fmt"
	"io"
	"os"

	"camcheck/internal/arn"
)

const usage = "Usage: encode-arn <arn>"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(out, usage) //nolint:errcheck
		return 1
	}
	fmt.Fprintln(out, arn.InvocationURL(args[0])) //nolint:errcheck
	return 0
}

// Command lineage converts relationship text into family tree documents and
// serves them over HTTP and MCP.
package main

const version = "0.1.0-dev"

func main() {
	Execute()
}

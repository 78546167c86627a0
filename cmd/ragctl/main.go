package main

import "github.com/rulevii/compliance-rag/internal/cli"

func main() {
	cli.Execute()
}

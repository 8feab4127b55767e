package main

import "github.com/deploymenttheory/go-tomboot/cmd"

func main() {
	cmd.Execute()
}

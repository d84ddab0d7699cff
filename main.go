package main

import "github.com/kashguard/go-tee-verifier/cmd"

func main() {
	cmd.Execute()
}

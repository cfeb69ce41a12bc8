package main

import "github.com/careplus/onboarding/cmd/onboardctl/command"

func main() {
	command.Execute()
}

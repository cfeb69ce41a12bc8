package main

import "github.com/careplus/onboarding/api"

func main() {
	api.MainLoop()
}

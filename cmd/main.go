package main

import (
	"marketpulse/internal/bootstrap"
)

func main() {
	c := bootstrap.NewContainer()

	c.MustInitCore()
	c.MustInitWorkers()
	c.MustInitHTTP()

	c.Start()
	c.WaitForShutdown()
}

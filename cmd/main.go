package main

import "github.com/fjod/go_delivery/internal/app"

func main() {
	app.Execute()
}

package main

import "github.com/sumails/sumails/services/dashboard-api/internal/app"

func main() {
	app.Execute()
}

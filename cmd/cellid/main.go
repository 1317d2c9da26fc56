// cmd/cellid/main.go
package main

import (
	"cellid/internal/app"
	"cellid/internal/appshell"
)

func main() {
	appshell.Main(app.RunContext)
}

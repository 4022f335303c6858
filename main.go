package main

//go:generate swag init

import (
	"github.com/satheeshds/invoicing/cmd"
	_ "github.com/satheeshds/invoicing/docs"
)

// @title           Invoicing API
// @version         1.0.0
// @description     API for managing clients and invoices and collecting payment through single-use payment links.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.basic  BasicAuth

func main() {
	cmd.Execute()
}

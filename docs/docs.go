// Package docs registers the API description served under /swagger.
// Regenerate with `swag init` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/clients": {
            "get": {"security": [{"BasicAuth": []}], "tags": ["clients"], "summary": "List clients", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BasicAuth": []}], "tags": ["clients"], "summary": "Create client", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "client", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.ClientInput"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/clients/{id}": {
            "get": {"security": [{"BasicAuth": []}], "tags": ["clients"], "summary": "Get client",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BasicAuth": []}], "tags": ["clients"], "summary": "Update client",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "client", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.ClientInput"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}},
            "delete": {"security": [{"BasicAuth": []}], "tags": ["clients"], "summary": "Delete client",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/invoices": {
            "get": {"security": [{"BasicAuth": []}], "tags": ["invoices"], "summary": "List invoices",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "client_id", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BasicAuth": []}], "tags": ["invoices"], "summary": "Create invoice",
                "parameters": [{"name": "invoice", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.InvoiceInput"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/invoices/recurring/run": {
            "post": {"security": [{"BasicAuth": []}], "tags": ["invoices"], "summary": "Run recurring invoices",
                "responses": {"200": {"description": "OK"}}}
        },
        "/invoices/{id}": {
            "get": {"security": [{"BasicAuth": []}], "tags": ["invoices"], "summary": "Get invoice",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BasicAuth": []}], "tags": ["invoices"], "summary": "Update invoice",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "invoice", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.InvoiceInput"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}},
            "delete": {"security": [{"BasicAuth": []}], "tags": ["invoices"], "summary": "Delete invoice",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}
        },
        "/invoices/{id}/links": {
            "get": {"security": [{"BasicAuth": []}], "tags": ["invoices"], "summary": "Get invoice links",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/invoices/{id}/pdf": {
            "get": {"security": [{"BasicAuth": []}], "tags": ["invoices"], "summary": "Download invoice PDF", "produces": ["application/pdf"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "file"}}, "404": {"description": "Not Found"}}}
        },
        "/invoices/{id}/send": {
            "post": {"security": [{"BasicAuth": []}], "tags": ["invoices"], "summary": "Send invoice",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "body", "in": "body", "schema": {"$ref": "#/definitions/handlers.sendInput"}}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}
        },
        "/links/sweep": {
            "post": {"security": [{"BasicAuth": []}], "tags": ["links"], "summary": "Sweep expired links",
                "responses": {"200": {"description": "OK"}}}
        },
        "/links/{invoiceId}": {
            "post": {"security": [{"BasicAuth": []}], "tags": ["links"], "summary": "Issue payment link",
                "parameters": [
                    {"type": "string", "name": "invoiceId", "in": "path", "required": true},
                    {"type": "boolean", "name": "reuse", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "201": {"description": "Created"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}
        },
        "/pay/{token}": {
            "get": {"tags": ["pay"], "summary": "Inspect payment link",
                "parameters": [{"type": "string", "name": "token", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "410": {"description": "Gone"}}}
        },
        "/checkout/{token}": {
            "post": {"tags": ["pay"], "summary": "Start checkout",
                "parameters": [{"type": "string", "name": "token", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "410": {"description": "Gone"}, "502": {"description": "Bad Gateway"}}}
        },
        "/confirm/{token}": {
            "post": {"tags": ["pay"], "summary": "Confirm payment",
                "parameters": [{"type": "string", "name": "token", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}, "410": {"description": "Gone"}}}
        },
        "/webhooks/{provider}": {
            "post": {"tags": ["pay"], "summary": "Payment webhook",
                "parameters": [{"type": "string", "name": "provider", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        }
    },
    "definitions": {
        "handlers.sendInput": {
            "type": "object",
            "properties": {"to": {"type": "string"}}
        },
        "models.ClientInput": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "company": {"type": "string"},
                "phone": {"type": "string"},
                "gst_number": {"type": "string"},
                "pan_number": {"type": "string"},
                "address": {"type": "string"},
                "state": {"type": "string"},
                "country": {"type": "string"}
            }
        },
        "models.LineItemInput": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "quantity": {"type": "number"},
                "unit_price": {"type": "number"}
            }
        },
        "models.InvoiceInput": {
            "type": "object",
            "properties": {
                "client_id": {"type": "string"},
                "invoice_number": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/models.LineItemInput"}},
                "tax": {"type": "number"},
                "currency": {"type": "string"},
                "due_date": {"type": "string"},
                "status": {"type": "string"},
                "recurring": {"type": "boolean"},
                "notes": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BasicAuth": {"type": "basic"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Invoicing API",
	Description:      "API for managing clients and invoices and collecting payment through single-use payment links.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

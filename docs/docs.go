// Package docs registers the Crop Catch API description with swag so that
// gin-swagger can serve it under /swagger.
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
    "securityDefinitions": {
        "Bearer": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/health": {"get": {"summary": "Liveness probe", "responses": {"200": {"description": "ok"}}}},
        "/api/auth/signup": {"post": {"summary": "Create an account", "responses": {"201": {"description": "created"}, "409": {"description": "email taken"}}}},
        "/api/auth/signin": {"post": {"summary": "Sign in and receive a session token", "responses": {"200": {"description": "session"}, "401": {"description": "invalid credentials"}}}},
        "/api/auth/signout": {"post": {"summary": "Revoke the current session", "responses": {"204": {"description": "signed out"}}}},
        "/api/profile": {
            "get": {"summary": "Current identity and profile", "security": [{"Bearer": []}], "responses": {"200": {"description": "profile"}}},
            "patch": {"summary": "Update own full name or avatar", "security": [{"Bearer": []}], "responses": {"200": {"description": "profile"}}}
        },
        "/api/products": {"get": {"summary": "List products (search, category, origin, available)", "responses": {"200": {"description": "products"}}}},
        "/api/products/{id}": {"get": {"summary": "Get one product", "responses": {"200": {"description": "product"}, "404": {"description": "not found"}}}},
        "/api/cart": {
            "get": {"summary": "Current cart", "security": [{"Bearer": []}], "responses": {"200": {"description": "cart"}}},
            "delete": {"summary": "Empty the cart", "security": [{"Bearer": []}], "responses": {"200": {"description": "cart"}}}
        },
        "/api/cart/items": {"post": {"summary": "Add one unit of a product", "security": [{"Bearer": []}], "responses": {"200": {"description": "cart"}}}},
        "/api/cart/items/{id}": {
            "patch": {"summary": "Set a line quantity; 0 removes it", "security": [{"Bearer": []}], "responses": {"200": {"description": "cart"}}},
            "delete": {"summary": "Remove a line", "security": [{"Bearer": []}], "responses": {"200": {"description": "cart"}}}
        },
        "/api/rfqs": {
            "get": {"summary": "Own RFQs", "security": [{"Bearer": []}], "responses": {"200": {"description": "rfqs"}}},
            "post": {"summary": "Submit the cart as an RFQ", "security": [{"Bearer": []}], "responses": {"201": {"description": "rfq"}}}
        },
        "/api/rfqs/{id}": {"get": {"summary": "One own RFQ", "security": [{"Bearer": []}], "responses": {"200": {"description": "rfq"}}}},
        "/api/rfqs/{id}/respond": {"post": {"summary": "Accept or reject a quote", "security": [{"Bearer": []}], "responses": {"200": {"description": "rfq and order"}, "409": {"description": "not quoted or expired"}}}},
        "/api/orders": {"get": {"summary": "Own orders", "security": [{"Bearer": []}], "responses": {"200": {"description": "orders"}}}},
        "/api/admin/stats": {"get": {"summary": "Dashboard stats", "security": [{"Bearer": []}], "responses": {"200": {"description": "stats"}}}},
        "/api/admin/settings": {
            "get": {"summary": "Settings merged over defaults", "security": [{"Bearer": []}], "responses": {"200": {"description": "settings"}}},
            "put": {"summary": "Store settings", "security": [{"Bearer": []}], "responses": {"200": {"description": "settings"}}}
        },
        "/api/admin/settings/export": {"get": {"summary": "Download settings JSON", "security": [{"Bearer": []}], "responses": {"200": {"description": "file"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Crop Catch API",
	Description:      "Storefront backend: catalog, cart, RFQs, orders and admin tools.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

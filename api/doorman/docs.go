// Package doorman holds the Swagger document served under /swagger/.
// Regenerate with: swag init -g internal/auth/http/router.go -o api/doorman
package doorman

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/doorman"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "description": "Serves the login form. Clients that already hold a valid session are sent to /home.",
                "produces": ["text/html"],
                "tags": ["Login"],
                "summary": "Login Page",
                "responses": {
                    "200": {"description": "login form", "schema": {"type": "string"}},
                    "302": {"description": "redirect to /home"}
                }
            }
        },
        "/login": {
            "post": {
                "description": "Authenticates against the local account or, failing that, the directory.\nRedirects to /home with a session cookie on success and to / otherwise.\nThe redirect never says why a login failed.",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Login"],
                "summary": "Log In",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "description": "Password", "name": "password", "in": "formData"}
                ],
                "responses": {
                    "302": {"description": "redirect to /home or /"},
                    "400": {"description": "invalid_request - malformed form body", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "429": {"description": "rate_limit_exceeded", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}},
                    "500": {"description": "server_error - credential store unavailable", "schema": {"$ref": "#/definitions/authsdk.ErrorResponse"}}
                }
            }
        },
        "/home": {
            "get": {
                "description": "Returns the identity bound to the session cookie. Requests without a valid session are redirected to the login page.",
                "produces": ["application/json"],
                "tags": ["Login"],
                "summary": "Home",
                "responses": {
                    "200": {"description": "account_id, username", "schema": {"$ref": "#/definitions/authsdk.HomeResponse"}},
                    "302": {"description": "redirect to / - no valid session"}
                }
            }
        },
        "/logout": {
            "post": {
                "description": "Expires the session cookie and redirects to the login page.",
                "tags": ["Login"],
                "summary": "Log Out",
                "responses": {
                    "302": {"description": "redirect to /"}
                }
            }
        },
        "/livez": {
            "get": {
                "description": "Liveness probe returning uptime and version. Always 200 while the process serves HTTP.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Readiness probe checking the credential store and the session signing key",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version, checks", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}},
                    "503": {"description": "status, uptime, version, checks - service not ready", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "authsdk.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"description": "Error is a short machine readable code (e.g., \"server_error\")", "type": "string"},
                "error_description": {"description": "ErrorDescription is a human-readable description of the error", "type": "string"}
            }
        },
        "authsdk.HomeResponse": {
            "type": "object",
            "properties": {
                "account_id": {"description": "AccountID is the ULID of the signed in account", "type": "string"},
                "username": {"description": "Username is the name the account logged in with", "type": "string"}
            }
        },
        "authsdk.HealthChecks": {
            "type": "object",
            "properties": {
                "database": {"description": "Database indicates the credential store connection status", "type": "string"},
                "signer": {"description": "Signer indicates the session signing capability status", "type": "string"}
            }
        },
        "authsdk.HealthResponse": {
            "type": "object",
            "properties": {
                "checks": {"$ref": "#/definitions/authsdk.HealthChecks"},
                "status": {"description": "Status indicates the overall health status (e.g., \"ok\")", "type": "string"},
                "uptime": {"description": "Uptime is the service uptime duration as a string (e.g., \"1h23m45s\")", "type": "string"},
                "version": {"description": "Version is the service version string", "type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "doorman Login Service API",
	Description:      "Form login against local accounts with an LDAP directory fallback.\n\nA successful login sets an EdDSA signed session cookie and redirects to /home.\nEvery failed login redirects back to / without saying why.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Package docs holds the OpenAPI document served under /docs. It mirrors the
// swag annotations on cmd/server and internal/handlers; regenerate with
// `swag init -g cmd/server/main.go` after changing them.
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
        "/providers": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["providers"],
                "summary": "Provider status of the generation service",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ProviderStatus"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/reset": {
            "post": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["submissions"],
                "summary": "Reset to idle",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {"$ref": "#/definitions/orchestrator.State"}
                        }
                    }
                }
            }
        },
        "/state": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["submissions"],
                "summary": "Current state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/orchestrator.State"}}
                }
            }
        },
        "/state/stream": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["text/event-stream"],
                "tags": ["submissions"],
                "summary": "Stream state transitions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/orchestrator.State"}}
                }
            }
        },
        "/submissions/{id}/wait": {
            "get": {
                "security": [{"Bearer": []}],
                "produces": ["application/json"],
                "tags": ["submissions"],
                "summary": "Wait for a submission to finish",
                "parameters": [
                    {"type": "integer", "description": "Submission ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/orchestrator.State"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/submit": {
            "post": {
                "security": [{"Bearer": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["submissions"],
                "summary": "Submit a generation request",
                "parameters": [
                    {
                        "description": "Form input",
                        "name": "input",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.FormInput"}
                    }
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handlers.SubmitResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.SubmitResponse": {
            "type": "object",
            "properties": {
                "state": {"$ref": "#/definitions/orchestrator.State"},
                "submission_id": {"type": "integer"}
            }
        },
        "middleware.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "string"},
                "message": {"type": "string"},
                "retry_after_ms": {"type": "integer"}
            }
        },
        "middleware.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/middleware.APIError"}
            }
        },
        "models.FormInput": {
            "type": "object",
            "properties": {
                "max_tokens": {"type": "integer"},
                "platform": {"type": "string"},
                "temperature": {"type": "number"},
                "text": {"type": "string"},
                "use_legacy": {"type": "boolean"}
            }
        },
        "models.GenerationError": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["server", "network", "client"]},
                "message": {"type": "string"},
                "status_code": {"type": "integer"}
            }
        },
        "models.GenerationResult": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "documents": {"type": "array", "items": {"type": "string"}},
                "fallback_used": {"type": "boolean"},
                "intent": {"type": "string"},
                "reason": {"type": "string"},
                "sentiment": {"type": "string"},
                "time_taken": {"type": "number"}
            }
        },
        "models.ProviderStatus": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "fallback_provider": {"type": "string"},
                "local_fallback": {"type": "string"},
                "primary_provider": {"type": "string"},
                "providers": {"type": "object", "additionalProperties": {"type": "boolean"}},
                "status": {"type": "string"}
            }
        },
        "orchestrator.State": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/models.GenerationError"},
                "kind": {"type": "string", "enum": ["idle", "loading", "success", "failure"]},
                "result": {"$ref": "#/definitions/models.GenerationResult"},
                "submission_id": {"type": "integer"},
                "updated_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "Promptly API",
	Description:      "Submission state machine in front of the Promptly generation service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Dance Board API",
        "description": "Shared dance class schedule with approval-gated changes.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Classes", "description": "Committed schedule and change submissions"},
        {"name": "Approvals", "description": "Approval link resolution"},
        {"name": "Styles", "description": "Style legend and custom colours"},
        {"name": "Suggestions", "description": "Visitor feedback"},
        {"name": "Export", "description": "Month downloads"},
        {"name": "Events", "description": "Refresh notifications"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Liveness check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Initial synchronization finished",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Still loading"}
                }
            }
        },
        "/": {
            "get": {
                "tags": ["Approvals"],
                "summary": "Board landing page and approval link target",
                "description": "With approvalAction and approvalToken the link is resolved and the client is redirected to the same path without the query. The outcome is carried in the board_notice cookie.",
                "parameters": [
                    {"name": "approvalAction", "in": "query", "type": "string", "enum": ["approve", "reject"]},
                    {"name": "approvalToken", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "303": {"description": "Approval link resolved"}
                }
            }
        },
        "/api/v1/approvals": {
            "get": {
                "tags": ["Approvals"],
                "summary": "Resolve an approval token",
                "parameters": [
                    {"name": "approvalAction", "in": "query", "required": true, "type": "string", "enum": ["approve", "reject"]},
                    {"name": "approvalToken", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid action", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Token not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/classes": {
            "get": {
                "tags": ["Classes"],
                "summary": "List committed classes",
                "parameters": [
                    {"name": "region", "in": "query", "type": "string", "enum": ["nyc", "bayarea"]},
                    {"name": "teacher", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "style", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Classes"],
                "summary": "Submit a new class for approval",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ClassSubmissionRequest"}}
                ],
                "responses": {
                    "202": {"description": "Submitted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/classes/{id}": {
            "get": {
                "tags": ["Classes"],
                "summary": "Get one class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/classes/{id}/edits": {
            "post": {
                "tags": ["Classes"],
                "summary": "Submit an edit of a class for approval",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ClassSubmissionRequest"}}
                ],
                "responses": {
                    "202": {"description": "Submitted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/classes/{id}/deletions": {
            "post": {
                "tags": ["Classes"],
                "summary": "Request deletion of a class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "202": {"description": "Submitted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/pending": {
            "get": {
                "tags": ["Classes"],
                "summary": "Records awaiting approval",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/filters": {
            "get": {
                "tags": ["Classes"],
                "summary": "Teachers and styles present in a region",
                "parameters": [
                    {"name": "region", "in": "query", "type": "string", "enum": ["nyc", "bayarea"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/styles": {
            "get": {
                "tags": ["Styles"],
                "summary": "Predefined styles, legend and custom colours",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/styles/custom": {
            "post": {
                "tags": ["Styles"],
                "summary": "Assign a colour to a custom style",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CustomStyleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/suggestions": {
            "post": {
                "tags": ["Suggestions"],
                "summary": "Send a suggestion",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SuggestionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/export": {
            "get": {
                "tags": ["Export"],
                "summary": "Download a month of classes",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "region", "in": "query", "type": "string", "enum": ["nyc", "bayarea"]},
                    {"name": "month", "in": "query", "type": "string", "description": "YYYY-MM"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/events": {
            "get": {
                "tags": ["Events"],
                "summary": "Websocket stream of board refresh events",
                "responses": {"101": {"description": "Switching protocols"}}
            }
        }
    },
    "definitions": {
        "ClassSubmissionRequest": {
            "type": "object",
            "required": ["name", "teacher", "date", "time", "ticketLink"],
            "properties": {
                "name": {"type": "string"},
                "teacher": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "time": {"type": "string", "example": "19:00"},
                "duration": {"type": "integer", "minimum": 0},
                "style": {"type": "string"},
                "customStyle": {"type": "string"},
                "level": {"type": "string"},
                "location": {"type": "string"},
                "ticketLink": {"type": "string"},
                "teacherBioUrl": {"type": "string"},
                "teacherInstagram": {"type": "string"},
                "region": {"type": "string", "enum": ["nyc", "bayarea"]},
                "soldOut": {"type": "boolean"},
                "onSale": {"type": "boolean"}
            }
        },
        "CustomStyleRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {"name": {"type": "string"}}
        },
        "SuggestionRequest": {
            "type": "object",
            "required": ["message"],
            "properties": {"message": {"type": "string"}}
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}

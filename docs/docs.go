// Package docs is generated by swaggo/swag from the handler annotations.
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
        "/api/dashboard": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Deals"],
                "summary": "Dashboard counters",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.DealStats"}}}
                }
            }
        },
        "/api/deals": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Deals"],
                "summary": "List deals",
                "parameters": [
                    {"type": "integer", "description": "Contact filter", "name": "contact_id", "in": "query"},
                    {"type": "integer", "description": "Pipeline filter", "name": "pipeline_id", "in": "query"},
                    {"type": "integer", "description": "Owner filter", "name": "owner_id", "in": "query"},
                    {"type": "string", "description": "open, won or lost", "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "array", "items": {"$ref": "#/definitions/models.Deal"}}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Without pipeline_id the tenant's earliest pipeline is used; without stage_id its first stage.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Deals"],
                "summary": "Create a deal",
                "parameters": [
                    {"description": "Deal", "name": "deal", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.DealInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.Deal"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/deals/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Deals"],
                "summary": "Get a deal",
                "parameters": [{"type": "integer", "description": "Deal ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.Deal"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "A stage_id in the body is applied as a stage transition before the other fields; an invalid field rejects the whole request.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Deals"],
                "summary": "Update a deal",
                "parameters": [
                    {"type": "integer", "description": "Deal ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "deal", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.updateDealRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.Deal"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Deals"],
                "summary": "Delete a deal",
                "parameters": [{"type": "integer", "description": "Deal ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/deals/{id}/stage": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Deals"],
                "summary": "Move a deal to another stage",
                "parameters": [
                    {"type": "integer", "description": "Deal ID", "name": "id", "in": "path", "required": true},
                    {"description": "Target stage", "name": "stage", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.transitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.Deal"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/pipelines": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Pipelines"],
                "summary": "List pipelines",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "array", "items": {"$ref": "#/definitions/models.Pipeline"}}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Pipelines"],
                "summary": "Create a pipeline",
                "parameters": [
                    {"description": "Name and ordered stages", "name": "pipeline", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.createPipelineRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.Pipeline"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/pipelines/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Pipelines"],
                "summary": "Get a pipeline",
                "parameters": [{"type": "integer", "description": "Pipeline ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.Pipeline"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Partial update. Replacing stages fails with 409 while deals sit in a removed stage.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Pipelines"],
                "summary": "Update a pipeline",
                "parameters": [
                    {"type": "integer", "description": "Pipeline ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "pipeline", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.PipelineUpdate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.Pipeline"}}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Pipelines"],
                "summary": "Delete a pipeline",
                "parameters": [{"type": "integer", "description": "Pipeline ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/pipelines/{id}/analytics": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Win rate over closed deals and average days spent in each stage.",
                "produces": ["application/json"],
                "tags": ["Pipelines"],
                "summary": "Pipeline analytics",
                "parameters": [{"type": "integer", "description": "Pipeline ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.PipelineAnalytics"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/pipelines/{id}/analytics/report": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "tags": ["Pipelines"],
                "summary": "Pipeline analytics report",
                "parameters": [{"type": "integer", "description": "Pipeline ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "handlers.createPipelineRequest": {
            "type": "object",
            "required": ["name", "stages"],
            "properties": {
                "name": {"type": "string"},
                "stages": {"type": "array", "minItems": 1, "items": {"$ref": "#/definitions/models.StageInput"}}
            }
        },
        "handlers.transitionRequest": {
            "type": "object",
            "required": ["stage_id"],
            "properties": {"stage_id": {"type": "string"}}
        },
        "handlers.updateDealRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "number"},
                "close_date": {"type": "string"},
                "contact_id": {"type": "integer"},
                "currency": {"type": "string"},
                "probability": {"type": "integer", "maximum": 100, "minimum": 0},
                "stage_id": {"type": "string"},
                "status": {"$ref": "#/definitions/models.DealStatus"},
                "title": {"type": "string"}
            }
        },
        "models.Deal": {
            "type": "object",
            "properties": {
                "amount": {"type": "number"},
                "close_date": {"type": "string"},
                "contact_id": {"type": "integer"},
                "created_at": {"type": "string"},
                "currency": {"type": "string"},
                "id": {"type": "integer"},
                "owner_id": {"type": "integer"},
                "pipeline_id": {"type": "integer"},
                "probability": {"type": "integer"},
                "stage_history": {"type": "array", "items": {"$ref": "#/definitions/models.StageHistoryEntry"}},
                "stage_id": {"type": "string"},
                "status": {"$ref": "#/definitions/models.DealStatus"},
                "tenant_id": {"type": "integer"},
                "title": {"type": "string"},
                "updated_at": {"type": "string"},
                "version": {"type": "integer"}
            }
        },
        "models.DealInput": {
            "type": "object",
            "required": ["contact_id", "title"],
            "properties": {
                "amount": {"type": "number", "minimum": 0},
                "close_date": {"type": "string"},
                "contact_id": {"type": "integer"},
                "currency": {"type": "string"},
                "pipeline_id": {"type": "integer"},
                "probability": {"type": "integer", "maximum": 100, "minimum": 0},
                "stage_id": {"type": "string"},
                "status": {"$ref": "#/definitions/models.DealStatus"},
                "title": {"type": "string"}
            }
        },
        "models.DealStats": {
            "type": "object",
            "properties": {
                "lost_deals": {"type": "integer"},
                "open_deals": {"type": "integer"},
                "total_deal_value": {"type": "number"},
                "won_deals": {"type": "integer"}
            }
        },
        "models.DealStatus": {
            "type": "string",
            "enum": ["open", "won", "lost"]
        },
        "models.Pipeline": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "stages": {"type": "array", "items": {"$ref": "#/definitions/models.Stage"}},
                "tenant_id": {"type": "integer"},
                "updated_at": {"type": "string"}
            }
        },
        "models.PipelineAnalytics": {
            "type": "object",
            "properties": {
                "per_stage_avg_days": {"type": "array", "items": {"$ref": "#/definitions/models.StageDwell"}},
                "pipeline_id": {"type": "integer"},
                "pipeline_name": {"type": "string"},
                "win_rate": {"type": "number"}
            }
        },
        "models.PipelineUpdate": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "stages": {"type": "array", "items": {"$ref": "#/definitions/models.StageInput"}}
            }
        },
        "models.Stage": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "order": {"type": "integer"}
            }
        },
        "models.StageDwell": {
            "type": "object",
            "properties": {
                "avg_days": {"type": "number"},
                "stage_id": {"type": "string"},
                "stage_name": {"type": "string"}
            }
        },
        "models.StageHistoryEntry": {
            "type": "object",
            "properties": {
                "entered_at": {"type": "string"},
                "exited_at": {"type": "string"},
                "stage_id": {"type": "string"}
            }
        },
        "models.StageInput": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "order": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "dealdesk API",
	Description:      "Deal pipelines, stage transitions and pipeline analytics.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Office API",
        "description": "Student records, club enrollment and contract administration.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Students", "description": "Student record management"},
        {"name": "Clubs", "description": "Clubs and capacities"},
        {"name": "Enrollments", "description": "Club membership"},
        {"name": "Contracts", "description": "Per-kind contract lifecycle"},
        {"name": "History", "description": "Aggregated cross-kind contract history"},
        {"name": "Registrations", "description": "New registration workflow"},
        {"name": "Documents", "description": "Rendered contract PDFs"}
    ],
    "paths": {
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "grade", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create student",
                "responses": {"201": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student detail",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete student and dependent records",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/clubs": {
            "get": {
                "tags": ["Clubs"],
                "summary": "List clubs with member counts",
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Clubs"],
                "summary": "Create club",
                "responses": {"201": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/clubs/{id}": {
            "get": {
                "tags": ["Clubs"],
                "summary": "Get club detail with members",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Clubs"],
                "summary": "Update club",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Clubs"],
                "summary": "Delete club and its enrollments",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/clubs/{id}/students": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll a student into a club",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"201": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/clubs/{id}/students/{selectionId}": {
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Remove a student from a club",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "selectionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"204": {"description": "Removed"}}
            }
        },
        "/club-selections": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll a batch of (club, student) pairs atomically",
                "responses": {"201": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/new-registrations": {
            "get": {
                "tags": ["Contracts"],
                "summary": "List contracts of one kind, newest first",
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Contracts"],
                "summary": "Create a contract",
                "responses": {"201": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/new-registrations/{id}": {
            "get": {
                "tags": ["Contracts"],
                "summary": "Get one contract",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Contracts"],
                "summary": "Replace a contract payload wholesale",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Contracts"],
                "summary": "Delete one contract",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/new-registrations/bulk-delete": {
            "post": {
                "tags": ["Contracts"],
                "summary": "Delete a batch of contracts of one kind",
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/history": {
            "get": {
                "tags": ["History"],
                "summary": "Aggregated contract history across all kinds",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "kind", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["History"],
                "summary": "Delete contracts across kinds, reporting partial failures",
                "responses": {
                    "200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "207": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/history/export": {
            "get": {
                "tags": ["History"],
                "summary": "Export the history view as CSV or PDF",
                "parameters": [{"name": "format", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "File download"}}
            }
        },
        "/registrations": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Finalize a new registration atomically",
                "responses": {"201": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/documents/{kind}/{studentId}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download the PDF of a student's latest contract of one kind",
                "parameters": [
                    {"name": "kind", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "PDF download"}}
            }
        },
        "/documents/combined/{studentId}": {
            "post": {
                "tags": ["Documents"],
                "summary": "Download one PDF combining a student's contracts",
                "parameters": [{"name": "studentId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "PDF download"}}
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Portal Colegio API",
        "description": "Parent, teacher and administration portal for a school: students, invoices, programs and administrative procedures.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Sessions and credentials"},
        {"name": "Parent", "description": "Screens for parents (PADRE)"},
        {"name": "Teacher", "description": "Procedure queue for teachers (MAESTRO)"},
        {"name": "Procedures", "description": "Administrative procedure workflow"},
        {"name": "Students", "description": "Student records and parent links"},
        {"name": "Invoices", "description": "Tuition invoices"},
        {"name": "Programs", "description": "Academic programs"},
        {"name": "Users", "description": "Accounts and roles"},
        {"name": "Reports", "description": "Reports and CSV/PDF exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Sign in",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "Session bundle", "schema": {"$ref": "#/definitions/LoginResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Inactive account", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate the refresh token",
                "responses": {"200": {"description": "Session bundle", "schema": {"$ref": "#/definitions/LoginResponse"}}}
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke the refresh token",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Signed out"}}
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current session",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Identity", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/parent/students": {
            "get": {
                "tags": ["Parent"],
                "summary": "Students linked to the caller",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Students", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/parent/students/{id}/procedures": {
            "get": {
                "tags": ["Parent"],
                "summary": "Procedures of a linked student",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "Procedures", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Student not linked to the caller"}
                }
            },
            "post": {
                "tags": ["Parent"],
                "summary": "Request a procedure for a linked student",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/Procedure"}}}
            }
        },
        "/parent/students/{id}/invoices": {
            "get": {
                "tags": ["Parent"],
                "summary": "Invoices of a linked student",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {"200": {"description": "Invoices", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/teacher/procedures": {
            "get": {
                "tags": ["Teacher"],
                "summary": "Procedures assigned to the caller",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Procedures", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/teacher/procedures/{id}": {
            "patch": {
                "tags": ["Teacher"],
                "summary": "Change status or notes of an assigned procedure",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "Updated"},
                    "409": {"description": "Invalid status transition"}
                }
            }
        },
        "/admin/procedures": {
            "get": {
                "tags": ["Procedures"],
                "summary": "List procedures",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "status", "type": "string"},
                    {"in": "query", "name": "student_id", "type": "integer"},
                    {"in": "query", "name": "assigned_to", "type": "integer"}
                ],
                "responses": {"200": {"description": "Procedures", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Procedures"],
                "summary": "Create a procedure",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/Procedure"}}}
            }
        },
        "/admin/procedures/{id}": {
            "patch": {
                "tags": ["Procedures"],
                "summary": "Update status, assignee or notes",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}],
                "responses": {
                    "200": {"description": "Updated"},
                    "409": {"description": "Invalid status transition"},
                    "422": {"description": "Assignee is not an active teacher"}
                }
            }
        },
        "/admin/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Students", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/invoices": {
            "get": {
                "tags": ["Invoices"],
                "summary": "List invoices",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Invoices", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/programs": {
            "get": {
                "tags": ["Programs"],
                "summary": "List programs",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Programs", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Users", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/reports/{kind}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Tabular report (students, invoices, procedures)",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "kind", "type": "string", "required": true}],
                "responses": {"200": {"description": "Report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/export/{kind}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a report as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"in": "path", "name": "kind", "type": "string", "required": true},
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "reports.export permission required"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "LoginResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"},
                "expires_in": {"type": "integer"},
                "expires_at": {"type": "string", "format": "date-time"},
                "roles": {"type": "array", "items": {"type": "string"}},
                "permissions": {"type": "array", "items": {"type": "string"}}
            }
        },
        "Procedure": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "student_id": {"type": "integer"},
                "procedure_type": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string", "enum": ["PENDIENTE", "EN_PROCESO", "APROBADO", "RECHAZADO"]},
                "assigned_to": {"type": "integer"},
                "requested_by": {"type": "integer"},
                "notes": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "approved_at": {"type": "string", "format": "date-time"},
                "approved_by": {"type": "integer"}
            }
        },
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

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Coaching Admin API",
        "description": "Administration API for coaching institutes: staff, students, batches, attendance, and fees.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Teachers", "description": "Teaching staff management"},
        {"name": "Parents", "description": "Guardian management"},
        {"name": "Students", "description": "Student management"},
        {"name": "Batches", "description": "Batch scheduling and membership"},
        {"name": "Attendance", "description": "Attendance recording and reports"},
        {"name": "Fees", "description": "Fee lifecycle and receipts"},
        {"name": "Dashboard", "description": "Admin summary"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and receive an access token",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List teachers",
                "parameters": [
                    {"in": "query", "name": "search", "type": "string"},
                    {"in": "query", "name": "subject", "type": "string"},
                    {"in": "query", "name": "status", "type": "string", "enum": ["active", "inactive"]},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Teachers"],
                "summary": "Onboard a teacher with a login account",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/teachers/{id}": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Get teacher detail",
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Teachers"],
                "summary": "Update teacher",
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Teachers"],
                "summary": "Delete teacher",
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/parents": {
            "get": {"tags": ["Parents"], "summary": "List parents", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Parents"], "summary": "Register a parent with a login account", "responses": {"201": {"description": "Created"}}}
        },
        "/parents/{id}": {
            "get": {"tags": ["Parents"], "summary": "Get parent detail", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Parents"], "summary": "Update parent profile", "responses": {"200": {"description": "OK"}}}
        },
        "/parents/{id}/students": {
            "get": {"tags": ["Parents"], "summary": "List a parent's students", "responses": {"200": {"description": "OK"}}}
        },
        "/students": {
            "get": {"tags": ["Students"], "summary": "List students", "responses": {"200": {"description": "OK"}}},
            "post": {
                "tags": ["Students"],
                "summary": "Enroll a student",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Roll number in use"}}
            }
        },
        "/students/{id}": {
            "get": {"tags": ["Students"], "summary": "Get student detail", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Students"], "summary": "Update student", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Students"], "summary": "Delete student", "responses": {"204": {"description": "Deleted"}}}
        },
        "/batches": {
            "get": {"tags": ["Batches"], "summary": "List batches", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Batches"], "summary": "Open a batch", "responses": {"201": {"description": "Created"}}}
        },
        "/batches/{id}": {
            "get": {"tags": ["Batches"], "summary": "Get batch detail with membership", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Batches"], "summary": "Update batch", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Batches"], "summary": "Delete batch", "responses": {"204": {"description": "Deleted"}}}
        },
        "/batches/{id}/students": {
            "get": {"tags": ["Batches"], "summary": "List the students of a batch", "responses": {"200": {"description": "OK"}}}
        },
        "/batches/{id}/teachers/{teacherId}": {
            "post": {"tags": ["Batches"], "summary": "Assign a teacher to a batch", "responses": {"204": {"description": "Assigned"}}},
            "delete": {"tags": ["Batches"], "summary": "Remove a teacher from a batch", "responses": {"204": {"description": "Removed"}}}
        },
        "/batches/{id}/students/{studentId}": {
            "post": {
                "tags": ["Batches"],
                "summary": "Enroll a student in a batch",
                "responses": {"204": {"description": "Enrolled"}, "409": {"description": "Batch full"}}
            },
            "delete": {"tags": ["Batches"], "summary": "Remove a student from a batch", "responses": {"204": {"description": "Removed"}}}
        },
        "/attendance/mark": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record an attendance mark",
                "description": "Re-marking the same student, batch, and date overwrites the status. An absence alert is sent at most once per record.",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/attendance/batch": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Full roster attendance view for a batch and day",
                "parameters": [
                    {"in": "query", "name": "batchId", "type": "string", "required": true},
                    {"in": "query", "name": "date", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/attendance/batch/export": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Download a batch/day attendance sheet as CSV",
                "produces": ["text/csv"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/attendance/student": {
            "get": {
                "tags": ["Attendance"],
                "summary": "A student's attendance history with statistics",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/attendance/monthly-report": {
            "get": {
                "tags": ["Attendance"],
                "summary": "A student's monthly attendance summary",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/attendance/monthly-report/email": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Queue monthly report emails for every student of a batch",
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/fees": {
            "get": {"tags": ["Fees"], "summary": "List fees", "responses": {"200": {"description": "OK"}}},
            "post": {
                "tags": ["Fees"],
                "summary": "Raise a fee obligation",
                "description": "The receipt number is reserved atomically at creation.",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Fee exists for the billing period"}}
            }
        },
        "/fees/{id}": {
            "get": {"tags": ["Fees"], "summary": "Get fee detail", "responses": {"200": {"description": "OK"}}}
        },
        "/fees/payment": {
            "post": {
                "tags": ["Fees"],
                "summary": "Record a fee payment",
                "responses": {"200": {"description": "OK"}, "409": {"description": "Fee already paid"}}
            }
        },
        "/fees/status/pending": {
            "get": {"tags": ["Fees"], "summary": "List pending fees", "responses": {"200": {"description": "OK"}}}
        },
        "/fees/status/overdue": {
            "get": {
                "tags": ["Fees"],
                "summary": "Sweep and list overdue fees",
                "description": "Pending fees past their due date are moved to overdue before listing.",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/fees/receipt/{feeId}": {
            "get": {
                "tags": ["Fees"],
                "summary": "View the receipt of a paid fee",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Fee not paid"}}
            }
        },
        "/fees/receipt/{feeId}/pdf": {
            "get": {
                "tags": ["Fees"],
                "summary": "Download the receipt of a paid fee as PDF",
                "produces": ["application/pdf"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/fees/receipt/{feeId}/link": {
            "post": {
                "tags": ["Fees"],
                "summary": "Create an expiring signed download link for a receipt",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/fees/receipt/download": {
            "get": {
                "tags": ["Fees"],
                "summary": "Download an archived receipt using a signed token",
                "produces": ["application/pdf"],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid or expired token"}}
            }
        },
        "/dashboard/summary": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Aggregated counts for the admin dashboard",
                "responses": {"200": {"description": "OK"}}
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

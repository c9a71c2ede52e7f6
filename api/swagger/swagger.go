package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "EduBridge Portal API",
        "description": "Approval workflows for report cards, school calendars and exam results",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "ReportCards", "description": "Report card review and publication"},
        {"name": "Calendar", "description": "School calendar lifecycle"},
        {"name": "ExamResults", "description": "Exam result publication"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/api/v1/report-cards": {
            "get": {
                "tags": ["ReportCards"],
                "summary": "List report cards",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "class_name", "in": "query", "type": "string"},
                    {"name": "student_id", "in": "query", "type": "string"},
                    {"name": "term", "in": "query", "type": "string"},
                    {"name": "session", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/report-cards/submit": {
            "post": {
                "tags": ["ReportCards"],
                "summary": "Submit a report card for review",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportCardScope"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"}
                }
            }
        },
        "/api/v1/report-cards/approve": {
            "post": {
                "tags": ["ReportCards"],
                "summary": "Approve and publish a pending report card",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApproveReportCardRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"},
                    "422": {"description": "No recipients"}
                }
            }
        },
        "/api/v1/report-cards/revoke": {
            "post": {
                "tags": ["ReportCards"],
                "summary": "Revoke a pending or approved report card",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RevokeReportCardRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Feedback required"}
                }
            }
        },
        "/api/v1/report-cards/trail": {
            "get": {
                "tags": ["ReportCards"],
                "summary": "Report card transition history",
                "parameters": [
                    {"name": "student_id", "in": "query", "type": "string", "required": true},
                    {"name": "class_name", "in": "query", "type": "string", "required": true},
                    {"name": "subject", "in": "query", "type": "string", "required": true},
                    {"name": "term", "in": "query", "type": "string", "required": true},
                    {"name": "session", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/report-cards/export": {
            "get": {
                "tags": ["ReportCards"],
                "summary": "Download an approved report card as PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "student_id", "in": "query", "type": "string", "required": true},
                    {"name": "class_name", "in": "query", "type": "string", "required": true},
                    {"name": "subject", "in": "query", "type": "string", "required": true},
                    {"name": "term", "in": "query", "type": "string", "required": true},
                    {"name": "session", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "PDF document"},
                    "412": {"description": "Not approved"}
                }
            }
        },
        "/api/v1/calendar": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Get the calendar for a term",
                "parameters": [
                    {"name": "term", "in": "query", "type": "string", "required": true},
                    {"name": "session", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/calendar/events": {
            "post": {
                "tags": ["Calendar"],
                "summary": "Add a calendar event",
                "parameters": [
                    {"name": "term", "in": "query", "type": "string", "required": true},
                    {"name": "session", "in": "query", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CalendarEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/calendar/events/{id}": {
            "put": {
                "tags": ["Calendar"],
                "summary": "Update a calendar event",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "term", "in": "query", "type": "string", "required": true},
                    {"name": "session", "in": "query", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CalendarEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Calendar"],
                "summary": "Remove a calendar event",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "term", "in": "query", "type": "string", "required": true},
                    {"name": "session", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/calendar/submit": {
            "post": {
                "tags": ["Calendar"],
                "summary": "Submit the calendar for approval",
                "parameters": [
                    {"name": "term", "in": "query", "type": "string", "required": true},
                    {"name": "session", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"}
                }
            }
        },
        "/api/v1/calendar/approve": {
            "post": {
                "tags": ["Calendar"],
                "summary": "Approve a pending calendar",
                "parameters": [
                    {"name": "term", "in": "query", "type": "string", "required": true},
                    {"name": "session", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"}
                }
            }
        },
        "/api/v1/calendar/publish": {
            "post": {
                "tags": ["Calendar"],
                "summary": "Publish an approved calendar",
                "parameters": [
                    {"name": "term", "in": "query", "type": "string", "required": true},
                    {"name": "session", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"}
                }
            }
        },
        "/api/v1/exam-results": {
            "get": {
                "tags": ["ExamResults"],
                "summary": "List result rows for an exam",
                "parameters": [
                    {"name": "exam_id", "in": "query", "type": "string", "required": true},
                    {"name": "student_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["ExamResults"],
                "summary": "Upload a batch of scored rows",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveResultsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Validation failure"}
                }
            }
        },
        "/api/v1/exam-results/{exam_id}/publish": {
            "post": {
                "tags": ["ExamResults"],
                "summary": "Release every pending row for an exam",
                "parameters": [
                    {"name": "exam_id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/exam-results/withhold": {
            "post": {
                "tags": ["ExamResults"],
                "summary": "Withhold a single pending row",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/WithholdResultRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"}
                }
            }
        }
    },
    "definitions": {
        "ReportCardScope": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "class_name": {"type": "string"},
                "subject": {"type": "string"},
                "term": {"type": "string"},
                "session": {"type": "string"}
            },
            "required": ["student_id", "class_name", "subject", "term", "session"]
        },
        "Recipient": {
            "type": "object",
            "properties": {
                "parent_id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "ApproveReportCardRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "class_name": {"type": "string"},
                "subject": {"type": "string"},
                "term": {"type": "string"},
                "session": {"type": "string"},
                "recipients": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/Recipient"}
                }
            },
            "required": ["student_id", "class_name", "subject", "term", "session"]
        },
        "RevokeReportCardRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "class_name": {"type": "string"},
                "subject": {"type": "string"},
                "term": {"type": "string"},
                "session": {"type": "string"},
                "feedback": {"type": "string"}
            },
            "required": ["student_id", "class_name", "subject", "term", "session", "feedback"]
        },
        "CalendarEventRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "event_type": {"type": "string"},
                "start_date": {"type": "string", "format": "date-time"},
                "end_date": {"type": "string", "format": "date-time"},
                "location": {"type": "string"}
            },
            "required": ["title", "event_type", "start_date", "end_date"]
        },
        "ResultRow": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "ca1": {"type": "number"},
                "ca2": {"type": "number"},
                "assignment": {"type": "number"},
                "exam": {"type": "number"}
            },
            "required": ["student_id"]
        },
        "SaveResultsRequest": {
            "type": "object",
            "properties": {
                "exam_id": {"type": "string"},
                "auto_publish": {"type": "boolean"},
                "rows": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ResultRow"}
                }
            },
            "required": ["exam_id", "rows"]
        },
        "WithholdResultRequest": {
            "type": "object",
            "properties": {
                "exam_id": {"type": "string"},
                "student_id": {"type": "string"},
                "note": {"type": "string"}
            },
            "required": ["exam_id", "student_id", "note"]
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

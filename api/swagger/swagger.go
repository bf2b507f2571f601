package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Revision API",
        "description": "Topic feedback for graded submissions and personalised revision lists.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Feedback", "description": "Topic mastery per graded submission"},
        {"name": "Revision", "description": "Revision lists and item progress"}
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
                    "503": {"description": "A dependency is unavailable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/submissions/{submissionId}/feedback": {
            "get": {
                "tags": ["Feedback"],
                "summary": "Topic feedback for a submission",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "submissionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FeedbackSummaryEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/revision-lists": {
            "post": {
                "tags": ["Revision"],
                "summary": "Create or refresh a revision list",
                "description": "Adds practice for weak topics without touching existing items.",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateRevisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RevisionListEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/assignments/{assignmentId}/revision-lists": {
            "post": {
                "tags": ["Revision"],
                "summary": "Build revision lists for every graded submission of an assignment",
                "description": "Failures are reported per student and do not stop the batch.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "assignmentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AssignmentRevisionEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/revision-lists/{listId}": {
            "get": {
                "tags": ["Revision"],
                "summary": "Get a revision list by ID",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "listId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RevisionListEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Revision"],
                "summary": "Delete a revision list",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "listId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/revision-items/{itemId}": {
            "patch": {
                "tags": ["Revision"],
                "summary": "Record progress on a revision item",
                "description": "Items move pending, in_progress, completed. Regressions return 409.",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "itemId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordProgressRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RevisionItemEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{studentId}/revision-lists": {
            "get": {
                "tags": ["Revision"],
                "summary": "List a student's revision lists",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students/{studentId}/revision-lists/current": {
            "get": {
                "tags": ["Revision"],
                "summary": "Get a student's revision list",
                "description": "Without assignmentId the teacher-curated list is returned.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "assignmentId", "in": "query", "required": false, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RevisionListEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "TopicBreakdown": {
            "type": "object",
            "properties": {
                "topic_key": {"type": "string"},
                "topic": {"type": "string"},
                "sub_topic": {"type": "string"},
                "earned_marks": {"type": "number"},
                "total_marks": {"type": "number"},
                "percentage": {"type": "integer"},
                "rag_status": {"type": "string", "enum": ["red", "amber", "green"]},
                "difficulty": {"type": "string"},
                "question_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "FeedbackSummary": {
            "type": "object",
            "properties": {
                "submission_id": {"type": "string"},
                "student_id": {"type": "string"},
                "assignment_id": {"type": "string"},
                "overall": {"$ref": "#/definitions/TopicBreakdown"},
                "by_topic": {"type": "array", "items": {"$ref": "#/definitions/TopicBreakdown"}},
                "weak_topics": {"type": "array", "items": {"$ref": "#/definitions/TopicBreakdown"}},
                "rejected": {"type": "array", "items": {"type": "object", "properties": {"question_id": {"type": "string"}, "reason": {"type": "string"}}}}
            }
        },
        "GenerateRevisionRequest": {
            "type": "object",
            "required": ["studentId"],
            "properties": {
                "studentId": {"type": "string"},
                "assignmentId": {"type": "string"},
                "title": {"type": "string", "maxLength": 200},
                "description": {"type": "string"},
                "topics": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "required": ["topic"],
                        "properties": {
                            "topic": {"type": "string"},
                            "subTopic": {"type": "string"},
                            "difficulty": {"type": "string"},
                            "ragStatus": {"type": "string", "enum": ["red", "amber"]}
                        }
                    }
                }
            }
        },
        "RecordProgressRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["pending", "in_progress", "completed"]},
                "answer": {"type": "string"}
            }
        },
        "RevisionListItem": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "revision_list_id": {"type": "string"},
                "question_id": {"type": "string"},
                "topic": {"type": "string"},
                "sub_topic": {"type": "string"},
                "targeted_topic_key": {"type": "string"},
                "marks": {"type": "number"},
                "order_index": {"type": "integer"},
                "allocation_status": {"type": "string", "enum": ["pending", "in_progress", "completed"]},
                "student_answer": {"type": "string"},
                "started_at": {"type": "string", "format": "date-time"},
                "completed_at": {"type": "string", "format": "date-time"}
            }
        },
        "RevisionProgress": {
            "type": "object",
            "properties": {
                "pending": {"type": "integer"},
                "in_progress": {"type": "integer"},
                "completed": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "RevisionListDetail": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student_id": {"type": "string"},
                "source_assignment_id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "in_progress", "completed"]},
                "items": {"type": "array", "items": {"$ref": "#/definitions/RevisionListItem"}},
                "progress": {"$ref": "#/definitions/RevisionProgress"},
                "gaps": {"type": "array", "items": {"type": "object", "properties": {"topic_key": {"type": "string"}, "reason": {"type": "string"}}}},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "AssignmentRevisionResult": {
            "type": "object",
            "properties": {
                "assignment_id": {"type": "string"},
                "success_count": {"type": "integer"},
                "failed_count": {"type": "integer"},
                "students": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "student_id": {"type": "string"},
                            "submission_id": {"type": "string"},
                            "list_id": {"type": "string"},
                            "items": {"type": "integer"},
                            "gaps": {"type": "array", "items": {"type": "object", "properties": {"topic_key": {"type": "string"}, "reason": {"type": "string"}}}},
                            "error": {"type": "string"}
                        }
                    }
                }
            }
        },
        "AssignmentRevisionEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/AssignmentRevisionResult"},
                "meta": {"type": "object"}
            }
        },
        "FeedbackSummaryEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/FeedbackSummary"}
            }
        },
        "RevisionListEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/RevisionListDetail"},
                "meta": {"type": "object"}
            }
        },
        "RevisionItemEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/RevisionListItem"}
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

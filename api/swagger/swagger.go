package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Wellbeing API",
        "description": "Student risk assessment, alerting and intervention tracking",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Risk",
            "description": "Risk scoring and assessment history"
        },
        {
            "name": "Alerts",
            "description": "Alert tracker"
        },
        {
            "name": "Interventions",
            "description": "Intervention scheduling and remediation"
        },
        {
            "name": "Recommendations",
            "description": "AI intervention suggestions"
        },
        {
            "name": "Concerns",
            "description": "Teacher concern reports"
        },
        {
            "name": "Wellness",
            "description": "Student wellness check-ins"
        },
        {
            "name": "Dashboard",
            "description": "Counselor dashboard"
        },
        {
            "name": "Reports",
            "description": "At-risk exports"
        }
    ],
    "paths": {
        "/risk/recalculate": {
            "post": {
                "tags": [
                    "Risk"
                ],
                "summary": "Recalculate risk for all active students",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/risk/students/{id}/assess": {
            "post": {
                "tags": [
                    "Risk"
                ],
                "summary": "Assess one student now",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Student ID"
                    }
                ]
            }
        },
        "/risk/students/{id}/latest": {
            "get": {
                "tags": [
                    "Risk"
                ],
                "summary": "Latest risk assessment",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Student ID"
                    }
                ]
            }
        },
        "/risk/students/{id}/history": {
            "get": {
                "tags": [
                    "Risk"
                ],
                "summary": "Risk assessment history, newest first",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Student ID"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer"
                    }
                ]
            }
        },
        "/risk/at-risk": {
            "get": {
                "tags": [
                    "Risk"
                ],
                "summary": "Students by latest risk level",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "level",
                        "in": "query",
                        "type": "string",
                        "description": "Comma separated levels"
                    },
                    {
                        "name": "gradeLevel",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "section",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer"
                    }
                ]
            }
        },
        "/alerts": {
            "get": {
                "tags": [
                    "Alerts"
                ],
                "summary": "List alerts",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "type",
                        "in": "query",
                        "type": "string",
                        "description": "Comma separated alert types"
                    },
                    {
                        "name": "severity",
                        "in": "query",
                        "type": "string",
                        "description": "Comma separated severities"
                    },
                    {
                        "name": "resolved",
                        "in": "query",
                        "type": "boolean"
                    },
                    {
                        "name": "read",
                        "in": "query",
                        "type": "boolean"
                    },
                    {
                        "name": "studentId",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer"
                    }
                ]
            }
        },
        "/alerts/{id}": {
            "get": {
                "tags": [
                    "Alerts"
                ],
                "summary": "Get alert",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Alert ID"
                    }
                ]
            }
        },
        "/alerts/{id}/read": {
            "post": {
                "tags": [
                    "Alerts"
                ],
                "summary": "Mark alert as read",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Alert ID"
                    }
                ]
            }
        },
        "/alerts/{id}/resolve": {
            "post": {
                "tags": [
                    "Alerts"
                ],
                "summary": "Resolve alert",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Alert ID"
                    }
                ]
            }
        },
        "/interventions": {
            "get": {
                "tags": [
                    "Interventions"
                ],
                "summary": "List interventions",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "gradeLevel",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "studentId",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer"
                    }
                ]
            },
            "post": {
                "tags": [
                    "Interventions"
                ],
                "summary": "Schedule an intervention",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateInterventionRequest"
                        }
                    }
                ]
            }
        },
        "/interventions/remediate": {
            "post": {
                "tags": [
                    "Interventions"
                ],
                "summary": "Schedule interventions for students with unresolved high-severity alerts",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/interventions/ai": {
            "post": {
                "tags": [
                    "Interventions"
                ],
                "summary": "Schedule an AI-recommended intervention",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AIInterventionRequest"
                        }
                    }
                ]
            }
        },
        "/interventions/{id}/complete": {
            "post": {
                "tags": [
                    "Interventions"
                ],
                "summary": "Complete an intervention",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Intervention ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/CloseInterventionRequest"
                        }
                    }
                ]
            }
        },
        "/interventions/{id}/cancel": {
            "post": {
                "tags": [
                    "Interventions"
                ],
                "summary": "Cancel an intervention",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Intervention ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/CloseInterventionRequest"
                        }
                    }
                ]
            }
        },
        "/students/{id}/recommendations": {
            "get": {
                "tags": [
                    "Recommendations"
                ],
                "summary": "Ranked intervention recommendations",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Student ID"
                    }
                ]
            }
        },
        "/concerns": {
            "get": {
                "tags": [
                    "Concerns"
                ],
                "summary": "List teacher concerns",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "studentId",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "teacherId",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "severity",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer"
                    }
                ]
            },
            "post": {
                "tags": [
                    "Concerns"
                ],
                "summary": "Report a concern about a student",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateConcernRequest"
                        }
                    }
                ]
            }
        },
        "/wellness/checkins": {
            "post": {
                "tags": [
                    "Wellness"
                ],
                "summary": "Submit a wellness check-in",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateCheckInRequest"
                        }
                    }
                ]
            }
        },
        "/wellness/students/{id}/checkins": {
            "get": {
                "tags": [
                    "Wellness"
                ],
                "summary": "Recent wellness check-ins for a student",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Student ID"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer"
                    }
                ]
            }
        },
        "/dashboard/counselor": {
            "get": {
                "tags": [
                    "Dashboard"
                ],
                "summary": "Counselor caseload summary",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/reports/at-risk": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Export the at-risk list",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "description": "csv or pdf"
                    },
                    {
                        "name": "level",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "gradeLevel",
                        "in": "query",
                        "type": "integer"
                    },
                    {
                        "name": "section",
                        "in": "query",
                        "type": "string"
                    }
                ],
                "produces": [
                    "text/csv",
                    "application/pdf"
                ]
            }
        }
    },
    "definitions": {
        "CreateInterventionRequest": {
            "type": "object",
            "required": [
                "student_id",
                "intervention_type",
                "scheduled_date"
            ],
            "properties": {
                "student_id": {
                    "type": "string"
                },
                "intervention_type": {
                    "type": "string",
                    "enum": [
                        "counseling",
                        "tutoring",
                        "mentoring",
                        "parent_meeting",
                        "group_counseling",
                        "study_skills",
                        "other"
                    ]
                },
                "description": {
                    "type": "string"
                },
                "scheduled_date": {
                    "type": "string",
                    "format": "date-time"
                },
                "notes": {
                    "type": "string"
                }
            }
        },
        "CloseInterventionRequest": {
            "type": "object",
            "properties": {
                "notes": {
                    "type": "string"
                },
                "outcome": {
                    "type": "string"
                }
            }
        },
        "AIInterventionRequest": {
            "type": "object",
            "required": [
                "student_id"
            ],
            "properties": {
                "student_id": {
                    "type": "string"
                }
            }
        },
        "CreateConcernRequest": {
            "type": "object",
            "required": [
                "student_id",
                "concern_type",
                "severity",
                "description"
            ],
            "properties": {
                "student_id": {
                    "type": "string"
                },
                "concern_type": {
                    "type": "string",
                    "enum": [
                        "academic",
                        "behavioral",
                        "emotional",
                        "attendance",
                        "social",
                        "other"
                    ]
                },
                "severity": {
                    "type": "string",
                    "enum": [
                        "low",
                        "medium",
                        "high"
                    ]
                },
                "description": {
                    "type": "string"
                },
                "date_observed": {
                    "type": "string",
                    "format": "date"
                }
            }
        },
        "CreateCheckInRequest": {
            "type": "object",
            "required": [
                "stress_level",
                "motivation_level",
                "workload_level",
                "sleep_quality"
            ],
            "properties": {
                "student_id": {
                    "type": "string"
                },
                "stress_level": {
                    "type": "integer",
                    "minimum": 1,
                    "maximum": 5
                },
                "motivation_level": {
                    "type": "integer",
                    "minimum": 1,
                    "maximum": 5
                },
                "workload_level": {
                    "type": "integer",
                    "minimum": 1,
                    "maximum": 5
                },
                "sleep_quality": {
                    "type": "integer",
                    "minimum": 1,
                    "maximum": 5
                },
                "need_help": {
                    "type": "boolean"
                },
                "free_text": {
                    "type": "string"
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
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

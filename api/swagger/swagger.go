package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Scheduler API",
        "description": "Constraint-based room and timetable scheduling for academic terms",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Scheduler", "description": "Schedule generation and proposals"},
        {"name": "Schedule", "description": "Run lifecycle, timetable queries and exports"},
        {"name": "Overrides", "description": "Week-scoped placement overrides"},
        {"name": "Absences", "description": "Faculty absences and makeup classes"},
        {"name": "Rooms", "description": "Room catalog"},
        {"name": "Sections", "description": "Course section catalog"},
        {"name": "Faculty", "description": "Faculty catalog"}
    ],
    "paths": {
        "/scheduler/generate": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Generate a schedule proposal for a term",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Configuration or validation error"}
                }
            }
        },
        "/scheduler/save": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Persist a proposal as a versioned draft run",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Unplaced sections without allowPartial"}
                }
            }
        },
        "/scheduler/proposals/{id}": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Fetch a pending proposal",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Expired or unknown proposal"}
                }
            }
        },
        "/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Query the effective timetable",
                "parameters": [
                    {"name": "termId", "in": "query", "type": "string"},
                    {"name": "runId", "in": "query", "type": "string"},
                    {"name": "roomId", "in": "query", "type": "string"},
                    {"name": "facultyId", "in": "query", "type": "string"},
                    {"name": "sectionId", "in": "query", "type": "string"},
                    {"name": "dayOfWeek", "in": "query", "type": "integer"},
                    {"name": "weekStart", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/runs": {
            "get": {
                "tags": ["Schedule"],
                "summary": "List schedule runs for a term",
                "parameters": [
                    {"name": "termId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/runs/{id}": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Get one schedule run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Schedule"],
                "summary": "Delete a draft run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Run is not a draft"}
                }
            }
        },
        "/schedule/runs/{id}/lock": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Lock a run, superseding any previously locked run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/runs/{id}/export": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Queue a timetable export",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/exports/{token}": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Download a finished export",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File attachment"},
                    "404": {"description": "Not ready or expired"}
                }
            }
        },
        "/overrides": {
            "get": {
                "tags": ["Overrides"],
                "summary": "List overrides",
                "parameters": [
                    {"name": "runId", "in": "query", "type": "string"},
                    {"name": "allocationId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "weekStart", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Overrides"],
                "summary": "Create a placement override for one week or permanently",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateOverrideRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict with an existing meeting"}
                }
            }
        },
        "/overrides/{id}": {
            "delete": {
                "tags": ["Overrides"],
                "summary": "Cancel an override",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/absences": {
            "get": {
                "tags": ["Absences"],
                "summary": "List absences for the authenticated faculty member",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Absences"],
                "summary": "Report an absence for an owned allocation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportAbsenceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/makeups": {
            "post": {
                "tags": ["Absences"],
                "summary": "Request a makeup class slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateMakeupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/makeups/pending": {
            "get": {
                "tags": ["Absences"],
                "summary": "List pending makeup requests",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/makeups/{id}/decide": {
            "post": {
                "tags": ["Absences"],
                "summary": "Approve or reject a makeup request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecideMakeupRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot conflicts with the effective schedule"}
                }
            }
        },
        "/rooms": {
            "get": {
                "tags": ["Rooms"],
                "summary": "List rooms",
                "parameters": [
                    {"name": "building", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "roomType", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Rooms"],
                "summary": "Register a room",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRoomRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rooms/{id}": {
            "get": {
                "tags": ["Rooms"],
                "summary": "Get one room",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["Rooms"],
                "summary": "Update a room",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateRoomRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Rooms"],
                "summary": "Delete or deactivate a room",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/sections": {
            "get": {
                "tags": ["Sections"],
                "summary": "List sections",
                "parameters": [
                    {"name": "termId", "in": "query", "type": "string"},
                    {"name": "facultyId", "in": "query", "type": "string"},
                    {"name": "yearLevel", "in": "query", "type": "integer"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sections"],
                "summary": "Register a section",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSectionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sections/{id}": {
            "get": {
                "tags": ["Sections"],
                "summary": "Get one section",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["Sections"],
                "summary": "Update a section",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSectionRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Sections"],
                "summary": "Delete a section",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/faculty": {
            "get": {
                "tags": ["Faculty"],
                "summary": "List faculty members",
                "parameters": [
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Faculty"],
                "summary": "Register a faculty member",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateFacultyRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/faculty/{id}": {
            "get": {
                "tags": ["Faculty"],
                "summary": "Get one faculty member",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "patch": {
                "tags": ["Faculty"],
                "summary": "Update a faculty member",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateFacultyRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "GenerateScheduleRequest": {
            "type": "object",
            "required": ["termId"],
            "properties": {
                "termId": {"type": "string"},
                "startHour": {"type": "integer"},
                "endHour": {"type": "integer"},
                "days": {"type": "array", "items": {"type": "integer"}},
                "onlineDays": {"type": "array", "items": {"type": "integer"}},
                "includedSectionIds": {"type": "array", "items": {"type": "string"}},
                "includedRoomIds": {"type": "array", "items": {"type": "string"}},
                "seed": {"type": "integer"},
                "iterationBudget": {"type": "integer"},
                "maxBlockHours": {"type": "integer"},
                "ignoreWeeklyHours": {"type": "boolean"},
                "meta": {"type": "object"}
            }
        },
        "SaveScheduleRequest": {
            "type": "object",
            "required": ["proposalId"],
            "properties": {
                "proposalId": {"type": "string"},
                "allowPartial": {"type": "boolean"}
            }
        },
        "CreateOverrideRequest": {
            "type": "object",
            "required": ["allocationId", "weekStart", "dayOfWeek", "startHour", "endHour", "roomId"],
            "properties": {
                "allocationId": {"type": "string"},
                "weekStart": {"type": "string", "format": "date"},
                "dayOfWeek": {"type": "integer"},
                "startHour": {"type": "integer"},
                "endHour": {"type": "integer"},
                "roomId": {"type": "string"},
                "permanent": {"type": "boolean"}
            }
        },
        "ReportAbsenceRequest": {
            "type": "object",
            "required": ["allocationId", "date"],
            "properties": {
                "allocationId": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "reason": {"type": "string"}
            }
        },
        "CreateMakeupRequest": {
            "type": "object",
            "required": ["allocationId", "weekStart", "dayOfWeek", "startHour", "endHour", "roomId"],
            "properties": {
                "absenceId": {"type": "string"},
                "allocationId": {"type": "string"},
                "weekStart": {"type": "string", "format": "date"},
                "dayOfWeek": {"type": "integer"},
                "startHour": {"type": "integer"},
                "endHour": {"type": "integer"},
                "roomId": {"type": "string"}
            }
        },
        "DecideMakeupRequest": {
            "type": "object",
            "required": ["approve"],
            "properties": {
                "approve": {"type": "boolean"},
                "note": {"type": "string"}
            }
        },
        "CreateRoomRequest": {
            "type": "object",
            "required": ["code", "building", "capacity"],
            "properties": {
                "code": {"type": "string"},
                "building": {"type": "string"},
                "capacity": {"type": "integer"},
                "roomType": {"type": "string"},
                "features": {"type": "array", "items": {"type": "string"}}
            }
        },
        "UpdateRoomRequest": {
            "type": "object",
            "properties": {
                "capacity": {"type": "integer"},
                "roomType": {"type": "string"},
                "status": {"type": "string"},
                "features": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CreateSectionRequest": {
            "type": "object",
            "required": ["courseCode", "courseName", "termId", "enrollment"],
            "properties": {
                "courseCode": {"type": "string"},
                "courseName": {"type": "string"},
                "termId": {"type": "string"},
                "facultyId": {"type": "string"},
                "enrollment": {"type": "integer"},
                "yearLevel": {"type": "integer"},
                "lectureHours": {"type": "integer"},
                "labHours": {"type": "integer"},
                "lectureFeatures": {"type": "array", "items": {"type": "string"}},
                "labFeatures": {"type": "array", "items": {"type": "string"}},
                "online": {"type": "boolean"}
            }
        },
        "UpdateSectionRequest": {
            "type": "object",
            "properties": {
                "facultyId": {"type": "string"},
                "enrollment": {"type": "integer"},
                "lectureHours": {"type": "integer"},
                "labHours": {"type": "integer"},
                "online": {"type": "boolean"}
            }
        },
        "CreateFacultyRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "department": {"type": "string"},
                "maxWeeklyHours": {"type": "integer"},
                "unavailable": {"type": "array", "items": {"$ref": "#/definitions/AvailabilityWindow"}},
                "preferred": {"type": "array", "items": {"$ref": "#/definitions/AvailabilityWindow"}}
            }
        },
        "UpdateFacultyRequest": {
            "type": "object",
            "properties": {
                "department": {"type": "string"},
                "maxWeeklyHours": {"type": "integer"},
                "active": {"type": "boolean"},
                "unavailable": {"type": "array", "items": {"$ref": "#/definitions/AvailabilityWindow"}},
                "preferred": {"type": "array", "items": {"$ref": "#/definitions/AvailabilityWindow"}}
            }
        },
        "AvailabilityWindow": {
            "type": "object",
            "properties": {
                "dayOfWeek": {"type": "integer"},
                "startHour": {"type": "integer"},
                "endHour": {"type": "integer"}
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

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "AcadOps Timetable API",
        "description": "Scheduling and conflict-resolution engine for academic administration",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Terms", "description": "Academic terms"},
        {"name": "Sections", "description": "Student sections"},
        {"name": "SectionCourses", "description": "Course offerings per section"},
        {"name": "Schedules", "description": "Weekly meeting slots and conflict detection"},
        {"name": "Rooms", "description": "Physical rooms"},
        {"name": "Faculty", "description": "Faculty roster"},
        {"name": "Catalog", "description": "Departments, programs and courses"}
    ],
    "paths": {
        "/terms": {
            "get": {
                "tags": ["Terms"],
                "summary": "List terms",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Terms"],
                "summary": "Create term",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate"}}
            }
        },
        "/terms/{id}": {
            "delete": {
                "tags": ["Terms"],
                "summary": "Delete term",
                "responses": {"204": {"description": "Deleted"}, "409": {"description": "Dependents exist"}}
            }
        },
        "/terms/{id}/sections": {
            "get": {
                "tags": ["Terms"],
                "summary": "List sections in a term",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/sections": {
            "post": {
                "tags": ["Sections"],
                "summary": "Create section",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/sections/{id}": {
            "get": {
                "tags": ["Sections"],
                "summary": "Get section",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "delete": {
                "tags": ["Sections"],
                "summary": "Delete section",
                "responses": {"204": {"description": "Deleted"}, "409": {"description": "Dependents exist"}}
            }
        },
        "/sections/{id}/capacity": {
            "patch": {
                "tags": ["Sections"],
                "summary": "Update section capacity",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Below enrollment"}}
            }
        },
        "/sections/{id}/courses": {
            "get": {
                "tags": ["SectionCourses"],
                "summary": "List section offerings",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/sections/{id}/timetable": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Weekly timetable of a section",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/sections/{id}/timetable/export": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Export timetable as CSV or PDF",
                "responses": {"200": {"description": "File"}}
            }
        },
        "/section-courses": {
            "post": {
                "tags": ["SectionCourses"],
                "summary": "Assign course to section",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate assignment"}}
            }
        },
        "/section-courses/{id}/faculty": {
            "patch": {
                "tags": ["SectionCourses"],
                "summary": "Assign or clear offering faculty",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/section-courses/{id}": {
            "delete": {
                "tags": ["SectionCourses"],
                "summary": "Delete offering",
                "responses": {"204": {"description": "Deleted"}, "409": {"description": "Schedules exist"}}
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List schedules",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Schedules"],
                "summary": "Create schedule slot",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Schedule conflict"}}
            }
        },
        "/schedules/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get schedule",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "patch": {
                "tags": ["Schedules"],
                "summary": "Partially update schedule slot",
                "responses": {"200": {"description": "OK"}, "409": {"description": "Schedule conflict"}}
            },
            "delete": {
                "tags": ["Schedules"],
                "summary": "Delete schedule slot",
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/rooms": {
            "get": {
                "tags": ["Rooms"],
                "summary": "List rooms",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Rooms"],
                "summary": "Create room",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/rooms/{id}": {
            "delete": {
                "tags": ["Rooms"],
                "summary": "Delete room",
                "responses": {"204": {"description": "Deleted"}, "409": {"description": "Schedules exist"}}
            }
        },
        "/faculty": {
            "get": {
                "tags": ["Faculty"],
                "summary": "List faculty",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/faculty/{id}": {
            "get": {
                "tags": ["Faculty"],
                "summary": "Get faculty member",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/departments": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List departments",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/departments/{id}": {
            "delete": {
                "tags": ["Catalog"],
                "summary": "Delete department",
                "responses": {"204": {"description": "Deleted"}, "409": {"description": "Programs exist"}}
            }
        },
        "/programs/{id}": {
            "delete": {
                "tags": ["Catalog"],
                "summary": "Delete program",
                "responses": {"204": {"description": "Deleted"}, "409": {"description": "Courses exist"}}
            }
        },
        "/courses": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List courses",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Create course",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate code"}}
            }
        },
        "/courses/{id}": {
            "delete": {
                "tags": ["Catalog"],
                "summary": "Delete course",
                "responses": {"204": {"description": "Deleted"}, "409": {"description": "Offerings exist"}}
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
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

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Activity Media API",
        "description": "Media submission service for topic activities",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Submissions", "description": "Per-activity photo and video submission"},
        {"name": "Listings", "description": "Topic-wide media listings"}
    ],
    "paths": {
        "/activities/{userId}/{topic}/{activityNo}/image": {
            "post": {
                "tags": ["Submissions"],
                "summary": "Submit the photo for an activity",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "userId", "in": "path", "required": true, "type": "string"},
                    {"name": "topic", "in": "path", "required": true, "type": "string", "enum": ["Archimedes", "MarieCurie", "Tesla", "Einstein"]},
                    {"name": "activityNo", "in": "path", "required": true, "type": "integer"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation or duplicate error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Upload or persistence failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/activities/{userId}/{topic}/{activityNo}/video": {
            "post": {
                "tags": ["Submissions"],
                "summary": "Submit the video for an activity",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "userId", "in": "path", "required": true, "type": "string"},
                    {"name": "topic", "in": "path", "required": true, "type": "string", "enum": ["Archimedes", "MarieCurie", "Tesla", "Einstein"]},
                    {"name": "activityNo", "in": "path", "required": true, "type": "integer"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation or duplicate error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Upload or persistence failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/activities/{userId}/{topic}/{activityNo}": {
            "get": {
                "tags": ["Submissions"],
                "summary": "Submission status for both media kinds",
                "parameters": [
                    {"name": "userId", "in": "path", "required": true, "type": "string"},
                    {"name": "topic", "in": "path", "required": true, "type": "string"},
                    {"name": "activityNo", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/topics/{topic}/videos": {
            "get": {
                "tags": ["Listings"],
                "summary": "List video submissions for a topic",
                "parameters": [
                    {"name": "topic", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/topics/{topic}/images": {
            "get": {
                "tags": ["Listings"],
                "summary": "List photo submissions for a topic",
                "parameters": [
                    {"name": "topic", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "MediaSubmission": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "userId": {"type": "string"},
                "topic": {"type": "string"},
                "activityNo": {"type": "integer"},
                "activityType": {"type": "string", "enum": ["photo", "video"]},
                "fileUrl": {"type": "string"},
                "posterImage": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "SubmissionStatus": {
            "type": "object",
            "properties": {
                "submitted": {"type": "boolean"},
                "details": {
                    "type": "object",
                    "properties": {
                        "photoSubmitted": {"type": "boolean"},
                        "videoSubmitted": {"type": "boolean"}
                    }
                }
            }
        },
        "VideoListItem": {
            "type": "object",
            "properties": {
                "activityNo": {"type": "integer"},
                "fileUrl": {"type": "string"},
                "posterImage": {"type": "string"}
            }
        },
        "PhotoListItem": {
            "type": "object",
            "properties": {
                "activityNo": {"type": "integer"},
                "fileUrl": {"type": "string"}
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

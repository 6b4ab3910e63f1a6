// Package docs provides the generated swagger documentation.
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
        "/api/auth/v1/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Bind the current session to a user",
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/api/auth/v1/logoff": {
            "post": {
                "tags": ["auth"],
                "summary": "Delete the current session",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/api/auth/v1/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Return the logged-in user",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/api/auth/v1/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Create a user account",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/api/blog/v1/articles": {
            "get": {
                "produces": ["application/json"],
                "tags": ["blog"],
                "summary": "List all articles visible to the caller",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["blog"],
                "summary": "Post a new article",
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/api/blog/v1/articles/mine": {
            "get": {
                "produces": ["application/json"],
                "tags": ["blog"],
                "summary": "List the caller's own articles",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/api/blog/v1/articles/{article_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["blog"],
                "summary": "Fetch one readable article with its shares",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["blog"],
                "summary": "Edit the caller's article",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}
                }
            },
            "delete": {
                "tags": ["blog"],
                "summary": "Soft-delete the caller's article",
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/blog/v1/articles/{article_id}/share": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["blog"],
                "summary": "Share an article into a group",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden"}
                }
            },
            "delete": {
                "consumes": ["application/json"],
                "tags": ["blog"],
                "summary": "Revoke an article's share",
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/blog/v1/groups": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["blog"],
                "summary": "Create a sharing group",
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/api/blog/v1/groups/{group_id}": {
            "delete": {
                "tags": ["blog"],
                "summary": "Soft-delete an owned group",
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/blog/v1/groups/{group_id}/join": {
            "post": {
                "produces": ["application/json"],
                "tags": ["blog"],
                "summary": "Join a group",
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/api/blog/v1/groups/{group_id}/leave": {
            "post": {
                "tags": ["blog"],
                "summary": "Leave a group",
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "scrawl API",
	Description:      "Group-shared blog with anonymous session tracking.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

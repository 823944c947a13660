// Package docs registers the swagger document served under /swagger.
// Regenerate with `swag init -g cmd/server/main.go` after changing handler
// annotations.
package docs

import "github.com/swaggo/swag"

// @tag.name Users
// @tag.description Registration and login

// @tag.name Workspaces
// @tag.description Workspaces and their members

// @tag.name Boards
// @tag.description Board lifecycle and the board view

// @tag.name Members
// @tag.description Board roster and roles

// @tag.name Join requests
// @tag.description Requests to join private boards

// @tag.name Lists
// @tag.description Ordered lists on a board

// @tag.name Tasks
// @tag.description Ordered tasks in a list

// @tag.name Comments
// @tag.description Task comments and activity

// @tag.name Attachments
// @tag.description Files attached to tasks

// @tag.name Notifications
// @tag.description Durable copies of change events

// @tag.name Realtime
// @tag.description Websocket change stream

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {},
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Taskboard API",
	Description:      "Workspaces, boards, ordered lists and tasks with live change events.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

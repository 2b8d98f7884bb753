// Package docs содержит swagger-спецификацию API, которую отдаёт /docs/*.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Регистрация",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/register.Request"}}
                ],
                "responses": {
                    "200": {"description": "Пользователь создан", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Некорректный JSON", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "409": {"description": "Email уже занят", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "422": {"description": "Ошибка валидации", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Вход",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/login.Request"}}
                ],
                "responses": {
                    "200": {"description": "Токен доступа", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Неверные учётные данные", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/payment": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Payments"],
                "summary": "Создать счёт на оплату",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/paymentcreate.Request"}}
                ],
                "responses": {
                    "200": {"description": "Ссылка на оплату", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Курс уже оплачен", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "422": {"description": "Ошибка валидации", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "502": {"description": "Ошибка платёжного провайдера", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/course": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Course"],
                "summary": "Курс",
                "responses": {
                    "200": {"description": "Состояние курса", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Пользователь не авторизован", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/course/progress": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Course"],
                "summary": "Отметить урок",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/progress.Request"}}
                ],
                "responses": {
                    "200": {"description": "Пройденные уроки", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Ошибка валидации", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Profile"],
                "summary": "Профиль",
                "responses": {
                    "200": {"description": "Профиль пользователя", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Profile"],
                "summary": "Обновить профиль",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/update.Request"}}
                ],
                "responses": {
                    "200": {"description": "Профиль обновлён", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Телефон должен состоять из 10-15 цифр", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/news": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["News"],
                "summary": "Новости форекс",
                "responses": {
                    "200": {"description": "Статьи", "schema": {"$ref": "#/definitions/response.Response"}},
                    "502": {"description": "Источник новостей недоступен", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "login.Request": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {"password": {"type": "string"}, "username": {"type": "string"}}
        },
        "paymentcreate.Request": {
            "type": "object",
            "required": ["plan"],
            "properties": {"plan": {"type": "string", "enum": ["smc", "wave_smc"]}}
        },
        "progress.Request": {
            "type": "object",
            "required": ["lesson"],
            "properties": {"lesson": {"type": "string", "maxLength": 64}}
        },
        "register.Request": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string", "minLength": 8, "maxLength": 72}}
        },
        "response.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid request body"},
                "status": {"type": "string", "example": "Error"}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {"data": {}, "error": {"type": "string"}, "status": {"type": "string"}}
        },
        "update.Request": {
            "type": "object",
            "required": ["phone"],
            "properties": {"name": {"type": "string", "maxLength": 100}, "phone": {"type": "string", "minLength": 10, "maxLength": 15}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Course Membership API",
	Description:      "API курса: регистрация, оплата тарифа, доступ к видео, профиль и новости",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

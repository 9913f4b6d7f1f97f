package handler

import (
	"github.com/gofiber/fiber/v2"
)

const (
	// DefaultPerPage is the page size used without per_page.
	DefaultPerPage = 20
	// MaxPerPage caps per_page.
	MaxPerPage = 100

	msgSuccess = "success"
)

// Response is the JSON envelope of every API answer.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// List is the payload of list answers.
type List struct {
	List  any   `json:"list"`
	Total int64 `json:"total"`
}

// OK answers 200 with data.
func OK(c *fiber.Ctx, data any) error {
	return Message(c, msgSuccess, data)
}

// Message answers 200 with data and a custom message.
func Message(c *fiber.Ctx, message string, data any) error {
	if data == nil {
		data = fiber.Map{}
	}

	return c.JSON(Response{Code: fiber.StatusOK, Message: message, Data: data})
}

// ListOK answers 200 with a list and its total.
func ListOK(c *fiber.Ctx, list any, total int64) error {
	return OK(c, List{List: list, Total: total})
}

// Pagination reads page and per_page from the query string.
func Pagination(c *fiber.Ctx) (int, int) {
	page := max(c.QueryInt("page", 1), 1)

	perPage := c.QueryInt("per_page", DefaultPerPage)
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	return page, min(perPage, MaxPerPage)
}

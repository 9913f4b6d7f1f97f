package permission

import "github.com/gofiber/fiber/v2"

// FiberRoutes returns the named routes of a fiber app, once per name.
// Fiber registers GET routes for HEAD as well.
func FiberRoutes(app *fiber.App) []Route {
	var (
		out  []Route
		seen = make(map[string]struct{})
	)

	for _, r := range app.GetRoutes(true) {
		if r.Name == "" {
			continue
		}

		if _, ok := seen[r.Name]; ok {
			continue
		}

		seen[r.Name] = struct{}{}
		out = append(out, Route{Name: r.Name, Path: r.Path})
	}

	return out
}

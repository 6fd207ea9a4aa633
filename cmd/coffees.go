package main

import (
	"github.com/Abraxas-365/keystone/pkg/iam"
	"github.com/Abraxas-365/keystone/pkg/iam/guard"
	"github.com/gofiber/fiber/v2"
)

// Permissions of the sample coffees resource.
const (
	PermCoffeesCreate iam.Permission = "coffees.create"
	PermCoffeesDelete iam.Permission = "coffees.delete"
)

// registerCoffeeRoutes mounts a small demo resource showing the three
// authorization layers: reads need any authenticated caller, writes need
// permissions, and deletes are admin-only.
func registerCoffeeRoutes(app *fiber.App, g *guard.Guard) {
	coffees := app.Group("/coffees", g.Declare(iam.RouteOptions{
		AuthTypes: []iam.AuthType{iam.AuthBearer, iam.AuthAPIKey},
	}))

	coffees.Get("/", g.Enforce(), listCoffees)

	coffees.Post("/", g.Declare(iam.RouteOptions{
		AuthTypes:   []iam.AuthType{iam.AuthBearer, iam.AuthAPIKey},
		Permissions: []iam.Permission{PermCoffeesCreate},
	}), g.Enforce(), createCoffee)

	coffees.Delete("/:id", g.Declare(iam.RouteOptions{
		AuthTypes: []iam.AuthType{iam.AuthBearer},
		Roles:     []iam.Role{iam.RoleAdmin},
	}), g.Enforce(), deleteCoffee)
}

func listCoffees(c *fiber.Ctx) error {
	return c.JSON([]fiber.Map{
		{"id": 1, "name": "flat white"},
		{"id": 2, "name": "cortado"},
	})
}

func createCoffee(c *fiber.Ctx) error {
	principal := guard.Principal(c)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"createdBy": principal.Sub,
	})
}

func deleteCoffee(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

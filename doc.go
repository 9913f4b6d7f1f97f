// Package main is the entry point of GoIAM-Admin, an identity and access
// management service. It serves users, roles, route derived permissions, a
// nested set department hierarchy and role filtered navigation menus over a
// fiber JSON API backed by gorm.
package main

// Package db embeds SQL migrations so the server binary can migrate on
// startup without shipping migration files separately.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

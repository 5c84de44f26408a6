package database

import "embed"

// EmbeddedMigrations, migrations/ dizinindeki SQL dosyaları; binary'ye gömülür,
// deploy sırasında yanında ayrıca taşınmaları gerekmez.
// Open bunu fs.Sub(EmbeddedMigrations, "migrations") ile kullanır.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/waritk/go-hero-catalog/pkg/adapters/repository/sqlite"
	"github.com/waritk/go-hero-catalog/pkg/config"
	"github.com/waritk/go-hero-catalog/pkg/core/domain"
)

// catalogDump is the JSON document written by export and read by import.
// Builds are exported for backup purposes; import restores heroes only,
// since build image files and user accounts live outside this dump.
type catalogDump struct {
	Heroes []domain.Hero  `json:"heroes"`
	Builds []domain.Build `json:"builds"`
}

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")

	if len(os.Args) < 2 {
		fmt.Println("expected 'export' or 'import' subcommands")
		os.Exit(1)
	}

	cfg := config.Load()
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to db: %v", err)
	}

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		doExport(repo)
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		doImport(repo, *importFile)
	default:
		fmt.Println("expected 'export' or 'import' subcommands")
		os.Exit(1)
	}
}

func doExport(repo *sqlite.SQLiteRepository) {
	ctx := context.Background()

	heroes, err := repo.Heroes().Dump(ctx)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	builds, err := repo.Dump(ctx)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(catalogDump{Heroes: heroes, Builds: builds}); err != nil {
		log.Fatalf("Encode failed: %v", err)
	}
}

func doImport(repo *sqlite.SQLiteRepository, filename string) {
	file, err := os.Open(filename)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}
	defer file.Close()

	var dump catalogDump
	if err := json.NewDecoder(file).Decode(&dump); err != nil {
		log.Fatalf("Decode failed: %v", err)
	}

	ctx := context.Background()
	heroes := repo.Heroes()
	count := 0
	for _, h := range dump.Heroes {
		existing, _ := heroes.GetByName(ctx, h.Name)
		if existing != nil {
			log.Printf("Skipping existing hero: %s", h.Name)
			continue
		}

		if err := heroes.Create(ctx, &h); err != nil {
			log.Printf("Failed to import %s: %v", h.Name, err)
		} else {
			count++
		}
	}
	log.Printf("Imported %d heroes", count)
}

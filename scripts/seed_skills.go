package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/khoahotran/talent-forge/adapters/persistence"
	skillUC "github.com/khoahotran/talent-forge/internal/application/usecase/skill"
	"github.com/khoahotran/talent-forge/internal/config"
	"github.com/khoahotran/talent-forge/pkg/logger"
)

// Usage: go run ./scripts/seed_skills.go -skills "Go,SQL,Kafka"
func main() {
	skillsFlag := flag.String("skills", "", "comma separated skill names (default: built-in catalog)")
	flag.Parse()

	fmt.Println("seeding skill catalog...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	appLogger := logger.NewZapLogger(cfg.App.Env)

	if err := persistence.RunMigrations(cfg.DB.DSN, appLogger); err != nil {
		log.Fatalf("cannot apply migrations: %v", err)
	}

	pool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		log.Fatalf("cannot connect DB: %v", err)
	}
	defer pool.Close()

	names := skillUC.DefaultCatalog
	if *skillsFlag != "" {
		names = strings.Split(*skillsFlag, ",")
	}

	out, err := skillUC.NewSeedSkillsUseCase(persistence.NewPostgresSkillRepo(pool)).Execute(context.Background(), names)
	if err != nil {
		log.Fatalf("cannot seed skills: %v", err)
	}

	fmt.Printf("skill catalog holds %d seeded skills\n", len(out.Skills))
}

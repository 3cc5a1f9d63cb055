package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/riskibarqy/user-profile-svc/internal/domain/migration"
	"github.com/riskibarqy/user-profile-svc/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/user-profile-svc/internal/platform/logging"
	"github.com/riskibarqy/user-profile-svc/internal/usecase"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		log.Fatal("DB_URL is required")
	}

	migrationsDir, err := resolveMigrationsDir()
	if err != nil {
		log.Fatalf("resolve migrations dir: %v", err)
	}

	chain, err := migration.LoadDir(os.DirFS(migrationsDir))
	if err != nil {
		log.Fatalf("load schema steps: %v", err)
	}

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer func() { _ = db.Close() }()

	svc := usecase.NewMigrationService(chain, postgres.NewLedgerRepository(db), logging.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cmd := strings.ToLower(strings.TrimSpace(os.Args[1]))
	switch cmd {
	case "version":
		status, err := svc.Status(ctx)
		if err != nil {
			log.Fatalf("read revision: %v", err)
		}
		fmt.Printf("current: %s\n", revisionOrNone(status.Current))
		fmt.Printf("head: %s\n", revisionOrNone(status.Head))
		fmt.Printf("up_to_date: %t\n", status.UpToDate)
	case "history":
		applied, err := svc.AppliedRevisions(ctx)
		if err != nil {
			log.Fatalf("read history: %v", err)
		}
		for _, rev := range applied {
			fmt.Printf("%s\t%s\t%s\n", rev.Revision, rev.Name, rev.AppliedAt.UTC().Format(time.RFC3339))
		}
	case "plan":
		if len(os.Args) < 3 {
			log.Fatal("plan requires a target revision argument (or 'head')")
		}
		target := resolveTarget(chain, os.Args[2])
		plan, err := svc.Plan(ctx, target)
		if err != nil {
			log.Fatalf("compute plan: %v", err)
		}
		out, err := sonic.ConfigDefault.MarshalIndent(plan, "", "  ")
		if err != nil {
			log.Fatalf("encode plan: %v", err)
		}
		fmt.Println(string(out))
	case "apply":
		if len(os.Args) < 3 {
			log.Fatal("apply requires a plan file argument")
		}
		raw, err := os.ReadFile(os.Args[2])
		if err != nil {
			log.Fatalf("read plan file: %v", err)
		}
		var plan migration.Plan
		if err := sonic.Unmarshal(raw, &plan); err != nil {
			log.Fatalf("decode plan: %v", err)
		}
		if err := svc.Apply(ctx, plan); err != nil {
			log.Fatalf("apply plan: %v", err)
		}
		log.Printf("applied %d step(s), now at %s", len(plan.Steps), revisionOrNone(plan.Target))
	case "up":
		if err := svc.MigrateTo(ctx, chain.Head()); err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		log.Printf("migrated to head %s", revisionOrNone(chain.Head()))
	case "down":
		steps, err := parseSteps(os.Args[2:])
		if err != nil {
			log.Fatal(err)
		}
		target, err := targetStepsBack(ctx, svc, chain, steps)
		if err != nil {
			log.Fatal(err)
		}
		if err := svc.MigrateTo(ctx, target); err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		log.Printf("rolled back %d step(s), now at %s", steps, revisionOrNone(target))
	default:
		printUsage()
		os.Exit(2)
	}
}

func resolveTarget(chain *migration.Chain, raw string) string {
	target := strings.TrimSpace(raw)
	switch target {
	case "head":
		return chain.Head()
	case "none", "base":
		return migration.RevisionNone
	default:
		return target
	}
}

func targetStepsBack(ctx context.Context, svc *usecase.MigrationService, chain *migration.Chain, steps int) (string, error) {
	current, err := svc.CurrentRevision(ctx)
	if err != nil {
		return "", fmt.Errorf("read current revision: %w", err)
	}

	all := chain.Steps()
	pos := -1
	for i, step := range all {
		if step.Revision == current {
			pos = i
			break
		}
	}
	if current != migration.RevisionNone && pos < 0 {
		return "", fmt.Errorf("recorded revision %q is not in the step chain", current)
	}

	targetPos := pos - steps
	if targetPos < 0 {
		return migration.RevisionNone, nil
	}
	return all[targetPos].Revision, nil
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}

	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, fmt.Errorf("down steps must be > 0")
	}

	return steps, nil
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		strings.TrimSpace(os.Getenv("MIGRATIONS_DIR")),
		"./db/migrations",
		"/app/db/migrations",
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}
		return abs, nil
	}

	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, ./db/migrations, /app/db/migrations)")
}

func revisionOrNone(rev string) string {
	if rev == migration.RevisionNone {
		return "none"
	}
	return rev
}

func printUsage() {
	base := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <version|history|plan|apply|up|down> [args]\n", base)
	fmt.Fprintln(os.Stderr, "examples:")
	fmt.Fprintf(os.Stderr, "  %s version\n", base)
	fmt.Fprintf(os.Stderr, "  %s plan head > plan.json\n", base)
	fmt.Fprintf(os.Stderr, "  %s apply plan.json\n", base)
	fmt.Fprintf(os.Stderr, "  %s up\n", base)
	fmt.Fprintf(os.Stderr, "  %s down 1\n", base)
}

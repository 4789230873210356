package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/yourorg/projecthub/internal/domain"
	"github.com/yourorg/projecthub/internal/infrastructure/logger"
	"github.com/yourorg/projecthub/internal/repository"
	"github.com/yourorg/projecthub/pkg/config"
	"github.com/yourorg/projecthub/pkg/database"
)

// Administrative CLI. Organizations are created here, never through the
// tenant-scoped query endpoint.

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "org":
		handleOrg(args)
	case "seed":
		seedDemoData()
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: projecthub <command>

Commands:
  org create -name <name> -slug <slug> -email <email>   create an organization
  org list                                              list organizations
  seed                                                  load demo data
  help                                                  show this help`)
}

func handleOrg(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: projecthub org <create|list>")
		return
	}

	switch args[0] {
	case "create":
		createOrg(args[1:])
	case "list":
		listOrgs()
	default:
		fmt.Printf("unknown org command: %s\n", args[0])
	}
}

func openRepos() (*repository.PostgresOrganizationRepository, *repository.PostgresProjectRepository, *repository.PostgresTaskRepository, *repository.PostgresCommentRepository, func()) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger("warn")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.NewConnectionPool(ctx, database.FromAppConfig(
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUser,
		cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}

	db := pool.GetDB()
	return repository.NewPostgresOrganizationRepository(db, log),
		repository.NewPostgresProjectRepository(db, log),
		repository.NewPostgresTaskRepository(db, log),
		repository.NewPostgresCommentRepository(db, log),
		func() { pool.Close() }
}

func createOrg(args []string) {
	fs := flag.NewFlagSet("org create", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	slug := fs.String("slug", "", "URL-safe slug")
	email := fs.String("email", "", "contact email")
	fs.Parse(args)

	if *name == "" || *slug == "" || *email == "" {
		fmt.Fprintln(os.Stderr, "org create requires -name, -slug, and -email")
		os.Exit(1)
	}

	orgs, _, _, _, closeDB := openRepos()
	defer closeDB()

	org := &domain.Organization{Name: *name, Slug: *slug, ContactEmail: *email}
	if err := orgs.Create(context.Background(), org); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create organization: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created organization %s (%s)\n", org.Name, org.ID)
}

func listOrgs() {
	orgs, _, _, _, closeDB := openRepos()
	defer closeDB()

	all, err := orgs.List(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list organizations: %v\n", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tNAME\tEMAIL\tCREATED")
	for _, org := range all {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", org.Slug, org.Name, org.ContactEmail, org.CreatedAt.Format(time.RFC3339))
	}
	w.Flush()
}

// seedDemoData loads a small demo dataset: two organizations with a few
// projects, tasks, and comments each. Safe to run repeatedly against an
// empty database only.
func seedDemoData() {
	orgs, projects, tasks, comments, closeDB := openRepos()
	defer closeDB()
	ctx := context.Background()

	due := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	acme := &domain.Organization{Name: "Acme Corp", Slug: "acme-corp", ContactEmail: "admin@acme.example"}
	testOrg := &domain.Organization{Name: "Test Org", Slug: "test-org", ContactEmail: "admin@test.example"}
	for _, org := range []*domain.Organization{acme, testOrg} {
		if err := orgs.Create(ctx, org); err != nil {
			fmt.Fprintf(os.Stderr, "failed to seed organization %s: %v\n", org.Slug, err)
			os.Exit(1)
		}
	}

	website := &domain.Project{
		OrganizationID: acme.ID,
		Name:           "Website Redesign",
		Description:    "Refresh the marketing site",
		Status:         domain.ProjectStatusActive,
	}
	testProject := &domain.Project{
		OrganizationID: testOrg.ID,
		Name:           "Test Project",
		Description:    "A test project",
		Status:         domain.ProjectStatusActive,
	}
	for _, p := range []*domain.Project{website, testProject} {
		if err := projects.Create(ctx, p); err != nil {
			fmt.Fprintf(os.Stderr, "failed to seed project %s: %v\n", p.Name, err)
			os.Exit(1)
		}
	}

	seedTasks := []*domain.Task{
		{ProjectID: website.ID, Title: "Draft new homepage", Status: domain.TaskStatusInProgress, Priority: domain.TaskPriorityHigh, AssigneeEmail: "dana@acme.example"},
		{ProjectID: website.ID, Title: "Migrate blog", Status: domain.TaskStatusCompleted, Priority: domain.TaskPriorityMedium},
		{ProjectID: testProject.ID, Title: "Test Task", Status: domain.TaskStatusTodo, Priority: domain.TaskPriorityMedium, DueDate: &due},
	}
	for _, t := range seedTasks {
		if err := tasks.Create(ctx, t); err != nil {
			fmt.Fprintf(os.Stderr, "failed to seed task %s: %v\n", t.Title, err)
			os.Exit(1)
		}
	}

	comment := &domain.TaskComment{
		TaskID:      seedTasks[0].ID,
		Content:     "First pass is up for review",
		AuthorEmail: "dana@acme.example",
	}
	if err := comments.Create(ctx, comment); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed comment: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("demo data loaded")
}

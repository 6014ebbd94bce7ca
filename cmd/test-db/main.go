package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Jonathon-AR/resollectAssignment/internal/config"
	"github.com/Jonathon-AR/resollectAssignment/internal/database"
	"github.com/Jonathon-AR/resollectAssignment/internal/models"
	"github.com/Jonathon-AR/resollectAssignment/internal/services"
	"github.com/Jonathon-AR/resollectAssignment/internal/utils"
)

const listLimit = 20

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Parse command line arguments
	if len(os.Args) < 2 || (os.Args[1] != "list" && os.Args[1] != "expire") {
		fmt.Println("Usage: go run cmd/test-db/main.go <list|expire>")
		fmt.Println("  list    show stored tasks and their time left")
		fmt.Println("  expire  run one overdue sweep against the configured store")
		os.Exit(1)
	}

	fmt.Printf("=== Task Store Test ===\n\n")
	fmt.Printf("Driver: %s\n", cfg.Store.Driver)
	switch cfg.Store.Driver {
	case config.StoreDriverMongoDB:
		fmt.Printf("Database: %s\n", cfg.MongoDB.Database)
		fmt.Printf("Collection: %s\n", cfg.MongoDB.Collection)
	case config.StoreDriverSQLite:
		fmt.Printf("Path: %s\n", cfg.SQLite.Path)
	}
	fmt.Printf("\n")

	store, err := database.NewTaskStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open task store: %v", err)
	}
	defer store.Close()

	taskService := services.NewTaskService(store)
	ctx := context.Background()

	switch os.Args[1] {
	case "list":
		listTasks(ctx, taskService)
	case "expire":
		expireTasks(ctx, taskService, cfg.Sweeper)
	}
}

func listTasks(ctx context.Context, taskService *services.TaskService) {
	fmt.Println("=== Tasks ===")
	tasks, err := taskService.ListTasks(ctx, nil)
	if err != nil {
		log.Printf("ERROR listing tasks: %v", err)
		return
	}

	fmt.Printf("Found %d tasks\n\n", len(tasks))
	now := time.Now()
	counts := make(map[models.TaskStatus]int)
	for i, task := range tasks {
		counts[task.Status]++
		if i >= listLimit {
			continue
		}
		fmt.Printf("  [%d] %s %q status=%s deadline=%s left=%s\n",
			i+1, task.ID, task.Title, task.Status, task.Deadline.Format(time.RFC3339), timeLeft(&task, now))
	}
	if len(tasks) > listLimit {
		fmt.Printf("  ... and %d more tasks\n", len(tasks)-listLimit)
	}
	fmt.Println()

	// Summary
	fmt.Println("=== Summary ===")
	for _, status := range models.TaskStatuses {
		fmt.Printf("  %s: %d\n", status, counts[status])
	}

	overdue := 0
	for i := range tasks {
		if tasks[i].IsOverdue(now) {
			overdue++
		}
	}
	if overdue > 0 {
		fmt.Printf("\nWARNING: %d ongoing task(s) are past their deadline; is the sweeper running?\n", overdue)
	}
}

func expireTasks(ctx context.Context, taskService *services.TaskService, cfg config.SweeperConfig) {
	fmt.Println("=== Overdue Sweep ===")
	sweeper, err := services.NewSweeperService(taskService, cfg, nil)
	if err != nil {
		log.Printf("ERROR creating sweeper: %v", err)
		return
	}

	result, err := sweeper.RunOnce(ctx)
	if err != nil {
		log.Printf("ERROR running sweep: %v", err)
		return
	}
	fmt.Printf("Expired %d task(s) in %v\n", result.Expired, result.Duration)
}

// timeLeft describes how long an ongoing task has before its deadline
func timeLeft(task *models.Task, now time.Time) string {
	if task.Status != models.TaskStatusOngoing {
		return "-"
	}
	if !task.Deadline.After(now) {
		return "Expired"
	}
	return utils.FormatDuration(task.Deadline.Sub(now))
}

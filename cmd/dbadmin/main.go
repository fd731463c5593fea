// Command dbadmin is the database maintenance tool.
//
//	dbadmin init     create the schema and seed reference data
//	dbadmin seed     seed reference data only
//	dbadmin reset    drop everything, then init (asks for confirmation)
//	dbadmin info     table row counts and file size
//	dbadmin vacuum   reclaim space (SQLite)
//	dbadmin analyze  refresh query-planner statistics
//	dbadmin query    run a read-only SQL query: dbadmin query "SELECT ..."
//	dbadmin cleanup  delete stale guest accounts
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/on-their-footsteps/backend/internal/config"
	"github.com/on-their-footsteps/backend/internal/model"
	"github.com/on-their-footsteps/backend/internal/repository"
	"github.com/on-their-footsteps/backend/internal/seed"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := fs.String("config", "", "config directory (defaults to ./configs)")
	yes := fs.Bool("yes", false, "skip confirmation prompts")
	days := fs.Int("days", 30, "cleanup: guest accounts idle longer than this are removed")
	fs.Parse(os.Args[2:])

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	db, err := repository.NewDB(cfg.Database, logger)
	if err != nil {
		fatal(err)
	}

	switch command {
	case "init":
		// NewDB already migrated; just seed.
		err = seed.Run(db, logger)
	case "seed":
		err = seed.Run(db, logger)
	case "reset":
		err = runReset(db, logger, *yes)
	case "info":
		err = runInfo(db, cfg.Database)
	case "vacuum":
		err = db.Exec("VACUUM").Error
	case "analyze":
		err = db.Exec("ANALYZE").Error
	case "query":
		err = runQuery(db, fs.Args())
	case "cleanup":
		err = runCleanup(db, *days)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: dbadmin <init|seed|reset|info|vacuum|analyze|query|cleanup> [flags]")
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

var managedModels = []interface{}{
	&model.Publication{},
	&model.PublishingPlatform{},
	&model.Animation{},
	&model.VoiceRecording{},
	&model.Illustration{},
	&model.Script{},
	&model.ContentProduction{},
	&model.TeamMember{},
	&model.Role{},
	&model.UserProgress{},
	&model.UserLessonProgress{},
	&model.Lesson{},
	&model.LearningPath{},
	&model.Character{},
	&model.CompanionCharacter{},
	&model.User{},
	&model.Level{},
}

func runReset(db *gorm.DB, logger *slog.Logger, yes bool) error {
	if !yes && !confirm("This drops ALL tables and data. Continue? [y/N] ") {
		fmt.Println("aborted")
		return nil
	}
	if err := db.Migrator().DropTable(managedModels...); err != nil {
		return err
	}
	if err := repository.Migrate(db); err != nil {
		return err
	}
	return seed.Run(db, logger)
}

func runInfo(db *gorm.DB, cfg config.DatabaseConfig) error {
	fmt.Printf("driver: %s\nurl:    %s\n", cfg.Driver, cfg.URL)
	if cfg.Driver != "postgres" {
		if info, err := os.Stat(cfg.URL); err == nil {
			fmt.Printf("size:   %.1f KB\n", float64(info.Size())/1024)
		}
	}
	fmt.Println("tables:")
	for _, m := range managedModels {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return err
		}
		var count int64
		if err := db.Model(m).Count(&count).Error; err != nil {
			fmt.Printf("  %-24s (missing)\n", stmt.Schema.Table)
			continue
		}
		fmt.Printf("  %-24s %d rows\n", stmt.Schema.Table, count)
	}
	return nil
}

// runQuery executes a single read-only statement and prints rows as
// tab-separated values.
func runQuery(db *gorm.DB, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("query: exactly one SQL string expected")
	}
	query := strings.TrimSpace(args[0])
	if upper := strings.ToUpper(query); !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "PRAGMA") {
		return fmt.Errorf("query: only SELECT and PRAGMA statements are allowed")
	}

	rows, err := db.Raw(query).Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(cols, "\t"))

	values := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	count := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		fields := make([]string, len(cols))
		for i, v := range values {
			switch t := v.(type) {
			case nil:
				fields[i] = "NULL"
			case []byte:
				fields[i] = string(t)
			default:
				fields[i] = fmt.Sprint(t)
			}
		}
		fmt.Println(strings.Join(fields, "\t"))
		count++
	}
	fmt.Fprintf(os.Stderr, "%d rows\n", count)
	return rows.Err()
}

// runCleanup deletes guest accounts idle for longer than days, along with
// their progress rows.
func runCleanup(db *gorm.DB, days int) error {
	cutoff := time.Now().AddDate(0, 0, -days)

	var stale []model.User
	err := db.Where("is_guest = ? AND (last_active IS NULL OR last_active < ?) AND created_at < ?",
		true, cutoff, cutoff).Find(&stale).Error
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		fmt.Println("no stale guest accounts")
		return nil
	}

	ids := make([]uint, 0, len(stale))
	for _, u := range stale {
		ids = append(ids, u.ID)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id IN ?", ids).Delete(&model.UserLessonProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id IN ?", ids).Delete(&model.UserProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(&model.User{}, ids).Error; err != nil {
			return err
		}
		fmt.Printf("removed %d guest accounts\n", len(ids))
		return nil
	})
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

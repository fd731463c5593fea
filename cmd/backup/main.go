// Command backup manages gzip snapshots of the SQLite database.
//
//	backup create  -db app.db -dir ./backups [-keep 10]
//	backup list    -dir ./backups
//	backup restore -db app.db -file ./backups/app-20260826-120000.db.gz
//
// Restore keeps a pre-restore copy of the live database so a bad restore can
// be reverted by hand.
package main

import (
	"compress/gzip"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "create":
		err = runCreate(os.Args[2:])
	case "list":
		err = runList(os.Args[2:])
	case "restore":
		err = runRestore(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: backup <create|list|restore> [flags]")
}

func runCreate(args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	dbPath := fs.String("db", "on_their_footsteps.db", "database to back up")
	dir := fs.String("dir", "./backups", "backup directory")
	keep := fs.Int("keep", 10, "number of backups to retain (0 keeps all)")
	fs.Parse(args)

	if err := verifyDatabase(*dbPath); err != nil {
		return fmt.Errorf("pre-backup verify: %w", err)
	}
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(*dbPath), filepath.Ext(*dbPath))
	name := fmt.Sprintf("%s-%s.db.gz", base, time.Now().Format("20060102-150405"))
	target := filepath.Join(*dir, name)

	if err := gzipCopy(*dbPath, target); err != nil {
		os.Remove(target)
		return err
	}

	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	fmt.Printf("created %s (%.1f KB)\n", target, float64(info.Size())/1024)

	if *keep > 0 {
		removed, err := prune(*dir, base, *keep)
		if err != nil {
			return err
		}
		for _, r := range removed {
			fmt.Println("pruned", r)
		}
	}
	return nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dir := fs.String("dir", "./backups", "backup directory")
	fs.Parse(args)

	entries, err := backupFiles(*dir, "")
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no backups found in", *dir)
		return nil
	}
	for _, e := range entries {
		info, err := os.Stat(e)
		if err != nil {
			continue
		}
		fmt.Printf("%s  %8.1f KB  %s\n", info.ModTime().Format(time.RFC3339), float64(info.Size())/1024, e)
	}
	return nil
}

func runRestore(args []string) error {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	dbPath := fs.String("db", "on_their_footsteps.db", "database to restore into")
	file := fs.String("file", "", "backup file to restore (required)")
	fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	// Decompress next to the target first so a truncated archive never
	// clobbers the live database.
	tmp := *dbPath + ".restore-tmp"
	if err := gunzipCopy(*file, tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := verifyDatabase(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("backup failed verification: %w", err)
	}

	if _, err := os.Stat(*dbPath); err == nil {
		revert := *dbPath + ".pre-restore"
		if err := os.Rename(*dbPath, revert); err != nil {
			os.Remove(tmp)
			return err
		}
		fmt.Println("previous database kept at", revert)
	}
	if err := os.Rename(tmp, *dbPath); err != nil {
		return err
	}
	fmt.Println("restored", *dbPath, "from", *file)
	return nil
}

// verifyDatabase opens the file read-only and runs an integrity check.
func verifyDatabase(path string) error {
	db, err := sql.Open("sqlite3", path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()

	var verdict string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&verdict); err != nil {
		return err
	}
	if verdict != "ok" {
		return fmt.Errorf("integrity check: %s", verdict)
	}
	return nil
}

func gzipCopy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		return err
	}
	return gz.Close()
}

func gunzipCopy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return err
	}
	defer gz.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, gz)
	return err
}

func backupFiles(dir, base string) ([]string, error) {
	pattern := filepath.Join(dir, base+"*.db.gz")
	if base == "" {
		pattern = filepath.Join(dir, "*.db.gz")
	}
	entries, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)
	return entries, nil
}

// prune removes the oldest backups beyond keep. Timestamped names sort
// chronologically, so lexical order is age order.
func prune(dir, base string, keep int) ([]string, error) {
	entries, err := backupFiles(dir, base)
	if err != nil {
		return nil, err
	}
	if len(entries) <= keep {
		return nil, nil
	}
	var removed []string
	for _, e := range entries[:len(entries)-keep] {
		if err := os.Remove(e); err != nil {
			return removed, err
		}
		removed = append(removed, e)
	}
	return removed, nil
}

// Command healthcheck probes a running deployment and exits 0 (healthy),
// 2 (degraded) or 1 (unhealthy), for use from cron or container probes.
//
// Checks: the HTTP /health endpoint, direct database integrity, and host
// resource headroom.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// A failed check outranks a warning, so the unhealthy code is the lower one
// and probes can treat any exit 1 as critical.
const (
	exitHealthy   = 0
	exitUnhealthy = 1
	exitDegraded  = 2
)

const (
	memWarnPercent  = 85.0
	cpuWarnPercent  = 90.0
	diskWarnPercent = 90.0
)

type checkResult struct {
	name    string
	ok      bool
	warning bool
	detail  string
}

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8000", "base URL of the running server")
		dbPath  = flag.String("db", "on_their_footsteps.db", "path to the SQLite database")
		timeout = flag.Duration("timeout", 5*time.Second, "per-check timeout")
		skipAPI = flag.Bool("skip-api", false, "skip the HTTP endpoint check")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 3**timeout)
	defer cancel()

	var results []checkResult
	if !*skipAPI {
		results = append(results, checkAPI(ctx, *baseURL, *timeout))
	}
	results = append(results, checkDatabase(ctx, *dbPath))
	results = append(results, checkSystem()...)

	exit := exitHealthy
	for _, r := range results {
		status := "OK"
		switch {
		case !r.ok:
			status = "FAIL"
			exit = exitUnhealthy
		case r.warning:
			status = "WARN"
			if exit == exitHealthy {
				exit = exitDegraded
			}
		}
		fmt.Printf("[%-4s] %-10s %s\n", status, r.name, r.detail)
	}

	os.Exit(exit)
}

func checkAPI(ctx context.Context, baseURL string, timeout time.Duration) checkResult {
	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return checkResult{name: "api", detail: err.Error()}
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return checkResult{name: "api", detail: "unreachable: " + err.Error()}
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	if resp.StatusCode != http.StatusOK {
		return checkResult{name: "api", detail: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	return checkResult{
		name:    "api",
		ok:      true,
		warning: elapsed > timeout/2,
		detail:  fmt.Sprintf("responded in %s", elapsed.Round(time.Millisecond)),
	}
}

func checkDatabase(ctx context.Context, dbPath string) checkResult {
	if _, err := os.Stat(dbPath); err != nil {
		return checkResult{name: "database", detail: "file missing: " + dbPath}
	}

	db, err := sql.Open("sqlite3", dbPath+"?mode=ro")
	if err != nil {
		return checkResult{name: "database", detail: err.Error()}
	}
	defer db.Close()

	var verdict string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&verdict); err != nil {
		return checkResult{name: "database", detail: "integrity check failed: " + err.Error()}
	}
	if verdict != "ok" {
		return checkResult{name: "database", detail: "integrity: " + verdict}
	}

	var users int64
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&users); err != nil {
		return checkResult{name: "database", ok: true, warning: true, detail: "schema not initialized"}
	}
	return checkResult{name: "database", ok: true, detail: fmt.Sprintf("integrity ok, %d users", users)}
}

func checkSystem() []checkResult {
	var results []checkResult

	if vm, err := mem.VirtualMemory(); err == nil {
		results = append(results, checkResult{
			name:    "memory",
			ok:      true,
			warning: vm.UsedPercent > memWarnPercent,
			detail:  fmt.Sprintf("%.1f%% used", vm.UsedPercent),
		})
	} else {
		results = append(results, checkResult{name: "memory", detail: err.Error()})
	}

	if percents, err := cpu.Percent(time.Second, false); err == nil && len(percents) > 0 {
		results = append(results, checkResult{
			name:    "cpu",
			ok:      true,
			warning: percents[0] > cpuWarnPercent,
			detail:  fmt.Sprintf("%.1f%% used", percents[0]),
		})
	} else if err != nil {
		results = append(results, checkResult{name: "cpu", detail: err.Error()})
	}

	if usage, err := disk.Usage("."); err == nil {
		results = append(results, checkResult{
			name:    "disk",
			ok:      true,
			warning: usage.UsedPercent > diskWarnPercent,
			detail:  fmt.Sprintf("%.1f%% used, %.1f GB free", usage.UsedPercent, float64(usage.Free)/1e9),
		})
	} else {
		results = append(results, checkResult{name: "disk", detail: err.Error()})
	}

	return results
}

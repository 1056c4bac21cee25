//go:build integration

package postgres

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()
	dbName := "test-db"
	dbUser := "user"
	dbPassword := "password"
	dbPort := "5432"

	// 1. Start the container
	cmd := exec.Command("docker", "run", "-d", "--rm",
		"--network", "host",
		"-e", fmt.Sprintf("POSTGRES_DB=%s", dbName),
		"-e", fmt.Sprintf("POSTGRES_USER=%s", dbUser),
		"-e", fmt.Sprintf("POSTGRES_PASSWORD=%s", dbPassword),
		"postgres:14",
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		log.Fatalf("could not start postgres container: %v. Is Docker running?", err)
	}
	containerID := strings.TrimSpace(out.String())[:12]

	// 2. Readiness check and connection
	connStr := fmt.Sprintf("postgres://%s:%s@localhost:%s/%s?sslmode=disable", dbUser, dbPassword, dbPort, dbName)
	logger := zerolog.New(io.Discard)
	connectCtx, cancel := context.WithTimeout(ctx, time.Minute)
	var err error
	testPool, err = Connect(connectCtx, connStr, &logger)
	cancel()
	if err != nil {
		_ = exec.Command("docker", "stop", containerID).Run()
		log.Fatalf("Unable to connect to test database: %v\n", err)
	}

	// 3. Apply schema
	if err := EnsureSchema(ctx, testPool); err != nil {
		_ = exec.Command("docker", "stop", containerID).Run()
		log.Fatalf("could not apply schema: %s", err)
	}
	log.Println("Test database is ready.")

	// 4. Run tests and capture the exit code
	exitCode := m.Run()

	// 5. Cleanup before exiting
	testPool.Close()
	log.Println("Stopping test container...")
	if err := exec.Command("docker", "stop", containerID).Run(); err != nil {
		log.Printf("could not stop postgres container %s: %v", containerID, err)
	}
	os.Exit(exitCode)
}

func cleanup(t *testing.T) {
	t.Helper()
	if _, err := testPool.Exec(context.Background(), `TRUNCATE users`); err != nil {
		t.Fatalf("Failed to clean up database: %v", err)
	}
}

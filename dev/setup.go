package main

import (
	"context"
	"fmt"
	"log/slog"
	devenv "membership-workflow/dev/env"
	"membership-workflow/internal/journal"
	"membership-workflow/internal/telemetry"
	configlibsql "membership-workflow/lib/configuration/libsql"
	"os"
)

const journalFile = devenv.StatePrefix + "/journal.db"

func CreateJournal() error {
	path, err := devenv.ResolvePath(journalFile)
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("journal already created at", path)
		return nil
	}

	fmt.Println("creating journal at", path)
	db, err := configlibsql.Struct{File: journalFile}.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = journal.NewStore(context.Background(), db, telemetry.SlogAPI{})
	return err
}

const devConfig = `{
  // strict talks to the backend for every step, demo bypasses verification
  // and payment.
  mode: "strict",
  base_url: "http://127.0.0.1:8000",
  timeout_seconds: 30,
  http_dump: "` + devenv.StatePrefix + `/http",
  journal: {
    file: "` + journalFile + `",
  },
}
`

// WriteDevConfig writes a config pointing the cli at a local backend and the
// dev journal, an existing file is left alone.
func WriteDevConfig(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		slog.Info("config already exists, not overwriting it", "path", path)
		return nil
	}
	err = os.WriteFile(path, []byte(devConfig), 0644)
	if err != nil {
		return err
	}
	slog.Info("wrote dev config, override values in membership.local.json5", "path", path)
	return nil
}

package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
)

var errNotRoot = errors.New("run the dev setup from the repository root, next to go.mod")

func create(recreate bool, configPath string) error {
	if _, err := os.Stat("go.mod"); os.IsNotExist(err) {
		return errNotRoot
	}

	state := filepath.Join("dev", ".state")
	if recreate {
		slog.Info("removing dev state", "dir", state)
		if err := os.RemoveAll(state); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Join(state, "http"), 0777); err != nil {
		return err
	}

	if err := CreateJournal(); err != nil {
		return err
	}
	return WriteDevConfig(configPath)
}

func main() {
	recreate := flag.Bool("recreate", false, "delete dev/.state before creating it again")
	configPath := flag.String("config", "membership.json5", "where to write the dev cli config")
	flag.Parse()

	err := create(*recreate, *configPath)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err.Error())
		os.Exit(1)
	}
	slog.Info("dev environment ready, run `go run ./cmd/membership-cli --help`")
}

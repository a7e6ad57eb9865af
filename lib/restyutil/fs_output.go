package restyutil

import (
	"log/slog"
	devenv "membership-workflow/dev/env"
	"os"
	"path/filepath"
	"time"
)

// FilesystemOutput writes every exchange of one run into
// `<dir>/<run>/<id>.http`.
type FilesystemOutput struct {
	run string
}

// NewFilesystemOutput creates a fresh run directory under `dir`, earlier
// runs are left in place. `dir` may start with `<dev_state>`.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	dir, err := devenv.ResolvePath(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	run, err := os.MkdirTemp(dir, time.Now().Format("20060102-150405-"))
	if os.IsNotExist(err) {
		if err = os.MkdirAll(dir, 0777); err == nil {
			run, err = os.MkdirTemp(dir, time.Now().Format("20060102-150405-"))
		}
	}
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{run: run}, nil
}

// Dir is the directory of this run.
func (o FilesystemOutput) Dir() string {
	return o.run
}

func (o FilesystemOutput) Write(id string, contents string) {
	path := filepath.Join(o.run, id+".http")
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write http dump", "path", path, "err", err)
	}
}

package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"membership-workflow/cmd/membership-cli/globals"
	"membership-workflow/cmd/membership-cli/utils"
	"membership-workflow/internal/journal"
	"membership-workflow/internal/membershipapi"
	"membership-workflow/internal/registration"
	"membership-workflow/lib/util/serviceutil"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

var errJournalDisabled = errors.New("journal is not configured, set journal.file or journal.url")

// openJournal returns errJournalDisabled when the config has no journal.
func openJournal(ctx context.Context, g *globals.Value) (journal.Store, *sql.DB, error) {
	if !g.Config.Journal.Enabled() {
		return journal.Store{}, nil, errJournalDisabled
	}
	db, err := g.Config.Journal.OpenDB()
	if err != nil {
		return journal.Store{}, nil, fmt.Errorf("open journal: %w", err)
	}
	store, err := journal.NewStore(ctx, db, g.Tel)
	if err != nil {
		db.Close()
		return journal.Store{}, nil, err
	}
	return store, db, nil
}

func mustOpenFile(path string) registration.File {
	file, err := registration.OpenFile(path)
	if err != nil {
		serviceutil.Fatal("failed to read file", err)
	}
	return file
}

func printReceipt(view registration.Form) {
	if view.Receipt == nil {
		return
	}
	receipt := view.Receipt

	t := utils.NewTable()
	t.SetTitle("Membership Receipt")
	t.AppendRows([]table.Row{
		{"Member ID", receipt.MemberId},
		{"Membership No", receipt.MembershipNo},
		{"EPIC Number", receipt.EpicNumber},
		{"Payment", receipt.Status},
	})
	if view.DownloadUrl != "" {
		t.AppendRow(table.Row{"Card", view.DownloadUrl})
	}
	if receipt.Fabricated {
		t.AppendFooter(table.Row{"", "demo record, not stored by the backend"})
	}
	t.Render()
}

// saveCard downloads into a temporary file next to out and renames it into
// place, a failed download leaves nothing behind.
func saveCard(ctx context.Context, client *membershipapi.Client, card registration.CardResult, out string) error {
	if card.Fabricated {
		slog.Warn("card is a placeholder, nothing to download", "card_path", card.CardPath)
		return nil
	}

	f, err := os.CreateTemp(filepath.Dir(out), ".card-*"+filepath.Ext(out))
	if err != nil {
		return fmt.Errorf("create card file: %w", err)
	}
	defer os.Remove(f.Name())
	if err = f.Chmod(0o644); err != nil {
		f.Close()
		return fmt.Errorf("create card file: %w", err)
	}

	n, err := client.DownloadCard(ctx, card.CardPath, f)
	if err != nil {
		f.Close()
		return fmt.Errorf("download card: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("write card file: %w", err)
	}
	if err = os.Rename(f.Name(), out); err != nil {
		return fmt.Errorf("save card file: %w", err)
	}
	slog.Info("card saved", "path", out, "size", humanize.Bytes(uint64(n)))
	return nil
}

func requireMemberId(id int64) {
	if id <= 0 {
		serviceutil.Fatal("--member-id must be a positive integer", nil)
	}
}

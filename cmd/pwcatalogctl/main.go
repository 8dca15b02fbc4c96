// Command pwcatalogctl manages an editable catalog database from the shell:
// list, import, export, clear and reset.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	sqliteadapter "github.com/ericfisherdev/pwcatalog/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/pwcatalog/internal/application"
	"github.com/ericfisherdev/pwcatalog/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// settings resolves flag values, falling back to PWCATALOG_* variables.
type settings struct {
	v *viper.Viper
}

func (s settings) dbPath() string     { return s.v.GetString("db_path") }
func (s settings) storageKey() string { return s.v.GetString("storage_key") }
func (s settings) locale() string     { return s.v.GetString("locale") }

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	s := settings{v: v}

	root := &cobra.Command{
		Use:           "pwcatalogctl",
		Short:         "Manage a password-requirements catalog database",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := root.PersistentFlags()
	flags.String("db", "pwcatalog.db", "catalog database path (env PWCATALOG_DB_PATH)")
	flags.String("storage-key", application.DefaultStorageKey, "blob key the catalog is stored under (env PWCATALOG_STORAGE_KEY)")
	flags.String("locale", "en", "BCP 47 language tag used for sorting (env PWCATALOG_LOCALE)")
	_ = v.BindPFlag("db_path", flags.Lookup("db"))
	_ = v.BindPFlag("storage_key", flags.Lookup("storage-key"))
	_ = v.BindPFlag("locale", flags.Lookup("locale"))

	root.AddCommand(
		newListCmd(s),
		newImportCmd(s),
		newExportCmd(s),
		newClearCmd(s),
		newResetCmd(s),
	)
	return root
}

// openCatalog opens the database, applies migrations and loads the catalog.
// The returned func closes the database.
func openCatalog(ctx context.Context, s settings) (*application.CatalogService, func(), error) {
	tag, err := language.Parse(s.locale())
	if err != nil {
		return nil, nil, fmt.Errorf("invalid locale %q: %w", s.locale(), err)
	}

	db, err := sqliteadapter.NewDB(ctx, s.dbPath())
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		closeDB()
		return nil, nil, err
	}

	catalog := application.NewEditableCatalog(
		sqliteadapter.NewBlobRepo(db),
		s.storageKey(),
		application.NewQueryPipeline(tag),
		slog.New(slog.DiscardHandler),
	)
	if err := catalog.Load(ctx); err != nil {
		closeDB()
		return nil, nil, err
	}
	return catalog, closeDB, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/MixinNetwork/metatales/config"
	"github.com/MixinNetwork/metatales/nft"
	"github.com/MixinNetwork/metatales/store"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/spf13/cobra"
)

type app struct {
	dataPath   string
	configPath string

	conf     *config.Configuration
	store    *store.BadgerStore
	registry *nft.Registry
	shell    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "metatales",
		Short:         "Royalty bearing NFT registry for literary works",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVarP(&a.dataPath, "dir", "d", "~/.metatales/data", "database directory path")
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "~/.metatales/config.toml", "configuration file path")

	root.AddCommand(
		a.mintCmd(),
		a.burnCmd(),
		a.transferCmd(),
		a.approveCmd(),
		a.royaltyCmd(),
		a.tokenCmd(),
		a.ownerCmd(),
		a.txCmd(),
		a.indexCmd(),
		a.shellCmd(),
	)
	return root
}

// open is a no-op for the commands of a shell, they share its store.
func (a *app) open(ctx context.Context) error {
	if a.registry != nil {
		return nil
	}
	conf, err := config.Setup(expandHome(a.configPath))
	if err != nil {
		return err
	}
	logger.SetLevel(conf.Logger.Level)
	a.conf = conf

	genesis, err := conf.Genesis()
	if err != nil {
		return err
	}

	db, err := store.OpenBadger(ctx, expandHome(a.dataPath))
	if err != nil {
		return err
	}
	a.store = db

	a.registry, err = nft.NewRegistry(ctx, db, genesis)
	if err != nil {
		db.Close()
		a.store = nil
	}
	return err
}

func (a *app) close() error {
	if a.store == nil || a.shell {
		return nil
	}
	err := a.store.Close()
	a.store, a.registry = nil, nil
	return err
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	usr, err := user.Current()
	if err != nil {
		return path
	}
	return filepath.Join(usr.HomeDir, path[2:])
}

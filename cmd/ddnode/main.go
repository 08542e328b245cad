// ddnode is the command-line interface for the content-distribution node:
// it can serve a local catalog to the network, or fetch a file by its
// whole-file hash from whoever announces it.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	core "github.com/netdrop/node"
	"github.com/netdrop/node/cache"
	"github.com/netdrop/node/store"
	"github.com/netdrop/node/webapi"
	"github.com/spf13/afero"
	"gopkg.in/urfave/cli.v1"
)

var Version = "source"

var (
	ConfigFlag = cli.StringFlag{
		Name:  "config",
		Usage: "Path to the YAML configuration file",
		Value: "config.yaml",
	}
	HashFlag = cli.StringFlag{
		Name:  "hash",
		Usage: "Hex-encoded whole_hash of the file to fetch",
	}
	OutFlag = cli.StringFlag{
		Name:  "out",
		Usage: "Destination path for a fetched file",
	}
)

func makeCLIApp() *cli.App {
	app := cli.NewApp()
	app.Name = filepath.Base(os.Args[0])
	app.Version = Version
	app.Usage = "content-distribution node"
	app.HideVersion = true

	app.Commands = []cli.Command{
		serveCommand,
		fetchCommand,
	}
	app.Flags = []cli.Flag{ConfigFlag}

	return app
}

var serveCommand = cli.Command{
	Action: serve,
	Name:   "serve",
	Usage:  "Scan the configured catalog and serve it to the network",
	Flags:  []cli.Flag{ConfigFlag},
}

var fetchCommand = cli.Command{
	Action: fetch,
	Name:   "fetch",
	Usage:  "Fetch a file by whole_hash from whoever announces it",
	Flags:  []cli.Flag{ConfigFlag, HashFlag, OutFlag},
}

func loadBackend(ctx *cli.Context, fs afero.Fs) (*core.Backend, error) {
	core.LoadEnvFile(".env")

	configPath := ctx.GlobalString(ConfigFlag.Name)
	if ctx.IsSet(ConfigFlag.Name) {
		configPath = ctx.String(ConfigFlag.Name)
	}

	config, err := core.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	metadataStore, err := store.NewPogrebStore(config.MetadataCachePath)
	if err != nil {
		return nil, err
	}
	metadataCache := cache.New(metadataStore)

	catalog, err := core.ScanCatalog(fs, config.Catalog, metadataCache)
	if err != nil {
		return nil, err
	}

	backend, err := core.Init(config, fs, catalog, core.Hooks{})
	if err != nil {
		fmt.Fprintln(os.Stderr, "ddnode: initializing logging:", err)
		os.Exit(core.ExitErrorLogInit)
	}

	return backend, nil
}

func serve(ctx *cli.Context) error {
	fs := afero.NewOsFs()

	backend, err := loadBackend(ctx, fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ddnode: loading backend:", err)
		os.Exit(core.ExitErrorGeneric)
	}

	errs := make(chan error, 4)

	go func() {
		errs <- core.ServePing(backend.Config.Listen, backend.Hooks.LogError)
	}()

	listener, err := core.NewListener(backend.Config.Listen)
	if err != nil {
		backend.Log.WithError(err).Error("binding discovery listener")
		os.Exit(core.ExitErrorUDPBind)
	}
	go func() {
		errs <- backend.RunAnnounceLoop(listener)
	}()

	go func() {
		errs <- backend.RunServeLoop(fs, backend.Config.Listen)
	}()

	if backend.Config.ControlPlaneListen != "" {
		api := webapi.Start(backend, fs)
		go func() {
			errs <- api.Serve(backend.Config.ControlPlaneListen)
		}()
	}

	err = <-errs
	backend.Log.WithError(err).Error("a long-running task exited")
	os.Exit(core.ExitErrorGeneric)
	return nil
}

func fetch(ctx *cli.Context) error {
	fs := afero.NewOsFs()

	backend, err := loadBackend(ctx, fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ddnode: loading backend:", err)
		os.Exit(core.ExitErrorGeneric)
	}

	wholeHash, err := hex.DecodeString(ctx.String(HashFlag.Name))
	if err != nil {
		fmt.Fprintln(os.Stderr, "ddnode: invalid --hash:", err)
		os.Exit(core.ExitErrorGeneric)
	}

	destPath := ctx.String(OutFlag.Name)
	if destPath == "" {
		fmt.Fprintln(os.Stderr, "ddnode: --out is required")
		os.Exit(core.ExitErrorGeneric)
	}

	if err := backend.Request(fs, wholeHash, destPath); err != nil {
		backend.Log.WithError(err).Error("fetch failed")
		if err == core.ErrMetadataHashMismatch {
			os.Exit(core.ExitErrorHashMismatch)
		}
		os.Exit(core.ExitErrorGeneric)
	}

	return nil
}

func main() {
	app := makeCLIApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(core.ExitErrorGeneric)
	}
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/edusync/portal/core"
	"github.com/edusync/portal/core/portal"
	logsvc "github.com/edusync/portal/services/logger"
	odoosvc "github.com/edusync/portal/services/odoo"
	localstore "github.com/edusync/portal/storage/local"
)

var appLogger core.Logger

func main() {
	defer os.Exit(0)

	conf := core.Conf

	appLogger = logsvc.NewStdLogger(conf)
	if conf.RollbarToken != "" && !conf.Debug {
		rl := logsvc.NewRollbarLogger(conf)
		rl.Enable(true)
		appLogger = rl
	}

	store, err := localstore.New(conf.StateDir)
	errAndDie(err)

	client, err := odoosvc.NewClient(conf, store, appLogger)
	errAndDie(err)

	session := portal.NewSession(client, store, appLogger)

	// start CLI
	cli := commandLine{
		client:  client,
		session: session,
		out:     os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			printErr(err)
		}
		os.Exit(1)
	}
}

func printErr(err error) {
	var vErr *core.ValidationError
	if errors.As(err, &vErr) && len(vErr.Fields) > 0 {
		for _, f := range vErr.Fields {
			fmt.Fprintf(os.Stderr, "%s: %s\n", f.Field, f.Error)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
}

func errAndDie(err error) {
	if err != nil {
		appLogger.Fatal(err.Error())
	}
}

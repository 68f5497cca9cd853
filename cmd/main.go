package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"cryptofolio/cmd/pricesync"
	"cryptofolio/cmd/verify"
	"cryptofolio/src/database"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Cryptofolio CMD"
	app.Usage = "The Cryptofolio command line interface"

	app.Commands = []cli.Command{
		priceSyncCMD,
		verifyCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	priceSyncCMD = cli.Command{
		Name:        "pricesync",
		Usage:       "refresh the cached asset prices",
		Action:      priceSyncAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Fetch the top coins from Coinranking and refresh the local price cache`,
	}
	verifyCMD = cli.Command{
		Name:      "verify",
		Usage:     "verify ledger consistency",
		Action:    verifyAction,
		ArgsUsage: "[uid]",
		Flags:     []cli.Flag{},
		Description: `Replay the transaction log of one account (or all accounts) and
   compare the derived state against stored balances and holdings`,
	}
)

func priceSyncAction(_ *cli.Context) error {

	logrus.Info("Starting pricesync CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to database")
		return err
	}

	ps := &pricesync.PriceSync{}
	if err := ps.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func verifyAction(c *cli.Context) error {

	logrus.Info("Starting verify CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to database")
		return err
	}

	v := &verify.Verify{UID: c.Args().First()}
	if err := v.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

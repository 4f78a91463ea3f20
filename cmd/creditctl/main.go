// Command creditctl is the operator CLI against a running creditd's
// App control surface (spec §6), modeled on cmd/lncli/main.go (deleted,
// see DESIGN.md's verbatim-teacher-package audit): a urfave/cli app,
// one subcommand per control op plus a report dump, a global
// --rpcserver/--macaroondir pair of flags threaded into every command.
package main

import (
	"fmt"
	"os"

	"github.com/btcsuite/btcutil"
	"github.com/urfave/cli"
)

var defaultCreditDir = btcutil.AppDataDir("creditd", false)

func main() {
	app := cli.NewApp()
	app.Name = "creditctl"
	app.Usage = "control plane for a running creditd node"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rpcserver",
			Value: "localhost:10442",
			Usage: "creditd's App control gRPC address",
		},
		cli.StringFlag{
			Name:  "macaroondir",
			Value: defaultCreditDir,
			Usage: "directory holding the four permission macaroons creditd minted",
		},
	}
	app.Commands = []cli.Command{
		addFriendCommand, removeFriendCommand, setFriendNameCommand,
		setFriendRelaysCommand, setFriendRemoteMaxDebtCommand, setFriendRateCommand,
		enableFriendCommand, disableFriendCommand, openFriendCommand, closeFriendCommand,
		resetFriendChannelCommand, addRelayCommand, removeRelayCommand,
		addInvoiceCommand, cancelInvoiceCommand, commitInvoiceCommand,
		createPaymentCommand, createTransactionCommand, requestClosePaymentCommand,
		ackClosePaymentCommand, completePaymentWithReceiptCommand, cancelTransactionCommand,
		addIndexServerCommand, removeIndexServerCommand, requestRoutesCommand,
		reportCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "creditctl:", err)
		os.Exit(1)
	}
}

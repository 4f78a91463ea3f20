package main

import (
	"github.com/urfave/cli"

	"github.com/fritznode/creditnode/appserver"
)

// dialAndCall is the shared per-command glue: dial creditd, build the
// call context for the given permission bucket, invoke method, print
// the response. Every command below is this same five-line shape with
// a different bucket/method/request/response triple, mirroring how
// uniform cmd/lncli's own command bodies were against rpcserver.go's
// uniform RPC surface.
func dialAndCall(c *cli.Context, bucket appserver.Permission, method string, req, resp interface{}) error {
	conn, err := dial(c.GlobalString("rpcserver"))
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, err := callCtx(c.GlobalString("macaroondir"), bucket)
	if err != nil {
		return err
	}
	if err := invoke(ctx, conn, method, req, resp); err != nil {
		return err
	}
	printResponse(resp)
	return nil
}

var addFriendCommand = cli.Command{
	Name:      "addfriend",
	Usage:     "register a new friend",
	ArgsUsage: "friend_public_key_hex name",
	Action: func(c *cli.Context) error {
		pk, err := hexArg(c.Args().Get(0))
		if err != nil {
			return err
		}
		req := &appserver.AddFriendRequest{FriendPublicKey: pk, Name: c.Args().Get(1)}
		return dialAndCall(c, appserver.PermissionConfig, "AddFriend", req, &appserver.Empty{})
	},
}

var removeFriendCommand = cli.Command{
	Name:      "removefriend",
	Usage:     "remove a friend",
	ArgsUsage: "friend_public_key_hex",
	Action: func(c *cli.Context) error {
		pk, err := hexArg(c.Args().Get(0))
		if err != nil {
			return err
		}
		req := &appserver.RemoveFriendRequest{FriendPublicKey: pk}
		return dialAndCall(c, appserver.PermissionConfig, "RemoveFriend", req, &appserver.Empty{})
	},
}

var setFriendNameCommand = cli.Command{
	Name:      "setfriendname",
	Usage:     "rename a friend",
	ArgsUsage: "friend_public_key_hex name",
	Action: func(c *cli.Context) error {
		pk, err := hexArg(c.Args().Get(0))
		if err != nil {
			return err
		}
		req := &appserver.SetFriendNameRequest{FriendPublicKey: pk, Name: c.Args().Get(1)}
		return dialAndCall(c, appserver.PermissionConfig, "SetFriendName", req, &appserver.Empty{})
	},
}

var setFriendRelaysCommand = cli.Command{
	Name:      "setfriendrelays",
	Usage:     "set the relay hints advertised to a friend",
	ArgsUsage: "friend_public_key_hex relay_public_key_hex relay_address [relay_public_key_hex relay_address ...]",
	Action: func(c *cli.Context) error {
		pk, err := hexArg(c.Args().Get(0))
		if err != nil {
			return err
		}
		rest := c.Args().Tail()
		var relays []*appserver.RelayAddressMsg
		for i := 0; i+1 < len(rest); i += 2 {
			rpk, err := hexArg(rest[i])
			if err != nil {
				return err
			}
			relays = append(relays, &appserver.RelayAddressMsg{PublicKey: rpk, Address: rest[i+1]})
		}
		req := &appserver.SetFriendRelaysRequest{FriendPublicKey: pk, Relays: relays}
		return dialAndCall(c, appserver.PermissionConfig, "SetFriendRelays", req, &appserver.Empty{})
	},
}

var setFriendRemoteMaxDebtCommand = cli.Command{
	Name:      "setfriendremotemaxdebt",
	Usage:     "set the maximum this node will let a friend owe it",
	ArgsUsage: "friend_public_key_hex max_debt",
	Action: func(c *cli.Context) error {
		pk, err := hexArg(c.Args().Get(0))
		if err != nil {
			return err
		}
		maxDebt, err := amountArg(c.Args().Get(1))
		if err != nil {
			return err
		}
		req := &appserver.SetFriendRemoteMaxDebtRequest{FriendPublicKey: pk, MaxDebt: maxDebt}
		return dialAndCall(c, appserver.PermissionConfig, "SetFriendRemoteMaxDebt", req, &appserver.Empty{})
	},
}

var setFriendRateCommand = cli.Command{
	Name:      "setfriendrate",
	Usage:     "set the fee rate (base + multiplier) charged to forward through a friend",
	ArgsUsage: "friend_public_key_hex base mul",
	Action: func(c *cli.Context) error {
		pk, err := hexArg(c.Args().Get(0))
		if err != nil {
			return err
		}
		base, err := amountArg(c.Args().Get(1))
		if err != nil {
			return err
		}
		mul, err := amountArg(c.Args().Get(2))
		if err != nil {
			return err
		}
		req := &appserver.SetFriendRateRequest{FriendPublicKey: pk, Base: base, Mul: mul}
		return dialAndCall(c, appserver.PermissionConfig, "SetFriendRate", req, &appserver.Empty{})
	},
}

func friendPublicKeyCommand(name, usage, method string) cli.Command {
	return cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "friend_public_key_hex",
		Action: func(c *cli.Context) error {
			pk, err := hexArg(c.Args().Get(0))
			if err != nil {
				return err
			}
			req := &appserver.FriendPublicKeyRequest{FriendPublicKey: pk}
			var resp interface{} = &appserver.Empty{}
			if method == "ResetFriendChannel" {
				resp = &appserver.ResetFriendChannelResponse{}
			}
			return dialAndCall(c, appserver.PermissionConfig, method, req, resp)
		},
	}
}

var enableFriendCommand = friendPublicKeyCommand("enablefriend", "enable a disabled friend", "EnableFriend")
var disableFriendCommand = friendPublicKeyCommand("disablefriend", "disable a friend (stop new outgoing work)", "DisableFriend")
var openFriendCommand = friendPublicKeyCommand("openfriend", "mark a friend open for new payments", "OpenFriend")
var closeFriendCommand = friendPublicKeyCommand("closefriend", "mark a friend closed to new payments", "CloseFriend")
var resetFriendChannelCommand = friendPublicKeyCommand("resetfriendchannel", "force a friend's channel into reset negotiation", "ResetFriendChannel")

var addRelayCommand = cli.Command{
	Name:      "addrelay",
	Usage:     "register a relay this node advertises to friends",
	ArgsUsage: "relay_public_key_hex address",
	Action: func(c *cli.Context) error {
		pk, err := hexArg(c.Args().Get(0))
		if err != nil {
			return err
		}
		req := &appserver.AddRelayRequest{Relay: &appserver.RelayAddressMsg{PublicKey: pk, Address: c.Args().Get(1)}}
		return dialAndCall(c, appserver.PermissionConfig, "AddRelay", req, &appserver.Empty{})
	},
}

var removeRelayCommand = cli.Command{
	Name:      "removerelay",
	Usage:     "remove a previously registered relay",
	ArgsUsage: "relay_public_key_hex",
	Action: func(c *cli.Context) error {
		pk, err := hexArg(c.Args().Get(0))
		if err != nil {
			return err
		}
		req := &appserver.RemoveRelayRequest{RelayPublicKey: pk}
		return dialAndCall(c, appserver.PermissionConfig, "RemoveRelay", req, &appserver.Empty{})
	},
}

var addInvoiceCommand = cli.Command{
	Name:      "addinvoice",
	Usage:     "create an invoice this node will accept payment against",
	ArgsUsage: "invoice_id_hex total",
	Action: func(c *cli.Context) error {
		id, err := hexArg(c.Args().Get(0))
		if err != nil {
			return err
		}
		total, err := amountArg(c.Args().Get(1))
		if err != nil {
			return err
		}
		req := &appserver.AddInvoiceRequest{InvoiceId: id, Total: total}
		return dialAndCall(c, appserver.PermissionSeller, "AddInvoice", req, &appserver.Empty{})
	},
}

var cancelInvoiceCommand = cli.Command{
	Name:      "cancelinvoice",
	Usage:     "cancel an open invoice",
	ArgsUsage: "invoice_id_hex",
	Action: func(c *cli.Context) error {
		id, err := hexArg(c.Args().Get(0))
		if err != nil {
			return err
		}
		req := &appserver.InvoiceIdRequest{InvoiceId: id}
		return dialAndCall(c, appserver.PermissionSeller, "CancelInvoice", req, &appserver.Empty{})
	},
}

var commitInvoiceCommand = cli.Command{
	Name:      "commitinvoice",
	Usage:     "commit a fully paid invoice and fetch its signed receipt",
	ArgsUsage: "invoice_id_hex",
	Action: func(c *cli.Context) error {
		id, err := hexArg(c.Args().Get(0))
		if err != nil {
			return err
		}
		req := &appserver.InvoiceIdRequest{InvoiceId: id}
		return dialAndCall(c, appserver.PermissionSeller, "CommitInvoice", req, &appserver.CommitInvoiceResponse{})
	},
}

var createPaymentCommand = cli.Command{
	Name:      "createpayment",
	Usage:     "open a new payment toward an invoice at a destination",
	ArgsUsage: "payment_id_hex invoice_id_hex total dest_public_key_hex",
	Action: func(c *cli.Context) error {
		paymentID, err := hexArg(c.Args().Get(0))
		if err != nil {
			return err
		}
		invoiceID, err := hexArg(c.Args().Get(1))
		if err != nil {
			return err
		}
		total, err := amountArg(c.Args().Get(2))
		if err != nil {
			return err
		}
		destPk, err := hexArg(c.Args().Get(3))
		if err != nil {
			return err
		}
		req := &appserver.CreatePaymentRequest{PaymentId: paymentID, InvoiceId: invoiceID, Total: total, DestPublicKey: destPk}
		return dialAndCall(c, appserver.PermissionBuyer, "CreatePayment", req, &appserver.Empty{})
	},
}

var createTransactionCommand = cli.Command{
	Name:      "createtransaction",
	Usage:     "open one transaction attempt along a route for an existing payment",
	ArgsUsage: "payment_id_hex request_id_hex dest_payment left_fees hop_public_key_hex [hop_public_key_hex ...]",
	Action: func(c *cli.Context) error {
		paymentID, err := hexArg(c.Args().Get(0))
		if err != nil {
			return err
		}
		requestID, err := hexArg(c.Args().Get(1))
		if err != nil {
			return err
		}
		destPayment, err := amountArg(c.Args().Get(2))
		if err != nil {
			return err
		}
		leftFees, err := amountArg(c.Args().Get(3))
		if err != nil {
			return err
		}
		var hops [][]byte
		for _, h := range c.Args()[4:] {
			hb, err := hexArg(h)
			if err != nil {
				return err
			}
			hops = append(hops, hb)
		}
		req := &appserver.CreateTransactionRequest{
			PaymentId: paymentID, RequestId: requestID,
			Hops: hops, DestPayment: destPayment, LeftFees: leftFees,
		}
		return dialAndCall(c, appserver.PermissionBuyer, "CreateTransaction", req, &appserver.Empty{})
	},
}

var requestClosePaymentCommand = cli.Command{
	Name:      "requestclosepayment",
	Usage:     "poll a payment's current terminal stage",
	ArgsUsage: "payment_id_hex",
	Action: func(c *cli.Context) error {
		id, err := hexArg(c.Args().Get(0))
		if err != nil {
			return err
		}
		req := &appserver.PaymentIdRequest{PaymentId: id}
		return dialAndCall(c, appserver.PermissionBuyer, "RequestClosePayment", req, &appserver.RequestClosePaymentResponse{})
	},
}

var ackClosePaymentCommand = cli.Command{
	Name:      "ackclosepayment",
	Usage:     "acknowledge a payment's closure, releasing its bookkeeping",
	ArgsUsage: "payment_id_hex ack_uid_hex",
	Action: func(c *cli.Context) error {
		id, err := hexArg(c.Args().Get(0))
		if err != nil {
			return err
		}
		ackUid, err := hexArg(c.Args().Get(1))
		if err != nil {
			return err
		}
		req := &appserver.AckClosePaymentRequest{PaymentId: id, AckUid: ackUid}
		return dialAndCall(c, appserver.PermissionBuyer, "AckClosePayment", req, &appserver.Empty{})
	},
}

var completePaymentWithReceiptCommand = cli.Command{
	Name:      "completepaymentwithreceipt",
	Usage:     "finish a payment using a receipt obtained out of band",
	ArgsUsage: "payment_id_hex response_hash_hex invoice_id_hex total_dest_payment signature_hex",
	Action: func(c *cli.Context) error {
		id, err := hexArg(c.Args().Get(0))
		if err != nil {
			return err
		}
		responseHash, err := hexArg(c.Args().Get(1))
		if err != nil {
			return err
		}
		invoiceID, err := hexArg(c.Args().Get(2))
		if err != nil {
			return err
		}
		total, err := amountArg(c.Args().Get(3))
		if err != nil {
			return err
		}
		sig, err := hexArg(c.Args().Get(4))
		if err != nil {
			return err
		}
		req := &appserver.CompletePaymentWithReceiptRequest{
			PaymentId: id,
			Receipt: &appserver.ReceiptMsg{
				ResponseHash: responseHash, InvoiceId: invoiceID,
				TotalDestPayment: total, Signature: sig,
			},
		}
		return dialAndCall(c, appserver.PermissionBuyer, "CompletePaymentWithReceipt", req, &appserver.Empty{})
	},
}

var cancelTransactionCommand = cli.Command{
	Name:      "canceltransaction",
	Usage:     "cancel a single in-flight transaction attempt",
	ArgsUsage: "request_id_hex",
	Action: func(c *cli.Context) error {
		id, err := hexArg(c.Args().Get(0))
		if err != nil {
			return err
		}
		req := &appserver.CancelTransactionRequest{RequestId: id}
		return dialAndCall(c, appserver.PermissionBuyer, "CancelTransaction", req, &appserver.Empty{})
	},
}

var addIndexServerCommand = cli.Command{
	Name:      "addindexserver",
	Usage:     "register an Index server this node will query for routes",
	ArgsUsage: "address",
	Action: func(c *cli.Context) error {
		req := &appserver.AddIndexServerRequest{Address: c.Args().Get(0)}
		return dialAndCall(c, appserver.PermissionRoutes, "AddIndexServer", req, &appserver.Empty{})
	},
}

var removeIndexServerCommand = cli.Command{
	Name:      "removeindexserver",
	Usage:     "remove a previously registered Index server",
	ArgsUsage: "address",
	Action: func(c *cli.Context) error {
		req := &appserver.RemoveIndexServerRequest{Address: c.Args().Get(0)}
		return dialAndCall(c, appserver.PermissionRoutes, "RemoveIndexServer", req, &appserver.Empty{})
	},
}

var requestRoutesCommand = cli.Command{
	Name:      "requestroutes",
	Usage:     "ask registered Index servers for a route to a destination",
	ArgsUsage: "dest_public_key_hex amount",
	Action: func(c *cli.Context) error {
		destPk, err := hexArg(c.Args().Get(0))
		if err != nil {
			return err
		}
		amount, err := amountArg(c.Args().Get(1))
		if err != nil {
			return err
		}
		req := &appserver.RequestRoutesRequest{DestPublicKey: destPk, Amount: amount}
		return dialAndCall(c, appserver.PermissionRoutes, "RequestRoutes", req, &appserver.RequestRoutesResponse{})
	},
}

var reportCommand = cli.Command{
	Name:  "report",
	Usage: "dump the current funder report snapshot",
	Action: func(c *cli.Context) error {
		return dialAndCall(c, appserver.PermissionConfig, "GetReport", &appserver.GetReportRequest{}, &appserver.FunderReportMsg{})
	},
}

package funder

import (
	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/creditwire"
)

// ReportSink is the narrow interface EventLoop publishes externally
// visible mutations through. report.Hub satisfies this; funder itself
// never imports report (report imports funder for FunderState/
// FunderMutation/Payment, so the dependency can only run one way).
type ReportSink interface {
	Publish(appRequestID *creditid.Uid, muts []FunderMutation)
}

// DurableLog is the narrow interface EventLoop appends every
// FunderMutation batch through before releasing any Outgoing message,
// per spec §4.4 step 3 ("Append mutations to DB; wait for ack"
// before step 4's release). creditdb.Store satisfies this.
type DurableLog interface {
	Append(muts []FunderMutation) error
}

// MessageSender is the narrow interface EventLoop hands Outgoing
// messages to for delivery over the Channeler's opaque transport
// (spec §1). channeler.Client satisfies this.
type MessageSender interface {
	Send(to creditid.PublicKey, msg creditwire.Message) error
}

package report

import (
	"github.com/fritznode/creditnode/creditid"
)

// IndexMutationKind tags the variant of IndexMutation the out-of-core
// Index client consumes (spec §1): a coarser view than
// FunderReportMutation, carrying only what route discovery needs
// (which friends exist and their current capacity), never per-request
// detail.
type IndexMutationKind int

const (
	IndexUpdateFriend IndexMutationKind = iota
	IndexRemoveFriend
)

// IndexMutation is one update destined for the Index client's gossip
// of this node's outgoing capacity, derived from FunderReportMutation
// rather than FunderMutation directly: the Index client is further
// from the funder core than the App server is (spec §1 "external,
// out-of-core collaborator"), so it only ever sees the externally
// projected view, never internal bookkeeping fields.
type IndexMutation struct {
	Kind            IndexMutationKind
	FriendPublicKey creditid.PublicKey
	Capacity        *mutualcreditBalanceView
}

// DeriveIndexMutations picks out of a FunderReportMutation batch the
// subset that changes this node's advertised routing capacity:
// friend add/remove and balance updates (which shift how much
// could still be forwarded through that friend); every other report
// mutation (payment/invoice lifecycle, name, rate) is private
// bookkeeping the Index client has no use for.
func DeriveIndexMutations(reportMuts []FunderReportMutation, balances map[creditid.PublicKey]mutualcreditBalanceView) []IndexMutation {
	var out []IndexMutation
	for _, rm := range reportMuts {
		switch rm.Kind {
		case ReportAddFriend, ReportUpdateFriendBalance, ReportUpdateFriendEnabled:
			bal := balances[rm.FriendPublicKey]
			out = append(out, IndexMutation{
				Kind:            IndexUpdateFriend,
				FriendPublicKey: rm.FriendPublicKey,
				Capacity:        &bal,
			})
		case ReportRemoveFriend:
			out = append(out, IndexMutation{Kind: IndexRemoveFriend, FriendPublicKey: rm.FriendPublicKey})
		}
	}
	return out
}

package funder

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/go-errors/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/creditwire"
	"github.com/fritznode/creditnode/friend"
	"github.com/fritznode/creditnode/identity"
	"github.com/fritznode/creditnode/queue"
	"github.com/fritznode/creditnode/ticker"
)

// appJob is one App control request queued onto EventLoop.appRequests:
// a closure over the concrete funder op (AddFriend, CreateTransaction,
// ...) the appserver RPC handler built, plus the id that must be
// echoed back on the resulting report mutations (spec §6).
type appJob struct {
	appRequestID *creditid.Uid
	run          func(ctx context.Context) ([]FunderMutation, []Outgoing, error)
	reply        chan error
}

// inboundFriendMessage is one inbound wire message queued onto
// EventLoop.friendMessages by the Channeler.
type inboundFriendMessage struct {
	from creditid.PublicKey
	msg  creditwire.Message
}

// livenessUpdate is queued onto EventLoop.friendMessages alongside
// inboundFriendMessage whenever the Channeler's own connectivity to a
// friend changes (spec §4.3: "Liveness is toggled by the Channeler"),
// sharing the same mailbox since both originate from the Channeler and
// must be serialized through the same single-writer goroutine.
type livenessUpdate struct {
	pk     creditid.PublicKey
	online bool
}

// DeliverFriendMessage is the Channeler-facing entry point: it queues
// msg for the loop goroutine and returns immediately, never blocking
// the Channeler's own read loop on funder's processing.
func (l *EventLoop) DeliverFriendMessage(from creditid.PublicKey, msg creditwire.Message) {
	l.friendMessages.ChanIn() <- inboundFriendMessage{from: from, msg: msg}
}

// SetLiveness implements channeler.Receiver: the Channeler calls this
// whenever its connection to pk comes up or goes down.
func (l *EventLoop) SetLiveness(pk creditid.PublicKey, online bool) {
	l.friendMessages.ChanIn() <- livenessUpdate{pk: pk, online: online}
}

// EventLoop is the single-writer serialization point spec §5 names:
// every concurrent input (App control requests, Channeler friend
// messages, timer ticks) funnels through exactly one goroutine that
// owns FunderState outright, so none of the mutation logic elsewhere
// in this package has to be concurrency-safe on its own. Grounded on
// daemon/server.go's subsystem-goroutine wiring, generalized from
// lnd's many subsystems to this package's narrower one: DB writer,
// Channeler reader, App server reader, and the liveness ticker are the
// four suspension points spec §5 names.
type EventLoop struct {
	state          *FunderState
	identityClient *identity.Client

	db     DurableLog
	report ReportSink
	send   MessageSender

	appRequests    *queue.ConcurrentQueue
	friendMessages *queue.ConcurrentQueue

	liveness ticker.Ticker

	// retransmitLimiter throttles how often a single friend is flushed
	// on a liveness tick, one token bucket per friend, lazily created.
	retransmitLimiter map[creditid.PublicKey]*rate.Limiter

	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewEventLoop wires state to its durable log, report sink, and
// message sender. liveness is usually ticker.New(spec's keepalive
// interval); tests pass a ticker.Mock to drive ticks by hand.
func NewEventLoop(state *FunderState, identityClient *identity.Client, db DurableLog, report ReportSink, send MessageSender, liveness ticker.Ticker) *EventLoop {
	return &EventLoop{
		state:             state,
		identityClient:    identityClient,
		db:                db,
		report:            report,
		send:              send,
		appRequests:       queue.NewConcurrentQueue(256),
		friendMessages:    queue.NewConcurrentQueue(256),
		liveness:          liveness,
		retransmitLimiter: make(map[creditid.PublicKey]*rate.Limiter),
	}
}

// Start launches the loop's goroutines under an errgroup.Group so a
// fatal error in any one of them (a DB append that can't be retried,
// say) tears the whole loop down instead of leaving it half alive.
func (l *EventLoop) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	l.group = g

	l.appRequests.Start()
	l.friendMessages.Start()

	g.Go(func() error { return l.run(gctx) })
}

// Stop tears the loop down and waits for its goroutine to exit,
// returning the first fatal error it hit, if any.
func (l *EventLoop) Stop() error {
	if l.cancel != nil {
		l.cancel()
	}
	l.appRequests.Stop()
	l.friendMessages.Stop()
	if l.group == nil {
		return nil
	}
	return l.group.Wait()
}

// SubmitAppRequest queues run onto the App-request mailbox and blocks
// until the loop has executed it, mirroring a synchronous gRPC call's
// request/response shape over the async single-writer core. A nil
// appRequestID means the caller (e.g. an internal housekeeping pass)
// has nothing to echo back on the report stream.
func (l *EventLoop) SubmitAppRequest(appRequestID *creditid.Uid, run func(ctx context.Context) ([]FunderMutation, []Outgoing, error)) error {
	job := appJob{appRequestID: appRequestID, run: run, reply: make(chan error, 1)}
	l.appRequests.ChanIn() <- job
	return <-job.reply
}

// run is the loop's single goroutine: it never touches FunderState
// from anywhere else.
func (l *EventLoop) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case item := <-l.appRequests.ChanOut():
			job, ok := item.(appJob)
			if !ok {
				continue
			}
			muts, outgoing, err := job.run(ctx)
			job.reply <- l.finish(job.appRequestID, muts, outgoing, err)

		case item := <-l.friendMessages.ChanOut():
			switch v := item.(type) {
			case inboundFriendMessage:
				muts, outgoing, err := HandleFriendMessage(ctx, l.state, l.identityClient, v.from, v.msg)
				if err := l.finish(nil, muts, outgoing, err); err != nil {
					log.Errorf("handling friend message from %s: %v", v.from, err)
				}
			case livenessUpdate:
				f, ok := l.state.Friends[v.pk]
				if !ok {
					continue
				}
				newLiveness := friend.LivenessOffline
				if v.online {
					newLiveness = friend.LivenessOnline
				}
				if f.Liveness == newLiveness {
					continue
				}
				muts := []FunderMutation{{Kind: MutSetFriendLiveness, FriendPublicKey: v.pk, Liveness: newLiveness}}
				if err := l.finish(nil, muts, nil, nil); err != nil {
					log.Errorf("setting liveness for %s: %v", v.pk, err)
				}
			}

		case now := <-l.liveness.Ticks():
			l.onLivenessTick(ctx, now)
		}
	}
}

// finish applies and durably persists muts before publishing the
// report projection and dispatching outgoing wire messages, the
// ordering spec §4.4 step 3/4 requires. A DB append failure is
// treated as fatal (wrapped with go-errors/errors for its captured
// stack trace, matching daemon/server.go's startup-error wrapping)
// since the in-memory state and durable log must never diverge.
func (l *EventLoop) finish(appRequestID *creditid.Uid, muts []FunderMutation, outgoing []Outgoing, err error) error {
	if err != nil {
		return err
	}
	if len(muts) > 0 {
		if dbErr := l.db.Append(muts); dbErr != nil {
			return goerrors.Wrap(fmt.Errorf("funder: durable append failed: %w", dbErr), 0)
		}
		l.state.ApplyAll(muts)
		if l.report != nil {
			l.report.Publish(appRequestID, muts)
		}
	}
	for _, out := range outgoing {
		if sendErr := l.send.Send(out.To, out.Message); sendErr != nil {
			log.Errorf("sending %T to %s: %v", out.Message, out.To, sendErr)
		}
	}
	return nil
}

// onLivenessTick sweeps every Consistent friend, whatever its liveness
// or enabled flag, and flushes anything queued through FlushFriend.
// Each friend gets at most one flush attempt per minute from its own
// token bucket, the same backoff role golang.org/x/time/rate's token
// bucket plays for the teacher's outbound gossip throttling
// (discovery/syncer.go). A move token still waiting for the friend's
// reply is not resent: FlushFriend returns nil for that friend.
func (l *EventLoop) onLivenessTick(ctx context.Context, now time.Time) {
	for pk, f := range l.state.Friends {
		if f.Kind != friend.StateConsistent {
			continue
		}
		limiter := l.retransmitLimiter[pk]
		if limiter == nil {
			limiter = rate.NewLimiter(rate.Every(time.Minute), 1)
			l.retransmitLimiter[pk] = limiter
		}
		if !limiter.AllowN(now, 1) {
			continue
		}
		out, err := FlushFriend(ctx, l.state, l.identityClient, pk)
		if err != nil {
			log.Errorf("liveness flush for %s: %v", pk, err)
			continue
		}
		if out != nil {
			if sendErr := l.send.Send(out.To, out.Message); sendErr != nil {
				log.Errorf("liveness send to %s: %v", pk, sendErr)
			}
		}
	}
}

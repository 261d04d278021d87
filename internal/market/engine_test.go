package market

import (
	"errors"
	"testing"
	"time"

	"pollmarket/internal/models"
)

type transferCall struct {
	From, To, Authorizer string
	Amount               uint64
}

// fakeLedger records transfer requests and can be told to fail.
type fakeLedger struct {
	calls []transferCall
	err   error
}

func (f *fakeLedger) transfer(from, to, authorizer string, amount uint64) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, transferCall{From: from, To: to, Authorizer: authorizer, Amount: amount})
	return nil
}

var testAccounts = Accounts{
	CallerVault:   "user:alice:usd",
	PoolVault:     "pool:p1",
	FeeVault:      "fees:usd",
	PoolAuthority: "pool-authority:p1",
}

func testEngine(admin string, now time.Time) *Engine {
	return &Engine{
		Admin: admin,
		Now:   func() time.Time { return now },
	}
}

func newTestPoll(t *testing.T, e *Engine) *models.Poll {
	t.Helper()
	poll, err := e.CreatePoll(CreatePollParams{
		Authority:       "creator",
		Title:           "who wins",
		ClosesAt:        e.now().Add(24 * time.Hour),
		OutcomeA:        "outcome-a",
		OutcomeB:        "outcome-b",
		InitialReserveA: 1000,
		InitialReserveB: 1000,
		SettlementToken: "usd",
	})
	if err != nil {
		t.Fatalf("CreatePoll: %v", err)
	}
	return poll
}

func TestCreatePoll(t *testing.T) {
	e := testEngine("admin", time.Now().UTC())
	poll := newTestPoll(t, e)
	if poll.Status != models.PollStatusActive {
		t.Fatalf("status = %s, want active", poll.Status)
	}
	if poll.InvariantK != 1_000_000 {
		t.Fatalf("k = %d, want 1000000", poll.InvariantK)
	}
	if poll.ID == "" {
		t.Fatalf("poll has no id")
	}
	if poll.WinningOutcome != nil {
		t.Fatalf("new poll has a winning outcome")
	}
}

func TestCreatePoll_TitleTooLong(t *testing.T) {
	e := testEngine("", time.Now().UTC())
	_, err := e.CreatePoll(CreatePollParams{
		Title:           string(make([]byte, 65)),
		OutcomeA:        "a",
		OutcomeB:        "b",
		InitialReserveA: 1,
		InitialReserveB: 1,
	})
	if err != ErrTitleTooLong {
		t.Fatalf("err = %v, want ErrTitleTooLong", err)
	}
}

func TestCreatePoll_ZeroReserves(t *testing.T) {
	e := testEngine("", time.Now().UTC())
	for _, rs := range [][2]uint64{{0, 1000}, {1000, 0}, {0, 0}} {
		_, err := e.CreatePoll(CreatePollParams{
			OutcomeA:        "a",
			OutcomeB:        "b",
			InitialReserveA: rs[0],
			InitialReserveB: rs[1],
		})
		if err != ErrInvalidShares {
			t.Fatalf("reserves %v: err = %v, want ErrInvalidShares", rs, err)
		}
	}
}

func TestCreatePoll_InvariantOverflow(t *testing.T) {
	e := testEngine("", time.Now().UTC())
	_, err := e.CreatePoll(CreatePollParams{
		OutcomeA:        "a",
		OutcomeB:        "b",
		InitialReserveA: 1 << 32,
		InitialReserveB: 1 << 32,
	})
	if err != ErrArithmeticOverflow {
		t.Fatalf("err = %v, want ErrArithmeticOverflow", err)
	}
}

func TestVote(t *testing.T) {
	e := testEngine("admin", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	poll := newTestPoll(t, e)
	led := &fakeLedger{}

	rec, err := e.Vote(poll, "alice", "outcome-a", 103, testAccounts, led.transfer)
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if rec.SharesReceived != 91 {
		t.Fatalf("shares = %d, want 91", rec.SharesReceived)
	}
	if rec.StakeValue != 103 {
		t.Fatalf("stake value = %d, want 103", rec.StakeValue)
	}
	if poll.ReserveA != 909 || poll.ReserveB != 1100 {
		t.Fatalf("reserves = (%d, %d), want (909, 1100)", poll.ReserveA, poll.ReserveB)
	}
	// Price is quoted at the post-swap reserves: 1100*10000/2009.
	if rec.PriceAtStake != 5475 {
		t.Fatalf("price = %d, want 5475", rec.PriceAtStake)
	}
	// Net stake then fee, both out of the caller's vault.
	want := []transferCall{
		{From: "user:alice:usd", To: "pool:p1", Authorizer: "alice", Amount: 100},
		{From: "user:alice:usd", To: "fees:usd", Authorizer: "alice", Amount: 3},
	}
	if len(led.calls) != 2 || led.calls[0] != want[0] || led.calls[1] != want[1] {
		t.Fatalf("transfers = %+v, want %+v", led.calls, want)
	}
}

func TestVote_Preconditions(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := testEngine("admin", now)

	t.Run("not active", func(t *testing.T) {
		poll := newTestPoll(t, e)
		poll.Status = models.PollStatusCanceled
		led := &fakeLedger{}
		if _, err := e.Vote(poll, "alice", "outcome-a", 103, testAccounts, led.transfer); err != ErrPollNotActive {
			t.Fatalf("err = %v, want ErrPollNotActive", err)
		}
		if len(led.calls) != 0 {
			t.Fatalf("transfers requested before precondition failure: %+v", led.calls)
		}
	})

	t.Run("deadline passed", func(t *testing.T) {
		poll := newTestPoll(t, e)
		late := testEngine("admin", poll.ClosesAt)
		led := &fakeLedger{}
		if _, err := late.Vote(poll, "alice", "outcome-a", 103, testAccounts, led.transfer); err != ErrPollClosed {
			t.Fatalf("err = %v, want ErrPollClosed", err)
		}
		if len(led.calls) != 0 {
			t.Fatalf("transfers requested after deadline: %+v", led.calls)
		}
	})

	t.Run("unknown outcome", func(t *testing.T) {
		poll := newTestPoll(t, e)
		led := &fakeLedger{}
		if _, err := e.Vote(poll, "alice", "outcome-c", 103, testAccounts, led.transfer); err != ErrInvalidOutcomeChoice {
			t.Fatalf("err = %v, want ErrInvalidOutcomeChoice", err)
		}
		if len(led.calls) != 0 {
			t.Fatalf("transfers requested for invalid outcome: %+v", led.calls)
		}
	})
}

func TestVote_TransferFailureLeavesPollUntouched(t *testing.T) {
	e := testEngine("admin", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	poll := newTestPoll(t, e)
	led := &fakeLedger{err: errors.New("vault offline")}
	if _, err := e.Vote(poll, "alice", "outcome-a", 103, testAccounts, led.transfer); err == nil {
		t.Fatalf("expected transfer error")
	}
	if poll.ReserveA != 1000 || poll.ReserveB != 1000 {
		t.Fatalf("reserves mutated after failed transfer: (%d, %d)", poll.ReserveA, poll.ReserveB)
	}
}

func TestVote_InvariantNonIncreaseAcrossVotes(t *testing.T) {
	e := testEngine("admin", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	poll := newTestPoll(t, e)
	led := &fakeLedger{}
	outcomes := []string{"outcome-a", "outcome-b", "outcome-a", "outcome-a", "outcome-b"}
	for i, outcome := range outcomes {
		if _, err := e.Vote(poll, "alice", outcome, 97, testAccounts, led.transfer); err != nil {
			t.Fatalf("vote %d: %v", i, err)
		}
		if poll.ReserveA == 0 || poll.ReserveB == 0 {
			t.Fatalf("vote %d: reserve hit zero", i)
		}
		if poll.ReserveA*poll.ReserveB > poll.InvariantK {
			t.Fatalf("vote %d: a*b = %d exceeds k = %d", i, poll.ReserveA*poll.ReserveB, poll.InvariantK)
		}
	}
}

func TestResolve_Authorization(t *testing.T) {
	e := testEngine("admin", time.Now().UTC())

	t.Run("creator", func(t *testing.T) {
		poll := newTestPoll(t, e)
		if err := e.Resolve(poll, "creator", "outcome-a"); err != nil {
			t.Fatalf("Resolve by creator: %v", err)
		}
		if poll.Status != models.PollStatusResolved || poll.WinningOutcome == nil || *poll.WinningOutcome != "outcome-a" {
			t.Fatalf("poll not resolved: %+v", poll)
		}
	})

	t.Run("configured admin", func(t *testing.T) {
		poll := newTestPoll(t, e)
		if err := e.Resolve(poll, "admin", "outcome-b"); err != nil {
			t.Fatalf("Resolve by admin: %v", err)
		}
	})

	t.Run("stranger", func(t *testing.T) {
		poll := newTestPoll(t, e)
		if err := e.Resolve(poll, "mallory", "outcome-a"); err != ErrUnauthorized {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
		if poll.Status != models.PollStatusActive {
			t.Fatalf("unauthorized resolve mutated status to %s", poll.Status)
		}
	})
}

// CanAdminister compares the caller against whatever admin candidate
// it is handed. If that candidate ever came from the request being
// authorized instead of configuration, any caller could authorize
// itself. This test pins down the failure mode the engine avoids by
// binding Admin at configuration time.
func TestCanAdminister_SelfSuppliedAdminDefeatsCheck(t *testing.T) {
	poll := &models.Poll{Authority: "creator"}
	if CanAdminister(poll, "mallory", "admin") {
		t.Fatalf("stranger passed with a bound admin identity")
	}
	// The historical defect: caller nominates itself as admin.
	if !CanAdminister(poll, "mallory", "mallory") {
		t.Fatalf("expected the raw comparison to pass a self-nominated admin")
	}
}

func TestResolve_InvalidWinner(t *testing.T) {
	e := testEngine("admin", time.Now().UTC())
	poll := newTestPoll(t, e)
	if err := e.Resolve(poll, "creator", "outcome-c"); err != ErrInvalidOutcomeChoice {
		t.Fatalf("err = %v, want ErrInvalidOutcomeChoice", err)
	}
}

func TestResolve_AcceptsLegacyClosedStatus(t *testing.T) {
	// Nothing writes "closed", but a poll carrying it must still
	// resolve.
	e := testEngine("admin", time.Now().UTC())
	poll := newTestPoll(t, e)
	poll.Status = models.PollStatusClosed
	if err := e.Resolve(poll, "creator", "outcome-a"); err != nil {
		t.Fatalf("Resolve on closed poll: %v", err)
	}
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	e := testEngine("admin", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	for _, status := range []models.PollStatus{models.PollStatusResolved, models.PollStatusCanceled} {
		poll := newTestPoll(t, e)
		poll.Status = status
		if err := e.Resolve(poll, "creator", "outcome-a"); err != ErrPollNotActive {
			t.Fatalf("%s: resolve err = %v, want ErrPollNotActive", status, err)
		}
		if err := e.Cancel(poll, "creator"); err != ErrPollNotActive {
			t.Fatalf("%s: cancel err = %v, want ErrPollNotActive", status, err)
		}
		led := &fakeLedger{}
		if _, err := e.Vote(poll, "alice", "outcome-a", 103, testAccounts, led.transfer); err != ErrPollNotActive {
			t.Fatalf("%s: vote err = %v, want ErrPollNotActive", status, err)
		}
	}
}

func TestCancel(t *testing.T) {
	e := testEngine("admin", time.Now().UTC())
	poll := newTestPoll(t, e)
	if err := e.Cancel(poll, "admin"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if poll.Status != models.PollStatusCanceled {
		t.Fatalf("status = %s, want canceled", poll.Status)
	}
	if err := e.Cancel(poll, "admin"); err != ErrPollNotActive {
		t.Fatalf("second cancel err = %v, want ErrPollNotActive", err)
	}
}

func TestAddLiquidity(t *testing.T) {
	e := testEngine("admin", time.Now().UTC())
	poll := newTestPoll(t, e)
	led := &fakeLedger{}
	if err := e.AddLiquidity(poll, "creator", 500, 250, testAccounts, led.transfer); err != nil {
		t.Fatalf("AddLiquidity: %v", err)
	}
	if poll.ReserveA != 1500 || poll.ReserveB != 1250 {
		t.Fatalf("reserves = (%d, %d), want (1500, 1250)", poll.ReserveA, poll.ReserveB)
	}
	if poll.InvariantK != 1500*1250 {
		t.Fatalf("k = %d, want %d", poll.InvariantK, 1500*1250)
	}
	if len(led.calls) != 2 || led.calls[0].Amount != 500 || led.calls[1].Amount != 250 {
		t.Fatalf("transfers = %+v", led.calls)
	}
}

func TestAddLiquidity_NoStatusPrecondition(t *testing.T) {
	// Liquidity can land on a canceled poll; the operation has no
	// status gate.
	e := testEngine("admin", time.Now().UTC())
	poll := newTestPoll(t, e)
	poll.Status = models.PollStatusCanceled
	led := &fakeLedger{}
	if err := e.AddLiquidity(poll, "creator", 10, 10, testAccounts, led.transfer); err != nil {
		t.Fatalf("AddLiquidity on canceled poll: %v", err)
	}
}

func claimFixture(t *testing.T, e *Engine) (*models.Poll, *models.VoteRecord) {
	t.Helper()
	poll := newTestPoll(t, e)
	led := &fakeLedger{}
	rec, err := e.Vote(poll, "alice", "outcome-a", 103, testAccounts, led.transfer)
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if err := e.Resolve(poll, "creator", "outcome-a"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return poll, rec
}

func TestClaim(t *testing.T) {
	e := testEngine("admin", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	poll, rec := claimFixture(t, e)
	led := &fakeLedger{}
	payout, err := e.Claim(poll, rec, "alice", testAccounts, led.transfer)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if payout != rec.SharesReceived {
		t.Fatalf("payout = %d, want %d", payout, rec.SharesReceived)
	}
	if !rec.Claimed {
		t.Fatalf("record not marked claimed")
	}
	// Payout leaves the pool vault under the poll-scoped authority,
	// not the end user.
	want := transferCall{From: "pool:p1", To: "user:alice:usd", Authorizer: "pool-authority:p1", Amount: payout}
	if len(led.calls) != 1 || led.calls[0] != want {
		t.Fatalf("transfers = %+v, want [%+v]", led.calls, want)
	}
}

func TestClaim_Preconditions(t *testing.T) {
	e := testEngine("admin", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	t.Run("not resolved", func(t *testing.T) {
		poll := newTestPoll(t, e)
		led := &fakeLedger{}
		rec, err := e.Vote(poll, "alice", "outcome-a", 103, testAccounts, led.transfer)
		if err != nil {
			t.Fatalf("Vote: %v", err)
		}
		if _, err := e.Claim(poll, rec, "alice", testAccounts, led.transfer); err != ErrPollNotResolved {
			t.Fatalf("err = %v, want ErrPollNotResolved", err)
		}
	})

	t.Run("wrong poll", func(t *testing.T) {
		poll, rec := claimFixture(t, e)
		rec.PollID = "someone-elses-poll"
		led := &fakeLedger{}
		if _, err := e.Claim(poll, rec, "alice", testAccounts, led.transfer); err != ErrInvalidVoteRecord {
			t.Fatalf("err = %v, want ErrInvalidVoteRecord", err)
		}
	})

	t.Run("wrong caller", func(t *testing.T) {
		poll, rec := claimFixture(t, e)
		led := &fakeLedger{}
		if _, err := e.Claim(poll, rec, "mallory", testAccounts, led.transfer); err != ErrUnauthorized {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
		if len(led.calls) != 0 {
			t.Fatalf("transfer requested for wrong caller")
		}
	})

	t.Run("losing side", func(t *testing.T) {
		poll := newTestPoll(t, e)
		led := &fakeLedger{}
		rec, err := e.Vote(poll, "alice", "outcome-b", 103, testAccounts, led.transfer)
		if err != nil {
			t.Fatalf("Vote: %v", err)
		}
		if err := e.Resolve(poll, "creator", "outcome-a"); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if _, err := e.Claim(poll, rec, "alice", testAccounts, led.transfer); err != ErrNotWinner {
			t.Fatalf("err = %v, want ErrNotWinner", err)
		}
	})
}

func TestClaim_Exclusivity(t *testing.T) {
	e := testEngine("admin", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	poll, rec := claimFixture(t, e)
	led := &fakeLedger{}
	if _, err := e.Claim(poll, rec, "alice", testAccounts, led.transfer); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if _, err := e.Claim(poll, rec, "alice", testAccounts, led.transfer); err != ErrAlreadyClaimed {
		t.Fatalf("second claim err = %v, want ErrAlreadyClaimed", err)
	}
	if len(led.calls) != 1 {
		t.Fatalf("second claim initiated a transfer: %+v", led.calls)
	}
}

func TestClaim_TransferFailureLeavesUnclaimed(t *testing.T) {
	e := testEngine("admin", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	poll, rec := claimFixture(t, e)
	led := &fakeLedger{err: errors.New("vault offline")}
	if _, err := e.Claim(poll, rec, "alice", testAccounts, led.transfer); err == nil {
		t.Fatalf("expected transfer error")
	}
	if rec.Claimed {
		t.Fatalf("claimed flag set despite failed transfer")
	}
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package admission decides whether a vote is accepted and records accepted
votes.

	engine := admission.NewEngine(store, admission.WithPollLocks())
	receipt, err := engine.CastVote(ctx, admission.Ballot{
		PollID:   pollID,
		OptionID: optionID,
		Voter:    caller.VoterKey(cfg.VoterIdentity),
	})

# Rejections

Business-rule refusals are *Rejection values compared with errors.Is:

  - ErrPollNotFound (NOT_FOUND)
  - ErrPollInactive (POLL_INACTIVE): inactive, or past its expiry
  - ErrDuplicateVote (DUPLICATE_VOTE)
  - ErrInvalidOption (INVALID_OPTION): unknown option or one from another poll

Any other error is an internal failure.

# Atomicity

The vote row and the tally increment commit together or not at all. The
increment is tally = tally + 1 on the stored value. The unique (poll, voter)
constraint decides races between concurrent votes by the same voter; the
loser is reported as ErrDuplicateVote.
*/
package admission

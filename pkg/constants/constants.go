// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package constants

import "time"

// Key namespaces in the shared store. Every key the engine writes is built from
// one of these by the gamestore key builders; nothing else may touch the store.
const (
	KeyMatchPrefix     = "match:"
	KeyMatchingQueue   = "matching:queue"
	KeyMatchingTeam    = "matching:team:"
	KeyTeamLockSet     = "match:locks:teams"
	KeyTeamLockPrefix  = "match:lock:team:"
	KeyPairClaimSet    = "match:claims:pairs"
	KeyPairClaimPrefix = "match:claim:pair:"
	KeyTeamPrefix      = "team:"
)

const (
	DefaultQueueEntryTTL = 60 * time.Second
	DefaultTeamLockTTL   = 5 * time.Second
	DefaultPairClaimTTL  = 5 * time.Second
	DefaultPieceLockTTL  = 30 * time.Second
	DefaultMatchDuration = 5 * time.Minute
	DefaultTickInterval  = time.Second
)

// Denial reason constants carried on outbound denied events.
const (
	ReasonNotFound    = "notFound"
	ReasonPlaced      = "placed"
	ReasonNotHolder   = "notHolder"
	ReasonLocked      = "locked"
	ReasonInvalidCell = "invalidCell"
)

// Game end reasons.
const (
	EndReasonCompleted = "completed"
	EndReasonTimeout   = "timeout"
)

// Waiting reason constants, recorded in metrics when a join attempt does not
// produce a match.
const (
	WaitReasonNoPartner   = "no_partner"
	WaitReasonLockBusy    = "team_lock_busy"
	WaitReasonPairClaimed = "pair_already_claimed"
)

package domain

import "time"

type SyncMode string

const (
	ModeBootstrap SyncMode = "bootstrap"
	ModeRebuild   SyncMode = "rebuild"
	ModeRefresh   SyncMode = "refresh"
)

// SyncResult describes what one synchronization did to the rate table.
type SyncResult struct {
	Base      CurrencyCode
	Mode      SyncMode
	Fetched   int // rates in the snapshot
	Written   int // rows inserted (bootstrap, rebuild) or updated (refresh), base row excluded
	Discarded int // snapshot codes outside the lookup
}

// SyncEvent is published after a successful synchronization.
type SyncEvent struct {
	ExecID   string    `json:"exec_id"`
	Base     string    `json:"base"`
	Mode     SyncMode  `json:"mode"`
	Written  int       `json:"written"`
	SyncedAt time.Time `json:"synced_at"`
}

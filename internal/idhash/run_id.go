package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"adbrain/internal/domain"
)

// ComputeRunID computes a deterministic run identifier using SHA256.
// Formula: SHA256(org_id|window_start|window_end)
// Returns hex-encoded hash (64 characters). Identical inputs yield the same
// run id, so a rerun over unchanged data reproduces its predecessor.
func ComputeRunID(orgID string, window domain.Window) string {
	data := fmt.Sprintf("%s|%s|%s",
		orgID,
		domain.Day(window.Start).Format("2006-01-02"),
		domain.Day(window.End).Format("2006-01-02"),
	)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
